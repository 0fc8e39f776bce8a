package sdk

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dsimona/estimo/wire"
)

func TestLogIn_SuccessReconnectsAndSyncsIdentity(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/base/login", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "demo", body["user"])
		writeJSON(t, w, http.StatusOK, []any{"success", "OK"})
	}))
	defer ts.Close()

	c, dials := newStubClient(t, ts.URL, map[string]any{
		"userinfo": []any{"success", map[string]any{
			"user": map[string]any{
				"id":         float64(1),
				"first_name": "Demo",
				"last_name":  "User",
			},
		}},
	})

	rep, err := c.LogIn("demo", "")
	require.NoError(t, err)
	require.True(t, rep.OK())
	// Login tears down and redials the channel for the new identity.
	require.Equal(t, int32(1), dials.Load())

	_, err = c.SyncUserInfo()
	require.NoError(t, err)

	state := c.Store().State()
	require.Equal(t, int64(1), state.UserInfo.ID)
	require.Equal(t, "Demo", state.UserInfo.FirstName)
	require.Equal(t, "User", state.UserInfo.LastName)
	require.False(t, state.UserInfo.IsAnonymous())
}

func TestLogIn_FailureDoesNotReconnect(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, []any{"error", "Invalid password"})
	}))
	defer ts.Close()

	c, dials := newStubClient(t, ts.URL, nil)
	rep, err := c.LogIn("demo", "wrong")
	require.NoError(t, err)
	require.Equal(t, wire.StatusError, rep.Status)
	require.Equal(t, "Invalid password", rep.Message)
	require.Equal(t, int32(0), dials.Load())
}

func TestLogOut_TwoPhaseAndReconnect(t *testing.T) {
	t.Parallel()

	var sawToken bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/base/logout", r.URL.Path)
		if r.Method == http.MethodGet {
			writeJSON(t, w, http.StatusOK, map[string]any{
				"meta":     map[string]any{"code": 200},
				"response": map[string]any{"csrf_token": "bye"},
			})
			return
		}
		sawToken = r.Header.Get("X-CSRFToken") == "bye"
		writeJSON(t, w, http.StatusOK, map[string]any{
			"meta":     map[string]any{"code": 200},
			"response": map[string]any{},
		})
	}))
	defer ts.Close()

	c, dials := newStubClient(t, ts.URL, nil)
	resp := c.LogOut()

	require.True(t, resp.OK())
	require.True(t, sawToken)
	require.Equal(t, int32(1), dials.Load())
}

func TestUpdateUser_ChannelReplyNormalizes(t *testing.T) {
	t.Parallel()

	c, _ := newStubClient(t, "http://example.invalid", map[string]any{
		"update_profile": []any{"success", map[string]any{
			"meta":     map[string]any{"code": float64(200)},
			"response": map[string]any{},
		}},
	})

	resp := c.UpdateUser(UpdateUserRequest{
		FirstName: "Demo",
		LastName:  "User",
		Email:     "demo@example.com",
		Token:     "cap",
	})
	require.True(t, resp.OK())
}

func TestUpdateUser_ErrorReplyBecomesEnvelope(t *testing.T) {
	t.Parallel()

	c, _ := newStubClient(t, "http://example.invalid", map[string]any{
		"update_profile": []any{"error", "not logged in"},
	})

	resp := c.UpdateUser(UpdateUserRequest{FirstName: "X"})
	require.False(t, resp.OK())
	require.Equal(t, []string{"not logged in"}, resp.Response.FieldErrors["_"])
}
