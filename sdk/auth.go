package sdk

import (
	"net/url"

	"github.com/dsimona/estimo/internal/logger"
	"github.com/dsimona/estimo/internal/websocket"
	"github.com/dsimona/estimo/wire"
)

// RegisterRequest carries the fields for account registration.
type RegisterRequest struct {
	// Username is the login name for the new account.
	Username string `json:"username"`
	// Email is the account email.
	Email string `json:"email"`
	// Password is the account password.
	Password string `json:"password"`
	// Token is the captcha token proving a human filled the form.
	Token string `json:"token"`
}

// SendResetRequest asks for a password-reset mail.
type SendResetRequest struct {
	// Email is the account email to send the reset link to.
	Email string `json:"email"`
	// Token is the captcha token.
	Token string `json:"token"`
}

// ResetRequest completes a password reset.
type ResetRequest struct {
	// Key is the reset key from the mailed link.
	Key string `json:"-"`
	// Password is the new password.
	Password string `json:"password"`
	// PasswordConfirm repeats the new password.
	PasswordConfirm string `json:"password_confirm"`
	// Token is the captcha token.
	Token string `json:"token"`
}

// UpdateUserRequest edits the current user's profile.
type UpdateUserRequest struct {
	// FirstName is the new first name.
	FirstName string `json:"first_name"`
	// LastName is the new last name.
	LastName string `json:"last_name"`
	// Password is the new password; empty keeps the current one.
	Password string `json:"password,omitempty"`
	// Email is the new email.
	Email string `json:"email"`
	// Token is the captcha token.
	Token string `json:"token"`
}

// LogIn authenticates over the one-shot path and rebuilds the channel
// session on success, so the server re-derives per-connection state under
// the new identity. Login is the one mutating call that carries no
// anti-forgery token.
func (c *Client) LogIn(user, password string) (wire.Reply, error) {
	rep, err := c.fetchPair("POST", "/api/base/login", map[string]any{
		"user":     user,
		"password": password,
	})
	if err != nil {
		return wire.Reply{}, err
	}
	if rep.OK() {
		logger.Infof("login succeeded for user: %s", user)
		if err := c.channel.Reconnect(); err != nil {
			logger.Warnf("reconnect after login: %v", err)
		}
	} else {
		logger.Warnf("login failed: %s", rep.Message)
	}
	return rep, nil
}

// LogOut ends the session and rebuilds the channel regardless of the
// outcome; a dead session is worth a fresh connection either way.
func (c *Client) LogOut() wire.APIResponse {
	resp := c.newTokenRequest("/api/base/logout").Do(map[string]any{})
	if err := c.channel.Reconnect(); err != nil {
		logger.Warnf("reconnect after logout: %v", err)
	}
	return resp
}

// Register creates an account through the two-phase token flow. Validation
// failures come back per field in the response envelope.
func (c *Client) Register(req RegisterRequest) wire.APIResponse {
	return c.newTokenRequest("/api/base/cregister").Do(map[string]any{
		"username": req.Username,
		"email":    req.Email,
		"password": req.Password,
		"token":    req.Token,
	})
}

// SendReset requests a password-reset mail through the two-phase token flow.
func (c *Client) SendReset(req SendResetRequest) wire.APIResponse {
	return c.newTokenRequest("/api/base/csendreset").Do(map[string]any{
		"email": req.Email,
		"token": req.Token,
	})
}

// CheckReset asks the server whether a reset key is still valid. Keys that
// decode as already-expired tokens are rejected without a round trip; the
// server stays authoritative for everything else.
func (c *Client) CheckReset(key string) wire.APIResponse {
	if expired, known := resetTokenExpired(key); known && expired {
		return wire.ErrorResponse("reset link expired")
	}
	return c.fetchEnvelope("GET", "/api/base/creset/"+url.PathEscape(key), nil, nil)
}

// Reset completes a password reset through the two-phase token flow.
func (c *Client) Reset(req ResetRequest) wire.APIResponse {
	return c.newTokenRequest("/api/base/creset/"+url.PathEscape(req.Key)).Do(map[string]any{
		"password":         req.Password,
		"password_confirm": req.PasswordConfirm,
		"token":            req.Token,
	})
}

// UpdateUser edits the current profile over the duplex channel. The reply
// uses the same envelope as the one-shot endpoints, so callers see one
// result shape whichever transport carried the request.
func (c *Client) UpdateUser(req UpdateUserRequest) wire.APIResponse {
	var password any
	if req.Password != "" {
		password = req.Password
	}
	rep, err := c.channel.Call("update_profile", websocket.CallOptions{},
		req.FirstName, req.LastName, password, req.Email, req.Token)
	if err != nil {
		return wire.ErrorResponse(err.Error())
	}
	return wire.FromReply(rep)
}
