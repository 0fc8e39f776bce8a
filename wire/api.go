package wire

import (
	"encoding/json"
	"fmt"
)

// APIMeta is the meta section of an API envelope.
type APIMeta struct {
	// Code is the application status code (200 means success).
	Code int `json:"code"`
}

// APIBody is the response section of an API envelope.
//
// Different endpoints populate different fields; a token probe fills
// CSRFToken, a failed form submission fills Errors/FieldErrors.
type APIBody struct {
	// CSRFToken is the single-use anti-forgery token returned by a probe.
	CSRFToken string `json:"csrf_token,omitempty"`
	// Errors lists form-wide validation errors.
	Errors []string `json:"errors,omitempty"`
	// FieldErrors maps field names to their validation errors. Errors not
	// tied to a field are keyed under "_".
	FieldErrors map[string][]string `json:"field_errors,omitempty"`
	// User is the identity record for endpoints that return one.
	User *UserInfo `json:"user,omitempty"`
}

// APIResponse is the JSON envelope used by every one-shot API endpoint and by
// enveloped channel replies.
type APIResponse struct {
	// Meta carries the application status code.
	Meta APIMeta `json:"meta"`
	// Response carries the endpoint payload or the validation errors.
	Response APIBody `json:"response"`
}

// OK reports whether the envelope carries a success code.
func (r APIResponse) OK() bool {
	return r.Meta.Code == 200
}

// ErrorMessage flattens the envelope's errors into one display string.
// Returns "" for success envelopes.
func (r APIResponse) ErrorMessage() string {
	if r.OK() {
		return ""
	}
	if len(r.Response.Errors) > 0 {
		return r.Response.Errors[0]
	}
	for _, msgs := range r.Response.FieldErrors {
		if len(msgs) > 0 {
			return msgs[0]
		}
	}
	return fmt.Sprintf("request failed with code %d", r.Meta.Code)
}

// ErrorResponse builds a code-400 envelope carrying a single message under
// the "_" field. Used to normalize transport failures so callers never branch
// on where a request failed.
func ErrorResponse(message string) APIResponse {
	return APIResponse{
		Meta:     APIMeta{Code: 400},
		Response: APIBody{FieldErrors: map[string][]string{"_": {message}}},
	}
}

// FromReply bridges a channel reply into the API envelope.
//
// A success reply's value is re-decoded as an envelope; an error reply (or a
// value that is not an envelope) becomes an ErrorResponse. This keeps channel
// and HTTP operations indistinguishable to callers.
func FromReply(rep Reply) APIResponse {
	if !rep.OK() {
		return ErrorResponse(rep.Message)
	}
	raw, err := json.Marshal(rep.Value)
	if err != nil {
		return ErrorResponse(fmt.Sprintf("unexpected reply payload: %v", err))
	}
	var resp APIResponse
	if err := json.Unmarshal(raw, &resp); err != nil || resp.Meta.Code == 0 {
		return ErrorResponse(fmt.Sprintf("unexpected reply payload: %s", raw))
	}
	return resp
}
