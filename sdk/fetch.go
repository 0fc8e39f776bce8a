package sdk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dsimona/estimo/internal/logger"
	"github.com/dsimona/estimo/wire"
)

// doRequest performs one HTTP exchange against the API and returns the raw
// body and status code.
//
// Non-2xx responses are not errors here: the service returns structured
// validation failures with a 400 status, and callers want that body. Only
// transport-level failures surface as errors.
func (c *Client) doRequest(method, path string, body any, header http.Header) ([]byte, int, error) {
	fullURL := c.cfg.ServerURL + path

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, fullURL, reader)
	if err != nil {
		return nil, 0, err
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warnf("error in %s %s: %v", method, path, err)
		return nil, 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return respBody, resp.StatusCode, nil
}

// fetchEnvelope performs one exchange and decodes the API envelope,
// normalizing transport failures and unparseable bodies into error
// envelopes so callers handle exactly one shape.
func (c *Client) fetchEnvelope(method, path string, body any, header http.Header) wire.APIResponse {
	raw, _, err := c.doRequest(method, path, body, header)
	if err != nil {
		return wire.ErrorResponse(err.Error())
	}
	var resp wire.APIResponse
	if err := json.Unmarshal(raw, &resp); err != nil || resp.Meta.Code == 0 {
		logger.Warnf("malformed envelope from %s %s: %s", method, path, raw)
		return wire.ErrorResponse(fmt.Sprintf("malformed response from %s", path))
	}
	return resp
}

// fetchPair performs one exchange whose body is the positional
// [status, value] pair (only the login endpoint answers this way).
func (c *Client) fetchPair(method, path string, body any) (wire.Reply, error) {
	raw, _, err := c.doRequest(method, path, body, nil)
	if err != nil {
		return wire.Reply{}, err
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return wire.Reply{}, fmt.Errorf("malformed response from %s: %w", path, err)
	}
	return wire.DecodeReply(payload)
}

// tokenPhase tracks a two-phase token request through its legs.
type tokenPhase int

const (
	phaseIdle tokenPhase = iota
	phaseProbing
	phaseSubmitting
	phaseDone
)

// tokenRequest is the probe-then-submit state machine used by every
// state-mutating endpoint except login.
//
// The probe is a zero-payload request whose only purpose is to obtain a
// fresh single-use anti-forgery token for the endpoint; the submit leg
// resends the real payload carrying that token. Fetching the token per
// submission avoids stale-token failures and never leaves a standing token
// around.
type tokenRequest struct {
	client *Client
	path   string
	phase  tokenPhase
}

func (c *Client) newTokenRequest(path string) *tokenRequest {
	return &tokenRequest{client: c, path: path, phase: phaseIdle}
}

// Do runs both legs. If the probe does not succeed its result is returned
// verbatim and the submit leg is never issued.
func (r *tokenRequest) Do(payload map[string]any) wire.APIResponse {
	r.phase = phaseProbing
	probe := r.client.fetchEnvelope("GET", r.path, nil, nil)
	if !probe.OK() {
		r.phase = phaseDone
		return probe
	}

	token := probe.Response.CSRFToken
	if token == "" {
		r.phase = phaseDone
		logger.Warnf("token probe for %s returned no token", r.path)
		return wire.ErrorResponse(fmt.Sprintf("no anti-forgery token from %s", r.path))
	}

	r.phase = phaseSubmitting
	body := make(map[string]any, len(payload)+1)
	for key, value := range payload {
		body[key] = value
	}
	body["csrf_token"] = token
	header := http.Header{}
	header.Set("X-CSRFToken", token)

	resp := r.client.fetchEnvelope("POST", r.path, body, header)
	r.phase = phaseDone
	return resp
}
