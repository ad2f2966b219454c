package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx answer of the dashboard API.
type APIError struct {
	StatusCode int
	Code       string
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Detail)
}

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
	Code   string          `json:"code"`
}

// newAPIError builds an APIError from a response body. The detail field may
// be a string, a list of {"msg": ...} objects or any other JSON value.
func newAPIError(status int, body []byte) *APIError {
	e := &APIError{StatusCode: status}
	var b errorBody
	if err := json.Unmarshal(body, &b); err != nil || len(b.Detail) == 0 {
		e.Detail = fallbackDetail(status, body)
		return e
	}
	e.Code = b.Code
	e.Detail = DetailMessage(b.Detail)
	if e.Detail == "" {
		e.Detail = fallbackDetail(status, nil)
	}
	return e
}

func fallbackDetail(status int, body []byte) string {
	if s := strings.TrimSpace(string(body)); s != "" && !json.Valid(body) {
		return s
	}
	return http.StatusText(status)
}

// DetailMessage turns a raw detail value into one display string.
func DetailMessage(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		msgs := make([]string, 0, len(list))
		for _, item := range list {
			var withMsg struct {
				Msg string `json:"msg"`
			}
			if err := json.Unmarshal(item, &withMsg); err == nil && withMsg.Msg != "" {
				msgs = append(msgs, withMsg.Msg)
				continue
			}
			msgs = append(msgs, DetailMessage(item))
		}
		return strings.Join(msgs, ", ")
	}

	if string(raw) == "null" {
		return ""
	}
	return string(raw)
}
