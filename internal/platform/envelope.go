package platform

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Envelope holds the business fields the booking API wraps around payloads.
// Every field is optional; list endpoints may answer with a bare array.
type Envelope struct {
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// Success reports whether the business status is "success".
func (e Envelope) Success() bool {
	return strings.EqualFold(e.Status, "success")
}

// Unauthorized reports whether the envelope carries a 401-class status. An
// explicit "success" status wins over a stray 401 code.
func (e Envelope) Unauthorized() bool {
	switch strings.ToLower(e.Status) {
	case "unauthorized", "unauthenticated":
		return true
	case "success":
		return false
	}
	return e.Code == 401
}

func parseEnvelope(body []byte) Envelope {
	var raw struct {
		Status  json.RawMessage `json:"status"`
		Message json.RawMessage `json:"message"`
		Code    json.RawMessage `json:"code"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return Envelope{}
	}

	env := Envelope{
		Status:  scalar(raw.Status),
		Message: scalar(raw.Message),
	}
	if n, err := strconv.Atoi(scalar(raw.Code)); err == nil {
		env.Code = n
	} else if n, err := strconv.Atoi(env.Status); err == nil {
		env.Code = n
	}
	return env
}

// scalar renders a JSON string or number as a Go string.
func scalar(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
