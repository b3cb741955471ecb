// Package types holds the JSON envelopes shared by every API response.
package types

// SuccessEnvelope wraps a successful payload as {"data": ...}. A nil payload
// is rendered as null, which is how clean report generations are reported.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the body of every failed request.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
