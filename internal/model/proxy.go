// Package model defines shared types for the gateway.
package model

import (
	"context"
	"io"
	"net/http"
)

// ProxyRequest represents an inbound client request to be forwarded to the
// inventory backend. SubPath is the wildcard remainder of the request path
// (no leading slash) and RawQuery is the original query string, both kept
// verbatim so path-based resource identifiers survive the hop untouched.
type ProxyRequest struct {
	Ctx      context.Context
	Method   string
	SubPath  string
	RawQuery string
	Header   http.Header
	Body     io.ReadCloser
}

// ProxyResponse represents a completed backend exchange. Body holds the raw
// response bytes; the gateway never re-serializes them.
type ProxyResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Credential is the outcome of a token resolution attempt. Present reports
// whether a bearer token was obtained; resolution failure yields an absent
// credential rather than an error so the request proceeds unauthenticated.
type Credential struct {
	Token   string
	Present bool
}

// Body is the outcome of reading an inbound request body. Present is false
// for bodiless methods and when the read failed.
type Body struct {
	Data    []byte
	Present bool
}

// ErrorEnvelope is the JSON body returned with HTTP 502 when the forward
// attempt itself cannot complete. The shape is a stable client contract.
type ErrorEnvelope struct {
	Error     string `json:"error"`
	Details   string `json:"details"`
	TargetURL string `json:"target_url"`
	Timestamp string `json:"timestamp"`
}
