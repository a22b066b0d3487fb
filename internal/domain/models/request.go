package models

import (
	"net/http"
	"strings"
)

// Method is the HTTP verb of a signable request.
type Method string

const (
	MethodGet    Method = http.MethodGet
	MethodPost   Method = http.MethodPost
	MethodPut    Method = http.MethodPut
	MethodDelete Method = http.MethodDelete
)

// ParseMethod normalizes a verb and reports whether the protocol supports it.
func ParseMethod(s string) (Method, bool) {
	switch m := Method(strings.ToUpper(strings.TrimSpace(s))); m {
	case MethodGet, MethodPost, MethodPut, MethodDelete:
		return m, true
	default:
		return "", false
	}
}

// HasBody reports whether requests with this verb may carry a body.
func (m Method) HasBody() bool {
	return m != MethodGet
}

// SignableRequest is one outbound call as it is signed. URL is the path plus query
// exactly as it appears in the canonical string; the transport prefixes the base URL.
// Payload holds the serialized Body and is what both the digest and the wire see.
type SignableRequest struct {
	Method  Method
	URL     string
	Body    interface{}
	Payload []byte
	Header  http.Header
}

// NewSignableRequest builds a request with an empty header set.
func NewSignableRequest(method Method, url string, body interface{}) *SignableRequest {
	return &SignableRequest{
		Method: method,
		URL:    url,
		Body:   body,
		Header: make(http.Header),
	}
}

// Clone returns a deep copy of the header set and payload so a stage can sign
// without mutating the pending request.
func (r *SignableRequest) Clone() *SignableRequest {
	c := *r
	c.Header = r.Header.Clone()
	if c.Header == nil {
		c.Header = make(http.Header)
	}
	if r.Payload != nil {
		c.Payload = append([]byte(nil), r.Payload...)
	}
	return &c
}

// Response is what the transport hands back for one attempt.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}
