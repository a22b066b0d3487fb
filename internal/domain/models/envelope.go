package models

import (
	"bytes"
	"encoding/json"
)

// ResponseEnvelope is the JSON object every open API endpoint answers with.
// Code is a pointer so an absent code can be told apart from zero.
type ResponseEnvelope struct {
	Code    *int            `json:"code"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Failed reports whether the envelope carries a nonzero code.
func (e *ResponseEnvelope) Failed() bool {
	return e.Code != nil && *e.Code != 0
}

// Collection is a keyed-lookup view over a decoded data payload.
type Collection struct {
	raw   json.RawMessage
	items map[string]interface{}
}

// NewCollection wraps raw JSON. Non-object payloads are kept raw and expose no keys.
func NewCollection(raw json.RawMessage) *Collection {
	c := &Collection{raw: raw, items: map[string]interface{}{}}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		_ = json.Unmarshal(trimmed, &c.items)
	}
	return c
}

// Get returns the value stored under key, or nil.
func (c *Collection) Get(key string) interface{} {
	return c.items[key]
}

// GetString returns the value under key when it is a string.
func (c *Collection) GetString(key string) string {
	s, _ := c.items[key].(string)
	return s
}

// Has reports whether key is present.
func (c *Collection) Has(key string) bool {
	_, ok := c.items[key]
	return ok
}

// All returns the decoded top-level object.
func (c *Collection) All() map[string]interface{} {
	return c.items
}

// Raw returns the payload exactly as received.
func (c *Collection) Raw() json.RawMessage {
	return c.raw
}

// Unmarshal decodes the payload into v.
func (c *Collection) Unmarshal(v interface{}) error {
	if len(bytes.TrimSpace(c.raw)) == 0 {
		return json.Unmarshal([]byte("null"), v)
	}
	return json.Unmarshal(c.raw, v)
}

// Result is the outcome of a successful call: either a data payload or no content.
type Result struct {
	data      *Collection
	noContent bool
}

// NoContent is returned for every empty response body.
var NoContent = &Result{noContent: true}

// NewResult wraps a data payload.
func NewResult(data json.RawMessage) *Result {
	return &Result{data: NewCollection(data)}
}

// IsNoContent reports whether the response body was empty.
func (r *Result) IsNoContent() bool {
	return r == nil || r.noContent
}

// Data returns the payload, or an empty collection for no-content results.
func (r *Result) Data() *Collection {
	if r.IsNoContent() {
		return NewCollection(nil)
	}
	return r.data
}
