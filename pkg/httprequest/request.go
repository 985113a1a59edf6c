// Package httprequest defines the parsed Request value type.
package httprequest

import "github.com/HasinZaman/pipelined-server/pkg/httpmethod"

// Headers maps lowercased header names to their values. Header order is not
// significant.
type Headers map[string]string

// Get returns the value of a header, matched case-insensitively by virtue of
// Headers always storing lowercased keys. The caller is expected to pass a
// lowercase name.
func (h Headers) Get(name string) (string, bool) {
	value, ok := h[name]
	return value, ok
}

// Request is the tuple (Method, Headers) produced by the parser stage for a
// successfully parsed start line and header block.
type Request struct {
	Method  httpmethod.Method
	Headers Headers
}
