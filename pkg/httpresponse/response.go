// Package httpresponse defines the Response value type and its bit-exact
// wire serializer.
package httpresponse

import (
	"sort"
	"strconv"
	"strings"

	"github.com/HasinZaman/pipelined-server/pkg/httpbody"
	"github.com/HasinZaman/pipelined-server/pkg/httpstatus"
)

// Response is the (status, headers, optional body) tuple produced by the
// action stage and consumed by the compression stage.
type Response struct {
	Status  httpstatus.Code
	Headers map[string]string
	Body    *httpbody.Body
}

// New builds a Response with an empty header map.
func New(status httpstatus.Code) Response {
	return Response{Status: status, Headers: map[string]string{}}
}

// WithBody attaches a body to the response.
func (r Response) WithBody(body httpbody.Body) Response {
	r.Body = &body
	return r
}

// WithHeader sets a header, returning the modified response for chaining.
func (r Response) WithHeader(name, value string) Response {
	if r.Headers == nil {
		r.Headers = map[string]string{}
	}
	r.Headers[name] = value
	return r
}

// Serialize produces the exact wire bytes for the response per the
// HTTP/1.1 framing described in the external interfaces section:
//
//	HTTP/1.1 <code> <reason>\r\n
//	<header-name>: <header-value>\r\n   (repeated)
//	[if body present:]
//	Content-Length: <len>\r\n
//	Content-Type: <media-type>\r\n
//	\r\n
//	<body-bytes>
//
// When no body is present, the trailing blank line is omitted.
func (r Response) Serialize() []byte {
	var b strings.Builder

	b.WriteString("HTTP/1.1 ")
	b.WriteString(strconv.Itoa(r.Status.Int()))
	b.WriteByte(' ')
	b.WriteString(r.Status.Reason())
	b.WriteString("\r\n")

	names := make([]string, 0, len(r.Headers))
	for name := range r.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(r.Headers[name])
		b.WriteString("\r\n")
	}

	if r.Body != nil {
		b.WriteString("Content-Length: ")
		b.WriteString(strconv.Itoa(len(r.Body.Data)))
		b.WriteString("\r\n")
		b.WriteString("Content-Type: ")
		b.WriteString(r.Body.ContentType.String())
		b.WriteString("\r\n")
		b.WriteString("\r\n")
	}

	out := make([]byte, 0, b.Len()+bodyLen(r.Body))
	out = append(out, []byte(b.String())...)
	if r.Body != nil {
		out = append(out, r.Body.Data...)
	}
	return out
}

func bodyLen(body *httpbody.Body) int {
	if body == nil {
		return 0
	}
	return len(body.Data)
}
