// Package pipeline implements the fixed four-stage processing chain
// (parser, action, compression, sender) described by the component design,
// plus the bottom-up builder and recovery loop that supervise it.
package pipeline

import (
	"net"

	"github.com/HasinZaman/pipelined-server/pkg/httprequest"
	"github.com/HasinZaman/pipelined-server/pkg/httpresponse"
	"github.com/HasinZaman/pipelined-server/pkg/httpstatus"
)

// ParseOutcome is Result<Request, StatusCode>: exactly one of Request or
// Code is meaningful, discriminated by Err.
type ParseOutcome struct {
	Request httprequest.Request
	Code    httpstatus.Code
	Err     bool
}

// Ok wraps a successfully parsed request.
func Ok(request httprequest.Request) ParseOutcome {
	return ParseOutcome{Request: request}
}

// Failed wraps a parse failure's status code.
func Failed(code httpstatus.Code) ParseOutcome {
	return ParseOutcome{Code: code, Err: true}
}

// connectionItem is the payload placed on a pipeline's inbound queue by the
// dispatcher and drained by the parser stage.
type connectionItem struct {
	Conn net.Conn
}

// actionItem is the payload placed on the action queue by the parser stage.
type actionItem struct {
	Conn    net.Conn
	Outcome ParseOutcome
}

// compressionItem is the payload placed on the compression queue by the
// action stage.
type compressionItem struct {
	Conn     net.Conn
	Response httpresponse.Response
	Request  *httprequest.Request
}

// senderItem is the payload placed on the sender queue by the compression
// stage.
type senderItem struct {
	Conn  net.Conn
	Bytes []byte
}
