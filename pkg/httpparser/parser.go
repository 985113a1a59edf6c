// Package httpparser implements the dual-timeout HTTP/1.1 request parser
// consulted by the pipeline's parser stage. It is deliberately standalone
// and connection-agnostic (any net.Conn) so it can be exercised directly by
// tests without a running pipeline, keeping protocol decoding separate
// from its transport plumbing.
package httpparser

import (
	"bytes"
	"net"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/HasinZaman/pipelined-server/pkg/httpbody"
	"github.com/HasinZaman/pipelined-server/pkg/httpmethod"
	"github.com/HasinZaman/pipelined-server/pkg/httprequest"
	"github.com/HasinZaman/pipelined-server/pkg/httpstatus"
	"github.com/HasinZaman/pipelined-server/pkg/mediatype"
	"github.com/HasinZaman/pipelined-server/pkg/timeutil"
)

// Config bundles the parser's tunable parameters.
type Config struct {
	// ReadBufferSize is the size of each individual socket read.
	ReadBufferSize int
	// MaxRequestSize is the maximum number of accumulated bytes before the
	// parser gives up with PayloadTooLarge.
	MaxRequestSize int
	// PacketTimeoutMS is the maximum idle time between successive chunks
	// before the parser decides the request is complete.
	PacketTimeoutMS int
	// ReadTimeoutMS is the per-read socket deadline.
	ReadTimeoutMS int
}

// readCloser is the subset of net.Conn this package relies on for
// half-closing the read side once parsing begins; connections that don't
// implement it (rare outside of TCP) simply skip that step.
type readCloser interface {
	CloseRead() error
}

type readResult struct {
	data []byte
	err  error
}

// Parse reads from conn until end-of-request (EOF, inter-packet silence, or
// a terminal read error) and parses the accumulated bytes into a Request.
// On any parse failure it returns the status code to surface downstream
// instead of an error, matching the pipeline's "parse failures become
// Err(StatusCode)" contract.
func Parse(conn net.Conn, cfg Config) (httprequest.Request, httpstatus.Code, bool) {
	buffer, code, isErr := readRequest(conn, cfg)
	if isErr {
		return httprequest.Request{}, code, true
	}
	return parseBuffer(buffer)
}

// readRequest drains conn under the dual-timeout discipline described in
// the component design: a per-read deadline enforced by the socket itself,
// and an inter-packet timer enforced by this loop.
func readRequest(conn net.Conn, cfg Config) ([]byte, httpstatus.Code, bool) {
	readTimeout := time.Duration(cfg.ReadTimeoutMS) * time.Millisecond
	packetTimeout := time.Duration(cfg.PacketTimeoutMS) * time.Millisecond

	if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
		return nil, httpstatus.BadRequest, true
	}

	// done tells the reader goroutine to give up on delivering its current
	// (or next) result once this function is about to return. Without it,
	// the goroutine blocks forever on an unbuffered chunks<- send whenever
	// readRequest exits via the packet-timeout path rather than a terminal
	// read error: nothing is left to receive.
	done := make(chan struct{})
	defer close(done)

	chunks := make(chan readResult)
	go func() {
		for {
			buf := make([]byte, cfg.ReadBufferSize)
			n, err := conn.Read(buf)
			if n > 0 {
				select {
				case chunks <- readResult{data: buf[:n]}:
				case <-done:
					return
				}
			}
			if err != nil {
				select {
				case chunks <- readResult{err: err}:
				case <-done:
				}
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		}
	}()

	var buffer bytes.Buffer
	timer := time.NewTimer(packetTimeout)
	defer timeutil.StopAndDrainTimer(timer)

	var terminal error
	for {
		select {
		case result := <-chunks:
			if result.err != nil {
				terminal = result.err
				goto done
			}
			if !utf8.Valid(result.data) {
				return nil, httpstatus.BadRequest, true
			}
			buffer.Write(result.data)
			if buffer.Len() > cfg.MaxRequestSize {
				return nil, httpstatus.PayloadTooLarge, true
			}
			timeutil.StopAndDrainTimer(timer)
			timer.Reset(packetTimeout)
		case <-timer.C:
			goto done
		}
	}

done:
	shutdownRead(conn)

	if terminal != nil {
		if netErr, ok := terminal.(net.Error); ok && netErr.Timeout() {
			return nil, httpstatus.RequestTimeout, true
		}
		if terminal.Error() != "EOF" {
			return nil, httpstatus.BadRequest, true
		}
	}

	return buffer.Bytes(), 0, false
}

func shutdownRead(conn net.Conn) {
	if rc, ok := conn.(readCloser); ok {
		_ = rc.CloseRead()
	}
}

// parseBuffer consumes a single start line of the form "METHOD target
// VERSION", then "name: value" header lines until an empty line. It is
// line-split on '\n' and tolerant of a missing '\r'.
func parseBuffer(buffer []byte) (httprequest.Request, httpstatus.Code, bool) {
	lines := strings.Split(string(buffer), "\n")
	if len(lines) == 0 {
		return httprequest.Request{}, httpstatus.BadRequest, true
	}

	startLine := strings.TrimSuffix(lines[0], "\r")
	fields := strings.Fields(startLine)
	if len(fields) != 3 {
		return httprequest.Request{}, httpstatus.BadRequest, true
	}

	kind, ok := httpmethod.ParseKind(strings.ToUpper(fields[0]))
	if !ok {
		return httprequest.Request{}, httpstatus.BadRequest, true
	}
	target := fields[1]

	headers := httprequest.Headers{}
	headerLineCount := 0
	for _, line := range lines[1:] {
		trimmed := strings.TrimSuffix(line, "\r")
		if trimmed == "" {
			break
		}
		headerLineCount++
		name, value, ok := splitHeaderLine(trimmed)
		if !ok {
			continue
		}
		headers[strings.ToLower(name)] = value
	}

	method := httpmethod.Method{Kind: kind, Path: target, URL: target}

	if method.HasBody() {
		if body, ok := extractBody(lines, headerLineCount, headers); ok {
			method.Body = body
		}
	}

	return httprequest.Request{Method: method, Headers: headers}, 0, false
}

func splitHeaderLine(line string) (string, string, bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}
	name := strings.TrimSpace(line[:idx])
	value := strings.TrimSpace(line[idx+1:])
	if name == "" {
		return "", "", false
	}
	return name, value, true
}

// extractBody attaches a body when both content-type and content-length
// headers are present, reading up to the first NUL byte or EOF of the
// remaining accumulated bytes.
func extractBody(lines []string, headerLineCount int, headers httprequest.Headers) (*httpbody.Body, bool) {
	contentType, hasType := headers.Get("content-type")
	_, hasLength := headers.Get("content-length")
	if !hasType || !hasLength {
		return nil, false
	}

	bodyStart := 1 + headerLineCount + 1
	if bodyStart > len(lines) {
		bodyStart = len(lines)
	}
	rest := lines[bodyStart:]
	raw := []byte(strings.Join(rest, "\n"))
	if idx := bytes.IndexByte(raw, 0); idx >= 0 {
		raw = raw[:idx]
	}

	extension := contentType
	if idx := strings.Index(contentType, "/"); idx >= 0 {
		extension = contentType[idx+1:]
	}

	return &httpbody.Body{ContentType: mediatype.ForExtension(extension), Data: raw}, true
}
