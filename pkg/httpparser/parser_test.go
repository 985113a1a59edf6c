package httpparser

import (
	"net"
	"testing"
	"time"

	"github.com/HasinZaman/pipelined-server/pkg/httpstatus"
)

func baseConfig() Config {
	return Config{
		ReadBufferSize:  512,
		MaxRequestSize:  1 << 20,
		PacketTimeoutMS: 50,
		ReadTimeoutMS:   2000,
	}
}

// TestParseGetHello covers a well-formed GET request line
// followed by a host header with no trailing blank line.
func TestParseGetHello(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	go func() {
		client.Write([]byte("GET file_1.html HTTP/1.1\n\rhost:localhost"))
		time.Sleep(100 * time.Millisecond)
		client.Close()
	}()

	request, code, isErr := Parse(server, baseConfig())
	if isErr {
		t.Fatalf("unexpected parse error: %v", code)
	}
	if request.Method.Path != "file_1.html" {
		t.Fatalf("got path %q, want %q", request.Method.Path, "file_1.html")
	}
	if host, ok := request.Headers.Get("host"); !ok || host != "localhost" {
		t.Fatalf("got host %q (ok=%v), want localhost", host, ok)
	}
}

// TestParsePayloadTooLarge covers a request whose start line alone exceeds
// MaxRequestSize.
func TestParsePayloadTooLarge(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	go func() {
		client.Write([]byte("GET /aaaaaaaaaaaaaaaaaaaaaaaa HTTP/1.1\n"))
	}()

	cfg := Config{ReadBufferSize: 5, MaxRequestSize: 5, PacketTimeoutMS: 200, ReadTimeoutMS: 2000}
	_, code, isErr := Parse(server, cfg)
	if !isErr || code != httpstatus.PayloadTooLarge {
		t.Fatalf("got isErr=%v code=%v, want PayloadTooLarge", isErr, code)
	}
}

// TestParseMalformedStartLine covers a start line missing the
// HTTP version token.
func TestParseMalformedStartLine(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	go func() {
		client.Write([]byte("GET /index.html"))
		time.Sleep(100 * time.Millisecond)
		client.Close()
	}()

	_, code, isErr := Parse(server, baseConfig())
	if !isErr || code != httpstatus.BadRequest {
		t.Fatalf("got isErr=%v code=%v, want BadRequest", isErr, code)
	}
}

func TestParsePostWithBody(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	go func() {
		client.Write([]byte("POST /upload.json HTTP/1.1\ncontent-type: application/json\ncontent-length: 13\n\n{\"a\": true}\n"))
		time.Sleep(100 * time.Millisecond)
		client.Close()
	}()

	request, code, isErr := Parse(server, baseConfig())
	if isErr {
		t.Fatalf("unexpected parse error: %v", code)
	}
	if request.Method.Body == nil {
		t.Fatal("expected a body to be attached")
	}
}
