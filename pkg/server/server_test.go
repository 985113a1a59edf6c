package server

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/HasinZaman/pipelined-server/pkg/httpparser"
	"github.com/HasinZaman/pipelined-server/pkg/pipeline"
	"github.com/HasinZaman/pipelined-server/pkg/serversettings"
)

func startTestServer(t *testing.T, root string, pipelineCount int) (addr string, srv *Server) {
	t.Helper()

	setting := &serversettings.ServerSetting{
		Address:    "127.0.0.1",
		Port:       0,
		SourceRoot: root,
		Paths: map[string]*serversettings.DomainPath{
			"localhost": {Root: "", Allow: []string{"html"}},
		},
	}
	settings := serversettings.NewSettings(setting)

	cfg := Config{
		PipelineCount: pipelineCount,
		Pipeline: pipeline.Config{
			QueueCapacity: 32,
			Parser: httpparser.Config{
				ReadBufferSize:  4096,
				MaxRequestSize:  1 << 20,
				PacketTimeoutMS: 20,
				ReadTimeoutMS:   2000,
			},
		},
		FileWorkerMaxReads: 4,
	}

	srv = New(cfg, pipeline.NewHandlerSet(), settings, nil)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("unable to bind: %v", err)
	}
	addr = listener.Addr().String()
	listener.Close()

	go srv.Serve(addr)
	time.Sleep(50 * time.Millisecond)
	return addr, srv
}

func TestGetHelloEndToEnd(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "file_1.html"), []byte("hello_world"), 0o644); err != nil {
		t.Fatalf("unable to write fixture: %v", err)
	}

	addr, _ := startTestServer(t, root, 2)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("unable to dial: %v", err)
	}
	defer conn.Close()

	fmt.Fprintf(conn, "GET file_1.html HTTP/1.1\n\rhost:localhost")
	conn.(*net.TCPConn).CloseWrite()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	reader := bufio.NewReader(conn)
	statusLine, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("unable to read response: %v", err)
	}
	if !strings.Contains(statusLine, "200") {
		t.Fatalf("got status line %q, want 200", statusLine)
	}
}

func TestConcurrentGetsAcrossPipelines(t *testing.T) {
	root := t.TempDir()
	content := strings.Repeat("x", 256*1024)
	if err := os.WriteFile(filepath.Join(root, "big.html"), []byte(content), 0o644); err != nil {
		t.Fatalf("unable to write fixture: %v", err)
	}

	addr, _ := startTestServer(t, root, 4)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn, err := net.Dial("tcp", addr)
			if err != nil {
				t.Errorf("unable to dial: %v", err)
				return
			}
			defer conn.Close()

			fmt.Fprintf(conn, "GET big.html HTTP/1.1\n\rhost:localhost")
			conn.(*net.TCPConn).CloseWrite()

			conn.SetReadDeadline(time.Now().Add(5 * time.Second))
			reader := bufio.NewReader(conn)
			statusLine, err := reader.ReadString('\n')
			if err != nil {
				t.Errorf("unable to read response: %v", err)
				return
			}
			if !strings.Contains(statusLine, "200") {
				t.Errorf("got status line %q, want 200", statusLine)
			}
		}()
	}
	wg.Wait()
}
