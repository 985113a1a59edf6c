package pipeline

import (
	"bufio"
	"net"

	"github.com/HasinZaman/pipelined-server/pkg/logging"
	"github.com/HasinZaman/pipelined-server/pkg/must"
	"github.com/HasinZaman/pipelined-server/pkg/queue"
	"github.com/HasinZaman/pipelined-server/pkg/stream"
)

// NewSenderWorker builds the terminal sender stage worker: it writes the
// byte sequence to the connection, flushes, and closes the connection. Both
// the write and the flush are best-effort; on error the connection is
// dropped. The stage never touches the Response or Request again.
func NewSenderWorker(logger *logging.Logger) Worker {
	return func(input *queue.Queue) {
		pollLoop(input, func(raw any) {
			item := raw.(senderItem)
			send(item.Conn, item.Bytes, logger)
		})
	}
}

// send writes payload through a buffered writer, then closes the flusher and
// the connection together: the flush-as-close wrapper guarantees buffered
// bytes reach the wire before the socket itself is torn down, even though
// must.Close treats both failures identically (a logged warning).
func send(conn net.Conn, payload []byte, logger *logging.Logger) {
	writer := bufio.NewWriter(conn)
	must.WriteString(writer, string(payload), logger)

	closer := stream.NewMultiCloser(stream.NewFlushCloser(writer), conn)
	must.Close(closer, logger)
}
