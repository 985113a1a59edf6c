package pipeline

import "github.com/HasinZaman/pipelined-server/pkg/httpparser"

// Config bundles every per-pipeline construction parameter: queue capacity
// and the parser's dual-timeout parameters. The file worker's concurrency
// cap is configured separately since one worker is shared across pipelines.
type Config struct {
	// QueueCapacity is the bounded capacity Q shared by every queue in the
	// pipeline.
	QueueCapacity int
	// Parser carries the parser stage's tunables.
	Parser httpparser.Config
}

// DefaultConfig returns the suggested parameter set: Q=264, a 5 s per-read
// timeout and a 20 ms inter-packet timeout.
func DefaultConfig() Config {
	return Config{
		QueueCapacity: 264,
		Parser: httpparser.Config{
			ReadBufferSize:  4096,
			MaxRequestSize:  1 << 20,
			PacketTimeoutMS: 20,
			ReadTimeoutMS:   5000,
		},
	}
}
