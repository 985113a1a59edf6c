package pipeline

import (
	"net"

	"github.com/HasinZaman/pipelined-server/pkg/queue"
)

// Pipeline owns the four stage components in their declared order. The
// output queue of stage k is, by construction, the same reference as the
// input queue of stage k+1.
type Pipeline struct {
	Parser      *Component
	Action      *Component
	Compression *Component
	Sender      *Component
}

// Healthy reports whether every component in the pipeline is healthy.
func (p *Pipeline) Healthy() bool {
	return p.Parser.Healthy() && p.Action.Healthy() && p.Compression.Healthy() && p.Sender.Healthy()
}

// Submit hands a newly accepted connection to the pipeline's inbound
// (parser) queue. It returns false if the queue could not accept the
// connection (contended lock or full queue), matching the dispatcher's
// "send failures are fatal for that connection" policy.
func (p *Pipeline) Submit(conn net.Conn) bool {
	return p.Parser.Input().TryPushBack(connectionItem{Conn: conn}) == nil
}

// components returns the four components in build order, used by the
// recovery loop to inspect and respawn them uniformly.
func (p *Pipeline) components() [4]*Component {
	return [4]*Component{p.Parser, p.Action, p.Compression, p.Sender}
}

// newQueue is a small helper so every stage boundary is sized consistently
// from a single capacity parameter.
func newQueue(capacity int) *queue.Queue {
	return queue.New(capacity)
}
