package pipeline

import (
	"github.com/HasinZaman/pipelined-server/pkg/httprequest"

	"github.com/HasinZaman/pipelined-server/pkg/httpparser"
	"github.com/HasinZaman/pipelined-server/pkg/logging"
	"github.com/HasinZaman/pipelined-server/pkg/queue"
)

// NewParserWorker builds the parser stage worker: for
// each received connection it runs the request parser and enqueues exactly
// one entry on the action queue. panicOn, if non-nil, is consulted after a
// successful parse and is used exclusively by recovery tests to simulate a
// stage crashing partway through a stream of requests; it is nil in
// production.
func NewParserWorker(output *queue.Queue, cfg httpparser.Config, panicOn func(httprequest.Request) bool, logger *logging.Logger) Worker {
	return func(input *queue.Queue) {
		pollLoop(input, func(raw any) {
			item := raw.(connectionItem)

			request, code, isErr := httpparser.Parse(item.Conn, cfg)

			if !isErr && panicOn != nil && panicOn(request) {
				panic("simulated parser failure")
			}

			var outcome ParseOutcome
			if isErr {
				outcome = Failed(code)
			} else {
				outcome = Ok(request)
			}

			tryEnqueue(output, actionItem{Conn: item.Conn, Outcome: outcome}, func() {
				logger.Warnf("action queue full, dropping connection")
			})
		})
	}
}
