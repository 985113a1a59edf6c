// Package pipeline's builder constructs stages in sender, compression,
// action, parser order, so that each stage is spawned already holding a
// reference to its successor's (already-built) input queue.
package pipeline

import (
	"github.com/HasinZaman/pipelined-server/pkg/fileworker"
	"github.com/HasinZaman/pipelined-server/pkg/httprequest"
	"github.com/HasinZaman/pipelined-server/pkg/logging"
	"github.com/HasinZaman/pipelined-server/pkg/serversettings"
)

// Build constructs a single pipeline bottom-up and returns its handle. The
// returned Pipeline's Parser component exposes the inbound connection queue
// that the dispatcher pushes accepted connections onto.
func Build(cfg Config, handlers *HandlerSet, settings *serversettings.Settings, files *fileworker.Worker, panicOn func(httprequest.Request) bool, logger *logging.Logger) *Pipeline {
	senderQueue := newQueue(cfg.QueueCapacity)
	sender := NewComponent(senderQueue, NewSenderWorker(logger.Sublogger("sender")), logger)

	compressionQueue := newQueue(cfg.QueueCapacity)
	compression := NewComponent(compressionQueue, NewCompressionWorker(senderQueue, logger.Sublogger("compression")), logger)

	actionQueue := newQueue(cfg.QueueCapacity)
	action := NewComponent(actionQueue, NewActionWorker(compressionQueue, handlers, settings, files, logger.Sublogger("action")), logger)

	parserQueue := newQueue(cfg.QueueCapacity)
	parser := NewComponent(parserQueue, NewParserWorker(actionQueue, cfg.Parser, panicOn, logger.Sublogger("parser")), logger)

	return &Pipeline{
		Parser:      parser,
		Action:      action,
		Compression: compression,
		Sender:      sender,
	}
}
