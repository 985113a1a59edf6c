// Package server implements the dispatcher: it binds the listening socket,
// maintains the fixed set of pipelines, round-robin assigns accepted
// connections to them, and runs the recovery loop alongside.
package server

import (
	"fmt"
	"net"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/HasinZaman/pipelined-server/pkg/fileworker"
	"github.com/HasinZaman/pipelined-server/pkg/logging"
	"github.com/HasinZaman/pipelined-server/pkg/must"
	"github.com/HasinZaman/pipelined-server/pkg/pipeline"
	"github.com/HasinZaman/pipelined-server/pkg/serversettings"
)

// Config bundles the server-level parameters: how many pipelines to run,
// each pipeline's own configuration, and the shared file worker's
// concurrency cap.
type Config struct {
	PipelineCount      int
	Pipeline           pipeline.Config
	FileWorkerMaxReads int
}

// Server owns the listening socket, the fixed set of pipelines, and the
// shared file worker consulted by every pipeline's action stage.
type Server struct {
	logger    *logging.Logger
	settings  *serversettings.Settings
	pipelines []*pipeline.Pipeline
	files     *fileworker.Worker
	next      atomic.Uint64
	cfg       Config

	// instance identifies this running process in logs, distinct from any
	// per-connection correlation identifier.
	instance string
}

// New builds a Server with PipelineCount pipelines, a shared HandlerSet, and
// a shared file worker. It does not yet listen; call Serve to bind and
// accept.
func New(cfg Config, handlers *pipeline.HandlerSet, settings *serversettings.Settings, logger *logging.Logger) *Server {
	files := fileworker.New(cfg.FileWorkerMaxReads, logger.Sublogger("fileworker"))

	pipelines := make([]*pipeline.Pipeline, cfg.PipelineCount)
	for i := range pipelines {
		pipelines[i] = pipeline.Build(cfg.Pipeline, handlers, settings, files, nil, logger.Sublogger(fmt.Sprintf("pipeline.%d", i)))
	}

	return &Server{
		logger:    logger,
		settings:  settings,
		pipelines: pipelines,
		files:     files,
		cfg:       cfg,
		instance:  uuid.NewString(),
	}
}

// Serve binds a TCP listener on address, starts the recovery loop, and runs
// the accept loop. It returns only if binding fails; once listening, it
// loops forever. Accept errors are logged and the loop continues; the
// listener is never torn down by this function.
func (s *Server) Serve(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	defer must.Close(listener, s.logger)

	go pipeline.RunRecovery(s.pipelines, s.logger.Sublogger("recovery"))

	s.logger.Infof(
		"instance %s listening on %s (%d pipelines, %s max request size)",
		s.instance, address, len(s.pipelines), humanize.Bytes(uint64(s.cfg.Pipeline.Parser.MaxRequestSize)),
	)
	for {
		conn, err := listener.Accept()
		if err != nil {
			s.logger.Warnf("accept failed: %v", err)
			continue
		}
		s.dispatch(conn)
	}
}

// dispatch assigns an accepted connection to a pipeline by round-robin
// index. A submit failure is treated as fatal for that connection: it is
// dropped.
func (s *Server) dispatch(conn net.Conn) {
	id := uuid.NewString()

	index := s.next.Add(1) % uint64(len(s.pipelines))
	if !s.pipelines[index].Submit(conn) {
		s.logger.Warnf("%s: pipeline %d unavailable, dropping connection", id, index)
		must.Close(conn, s.logger)
		return
	}
	s.logger.Debugf("%s: assigned to pipeline %d", id, index)
}

// Healthy reports whether every pipeline is currently healthy, for
// diagnostics and tests.
func (s *Server) Healthy() bool {
	for _, p := range s.pipelines {
		if !p.Healthy() {
			return false
		}
	}
	return true
}
