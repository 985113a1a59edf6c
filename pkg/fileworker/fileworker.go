// Package fileworker implements the shared file-retrieval worker consulted
// by the action stage's GET handler. It owns every blocking filesystem read
// so that stage workers never block on disk I/O directly, fanning each
// request out to a short-lived reader task under a configurable concurrency
// cap: a long-lived dispatcher goroutine supervises short-lived per-request
// goroutines, much like an accept loop handing each connection to its own
// goroutine.
package fileworker

import (
	"os"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/HasinZaman/pipelined-server/pkg/identifier"
	"github.com/HasinZaman/pipelined-server/pkg/logging"
)

// ErrFileDoesNotExist is returned on Reply when the requested path cannot be
// opened because it does not exist (or any other stat/open failure — the
// worker does not distinguish permission errors from absence, matching the
// action stage's single FileDoesNotExist error kind).
var ErrFileDoesNotExist = errors.New("file does not exist")

// Request is the (path, reply-channel) protocol message sent to a Worker.
// Reply is buffered with capacity one so the reader task never blocks
// sending its single reply.
type Request struct {
	Path  string
	Reply chan Result
}

// NewRequest builds a Request with a ready-to-use, buffered reply channel.
func NewRequest(path string) Request {
	return Request{Path: path, Reply: make(chan Result, 1)}
}

// Result is the single message a reader task ever sends on a Request's
// Reply channel.
type Result struct {
	Data []byte
	Err  error
}

// Worker is the long-lived file-retrieval dispatcher. Its dispatcher
// goroutine must never terminate; its death is a fatal condition only
// observable to clients via a closed Submit channel, which this
// implementation never closes.
type Worker struct {
	logger *logging.Logger

	submit   chan Request
	maxReads int

	mu       sync.Mutex
	cond     *sync.Cond
	inFlight map[*reader]struct{}
	// staged is the one-slot buffer for a request received while every
	// concurrency slot is occupied. dispatch waits on cond rather than
	// overwriting an occupied slot, so no request is ever dropped.
	staged *Request
	active int
}

// reader identifies one in-flight reader task for pruning purposes. label is
// a human-readable tag carried only for log correlation; the map key
// identity that actually matters is the pointer itself.
type reader struct {
	label string
}

// newReaderLabel mints a fresh reader-task label, falling back to a fixed
// marker in the extremely unlikely event the system randomness source is
// unavailable.
func newReaderLabel() string {
	label, err := identifier.New(identifier.PrefixReader)
	if err != nil {
		return identifier.PrefixReader + "_unavailable"
	}
	return label
}

// New constructs a Worker with the given concurrency cap. A cap of zero
// means unbounded concurrency. The dispatcher goroutine is started
// immediately; callers send work with Submit.
func New(maxReads int, logger *logging.Logger) *Worker {
	w := &Worker{
		logger:   logger,
		submit:   make(chan Request, 1),
		maxReads: maxReads,
		inFlight: make(map[*reader]struct{}),
	}
	w.cond = sync.NewCond(&w.mu)
	go w.run()
	return w
}

// Submit sends a request to the worker, blocking until the dispatcher
// accepts it.
func (w *Worker) Submit(request Request) {
	w.submit <- request
}

// TrySubmit attempts to hand a request to the worker without blocking,
// reporting false if the submit channel's single slot is currently
// occupied. The action stage's GET handler retries on false up to a fixed
// attempt count before surfacing FileWorkerUnreachable.
func (w *Worker) TrySubmit(request Request) bool {
	select {
	case w.submit <- request:
		return true
	default:
		return false
	}
}

// run is the dispatcher loop. It never returns. Reader tasks install no
// recover; each performs only a file read and a buffered send, neither of
// which panics under normal operation.
func (w *Worker) run() {
	for request := range w.submit {
		w.dispatch(request)
	}
}

// dispatch either starts a reader task immediately if a concurrency slot is
// free, or stages the request in the one-slot buffer until a slot frees. If
// the buffer is already occupied, dispatch waits for finish to drain it
// rather than overwrite it, so a burst of requests is serialized through the
// single staging slot without ever dropping one.
func (w *Worker) dispatch(request Request) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for w.maxReads > 0 && w.active >= w.maxReads && w.staged != nil {
		w.cond.Wait()
	}

	if w.maxReads > 0 && w.active >= w.maxReads {
		w.staged = &request
		return
	}

	w.active++
	token := &reader{label: newReaderLabel()}
	w.inFlight[token] = struct{}{}
	go w.read(token, request)
}

// read performs the blocking file read and sends exactly one Result on the
// request's reply channel before pruning itself from the in-flight set and
// freeing a slot for any staged request.
func (w *Worker) read(token *reader, request Request) {
	defer w.finish(token)

	data, err := os.ReadFile(request.Path)
	if err != nil {
		w.logger.Debugf("%s: read %q failed: %v", token.label, request.Path, err)
		request.Reply <- Result{Err: ErrFileDoesNotExist}
		return
	}
	w.logger.Debugf("%s: read %q (%s)", token.label, request.Path, humanize.Bytes(uint64(len(data))))
	request.Reply <- Result{Data: data}
}

// finish prunes a completed reader task and, if a request was staged while
// every slot was occupied, promotes it to a new reader task.
func (w *Worker) finish(token *reader) {
	w.mu.Lock()
	delete(w.inFlight, token)
	w.active--

	var promote *Request
	if w.staged != nil {
		promote = w.staged
		w.staged = nil
	}
	w.cond.Broadcast()
	w.mu.Unlock()

	if promote != nil {
		w.dispatch(*promote)
	}
}

// InFlight returns the number of reader tasks currently running, for
// diagnostics and tests.
func (w *Worker) InFlight() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.inFlight)
}
