package pipeline

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/HasinZaman/pipelined-server/pkg/fileworker"
	"github.com/HasinZaman/pipelined-server/pkg/httpbody"
	"github.com/HasinZaman/pipelined-server/pkg/httpmethod"
	"github.com/HasinZaman/pipelined-server/pkg/httprequest"
	"github.com/HasinZaman/pipelined-server/pkg/httpresponse"
	"github.com/HasinZaman/pipelined-server/pkg/httpstatus"
	"github.com/HasinZaman/pipelined-server/pkg/logging"
	"github.com/HasinZaman/pipelined-server/pkg/mediatype"
	"github.com/HasinZaman/pipelined-server/pkg/queue"
	"github.com/HasinZaman/pipelined-server/pkg/serversettings"
)

// Handler produces a Response for a successfully parsed request, given a
// snapshot of the server's configuration and a handle to the shared file
// worker. Consumers may override any handler in a HandlerSet.
type Handler func(request httprequest.Request, settings *serversettings.ServerSetting, files *fileworker.Worker, logger *logging.Logger) httpresponse.Response

// HandlerSet maps each method kind to the handler invoked for it. Unset
// entries fall back to methodNotAllowed.
type HandlerSet struct {
	handlers map[httpmethod.Kind]Handler
}

// NewHandlerSet builds the built-in dispatch table: GET is served by the
// file-serving handler; every other method defaults to MethodNotAllowed,
// overridable via Set.
func NewHandlerSet() *HandlerSet {
	hs := &HandlerSet{handlers: map[httpmethod.Kind]Handler{}}
	hs.handlers[httpmethod.Get] = handleGet
	return hs
}

// Set overrides the handler used for a method kind.
func (hs *HandlerSet) Set(kind httpmethod.Kind, handler Handler) {
	hs.handlers[kind] = handler
}

func (hs *HandlerSet) dispatch(kind httpmethod.Kind) Handler {
	if handler, ok := hs.handlers[kind]; ok {
		return handler
	}
	return methodNotAllowed
}

func methodNotAllowed(_ httprequest.Request, _ *serversettings.ServerSetting, _ *fileworker.Worker, _ *logging.Logger) httpresponse.Response {
	return errorPage(httpstatus.MethodNotAllowed)
}

// fileWorkerRetries is the number of times the GET handler retries
// submitting a request to the file worker before giving up with
// InternalServerError.
const fileWorkerRetries = 5

// handleGet implements the GET handler: resolve host and path, stat and
// extension-check the target, fetch its bytes from the file worker, and
// wrap them in a 200 response.
func handleGet(request httprequest.Request, settings *serversettings.ServerSetting, files *fileworker.Worker, logger *logging.Logger) httpresponse.Response {
	host, ok := request.Headers.Get("host")
	if !ok || host == "" {
		return errorPage(httpstatus.ImATeapot)
	}

	domain, ok := settings.Lookup(host)
	if !ok {
		return errorPage(httpstatus.Forbidden)
	}

	target := sanitizeTarget(request.Method.Target())
	filePath := path.Join(settings.SourceRoot, domain.Root, target)
	if path.Ext(filePath) == "" {
		filePath = path.Join(filePath, "index.html")
	}

	extension := mediatype.Extension(filePath)
	if _, err := os.Stat(filePath); err != nil {
		return errorPage(httpstatus.NotFound)
	}
	if !domain.AllowsExtension(extension) {
		return errorPage(httpstatus.Forbidden)
	}

	fileRequest := fileworker.NewRequest(filePath)
	if !submitWithRetry(files, fileRequest, fileWorkerRetries) {
		return errorPage(httpstatus.InternalServerError)
	}

	result := <-fileRequest.Reply
	if result.Err != nil {
		return errorPage(httpstatus.NotFound)
	}

	return httpresponse.New(httpstatus.OK).WithBody(httpbody.Body{
		ContentType: mediatype.ForExtension(extension),
		Data:        result.Data,
	})
}

// submitWithRetry attempts a non-blocking handoff to the file worker up to
// attempts times before the caller falls back to InternalServerError.
func submitWithRetry(files *fileworker.Worker, request fileworker.Request, attempts int) bool {
	if files == nil {
		return false
	}
	for i := 0; i < attempts; i++ {
		if files.TrySubmit(request) {
			return true
		}
	}
	return false
}

// sanitizeTarget strips leading '/' and '\' repeatedly and truncates at the
// first '?'. Directory traversal via ".." is intentionally not filtered
// here; a deployment exposed to untrusted clients should add that check.
func sanitizeTarget(target string) string {
	if idx := strings.IndexByte(target, '?'); idx >= 0 {
		target = target[:idx]
	}
	return strings.TrimLeft(target, `/\`)
}

// errorPage builds the standard error response: a text/html body of the
// form "<H1>{status text}</H1>" with the given status.
func errorPage(status httpstatus.Code) httpresponse.Response {
	body := fmt.Sprintf("<H1>%s</H1>", status.Reason())
	return httpresponse.New(status).WithBody(httpbody.Body{
		ContentType: httpbody.TextHTML,
		Data:        []byte(body),
	})
}

// safeErrorPage is the panic-proof fallback the action stage substitutes
// when errorPage itself panics: a minimal (status, empty headers, no body)
// response, guaranteeing the connection is always answered.
func safeErrorPage(status httpstatus.Code) (response httpresponse.Response) {
	defer func() {
		if recover() != nil {
			response = httpresponse.New(status)
		}
	}()
	return errorPage(status)
}

// NewActionWorker builds the action stage worker: for each
// (connection, parse-outcome) it dispatches to a handler, producing a
// Response that is forwarded to the compression queue.
func NewActionWorker(output *queue.Queue, handlers *HandlerSet, settings *serversettings.Settings, files *fileworker.Worker, logger *logging.Logger) Worker {
	return func(input *queue.Queue) {
		pollLoop(input, func(raw any) {
			item := raw.(actionItem)

			var response httpresponse.Response
			var requestRef *httprequest.Request

			if item.Outcome.Err {
				response = safeErrorPage(item.Outcome.Code)
			} else {
				request := item.Outcome.Request
				requestRef = &request
				response = dispatchSafely(handlers, request, settings.Snapshot(), files, logger)
			}

			tryEnqueue(output, compressionItem{Conn: item.Conn, Response: response, Request: requestRef}, func() {
				logger.Warnf("compression queue full, dropping response")
			})
		})
	}
}

// dispatchSafely invokes the method handler, substituting a safe error page
// if the handler panics, so the action stage itself is panic-free from the
// pipeline's perspective even when a user-supplied handler is buggy.
func dispatchSafely(handlers *HandlerSet, request httprequest.Request, settings *serversettings.ServerSetting, files *fileworker.Worker, logger *logging.Logger) (response httpresponse.Response) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("handler panicked: %v", r)
			response = safeErrorPage(httpstatus.InternalServerError)
		}
	}()
	return handlers.dispatch(request.Method.Kind)(request, settings, files, logger)
}
