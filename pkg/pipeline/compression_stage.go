package pipeline

import (
	"strings"

	"github.com/HasinZaman/pipelined-server/pkg/compression"
	"github.com/HasinZaman/pipelined-server/pkg/httprequest"
	"github.com/HasinZaman/pipelined-server/pkg/httpresponse"
	"github.com/HasinZaman/pipelined-server/pkg/logging"
	"github.com/HasinZaman/pipelined-server/pkg/queue"
)

// NewCompressionWorker builds the compression stage worker: it optionally
// compresses the response body according to the request's accept-encoding
// header, then always emits exactly one (connection, bytes) entry to the
// sender queue.
func NewCompressionWorker(output *queue.Queue, logger *logging.Logger) Worker {
	return func(input *queue.Queue) {
		pollLoop(input, func(raw any) {
			item := raw.(compressionItem)
			response := compressBody(item.Request, item.Response, logger)
			tryEnqueue(output, senderItem{Conn: item.Conn, Bytes: response.Serialize()}, func() {
				logger.Warnf("sender queue full, dropping response")
			})
		})
	}
}

// compressBody implements the token-selection algorithm: split
// accept-encoding on commas preserving client order, pick the first token
// matching a known encoder, encode, and set Content-Encoding. Encoder
// failures are logged and treated as "try next token"; if none succeed the
// uncompressed response is returned unchanged.
func compressBody(request *httprequest.Request, response httpresponse.Response, logger *logging.Logger) httpresponse.Response {
	if request == nil || response.Body == nil {
		return response
	}

	acceptEncoding, ok := request.Headers.Get("accept-encoding")
	if !ok {
		return response
	}

	for _, rawToken := range strings.Split(acceptEncoding, ",") {
		token := strings.ToLower(strings.TrimSpace(rawToken))
		encode, known := compression.Lookup(token)
		if !known {
			continue
		}

		encoded, err := encode(response.Body.Data)
		if err != nil {
			logger.Warnf("encoder %q failed: %v", token, err)
			continue
		}

		response.Body.Data = encoded
		response = response.WithHeader("Content-Encoding", token)
		return response
	}

	return response
}
