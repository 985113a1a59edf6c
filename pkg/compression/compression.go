// Package compression implements the response-body encoders exercised by
// the compression stage: a closed three-encoder registry ({gzip, deflate,
// zlib}) selected by the first matching Accept-Encoding token, backed by
// github.com/klauspost/compress for a drop-in, faster replacement of the
// stdlib compress/* implementations.
package compression

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"
)

const (
	// defaultCompressionLevel is the default compression level to use for
	// writers.
	defaultCompressionLevel = 6
)

// Name is one of the known Content-Encoding tokens this server can produce.
type Name string

const (
	Gzip    Name = "gzip"
	Deflate Name = "deflate"
	Zlib    Name = "zlib"
)

// encoders is the closed registry of known encoders. It is a map, so it has
// no order of its own; selection order is driven by the client's
// Accept-Encoding token order (see the compression stage).
var encoders = map[Name]func([]byte) ([]byte, error){
	Gzip:    encodeGzip,
	Deflate: encodeDeflate,
	Zlib:    encodeZlib,
}

// Lookup returns the encoder function for a known encoding name, matched
// case-insensitively by the caller (the compression stage lowercases
// Accept-Encoding tokens before calling Lookup). Unknown tokens are skipped
// by returning ok=false, per the compression stage's algorithm.
func Lookup(name string) (func([]byte) ([]byte, error), bool) {
	fn, ok := encoders[Name(name)]
	return fn, ok
}

func encodeGzip(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer, err := gzip.NewWriterLevel(&buf, defaultCompressionLevel)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create gzip writer")
	}
	if _, err := writer.Write(body); err != nil {
		return nil, errors.Wrap(err, "unable to write gzip body")
	}
	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, "unable to close gzip writer")
	}
	return buf.Bytes(), nil
}

func encodeDeflate(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer, err := flate.NewWriter(&buf, defaultCompressionLevel)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create deflate writer")
	}
	if _, err := writer.Write(body); err != nil {
		return nil, errors.Wrap(err, "unable to write deflate body")
	}
	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, "unable to close deflate writer")
	}
	return buf.Bytes(), nil
}

func encodeZlib(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer, err := zlib.NewWriterLevel(&buf, defaultCompressionLevel)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create zlib writer")
	}
	if _, err := writer.Write(body); err != nil {
		return nil, errors.Wrap(err, "unable to write zlib body")
	}
	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, "unable to close zlib writer")
	}
	return buf.Bytes(), nil
}

// NewDecompressingReader wraps an io.Reader in a decompressor for the named
// encoding. It is used by tests to verify the round-trip invariant and is
// not exercised on the server's hot path.
func NewDecompressingReader(name Name, source io.Reader) (io.Reader, error) {
	switch name {
	case Gzip:
		return gzip.NewReader(source)
	case Deflate:
		return flate.NewReader(source), nil
	case Zlib:
		return zlib.NewReader(source)
	default:
		return nil, errors.Errorf("unknown encoding %q", name)
	}
}
