package compression

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

// sample is a 96-byte plain-text body used to exercise every encoder.
const sample = "The quick brown fox jumps over the lazy dog. The quick brown fox jumps over the lazy dog again!!"

func TestLookupKnownEncodings(t *testing.T) {
	for _, name := range []string{"gzip", "deflate", "zlib"} {
		if _, ok := Lookup(name); !ok {
			t.Fatalf("expected %q to be a known encoding", name)
		}
	}
}

func TestLookupUnknownEncoding(t *testing.T) {
	if _, ok := Lookup("br"); ok {
		t.Fatal("expected br to be unknown")
	}
	if _, ok := Lookup(""); ok {
		t.Fatal("expected empty token to be unknown")
	}
}

func TestRoundTrip(t *testing.T) {
	body := []byte(strings.Repeat(sample, 1))
	for _, name := range []Name{Gzip, Deflate, Zlib} {
		name := name
		t.Run(string(name), func(t *testing.T) {
			encode, ok := Lookup(string(name))
			if !ok {
				t.Fatalf("missing encoder for %s", name)
			}
			encoded, err := encode(body)
			if err != nil {
				t.Fatalf("encode failed: %v", err)
			}
			if bytes.Equal(encoded, body) {
				t.Fatal("encoded output should differ from input for compressible text")
			}

			reader, err := NewDecompressingReader(name, bytes.NewReader(encoded))
			if err != nil {
				t.Fatalf("unable to create decompressing reader: %v", err)
			}
			decoded, err := io.ReadAll(reader)
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if !bytes.Equal(decoded, body) {
				t.Fatalf("round trip mismatch: got %q, want %q", decoded, body)
			}
		})
	}
}

func TestNewDecompressingReaderUnknownEncoding(t *testing.T) {
	if _, err := NewDecompressingReader(Name("br"), bytes.NewReader(nil)); err == nil {
		t.Fatal("expected an error for an unknown encoding name")
	}
}
