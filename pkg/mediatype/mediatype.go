// Package mediatype implements the pure ext -> media-type mapping function
// used by the action stage to classify files it serves: a closed,
// case-insensitive lookup table that favors an exhaustive switch over an
// open registry.
package mediatype

import (
	"strings"

	"github.com/HasinZaman/pipelined-server/pkg/httpbody"
)

// ForExtension returns the ContentType for a file extension (without the
// leading dot, matched case-insensitively). Unrecognized extensions map to
// application/octet-stream.
func ForExtension(extension string) httpbody.ContentType {
	switch strings.ToLower(extension) {
	case "html", "htm":
		return httpbody.TextHTML
	case "txt", "md":
		return httpbody.TextPlain
	case "css":
		return httpbody.TextCSS
	case "csv":
		return httpbody.TextCSV
	case "json":
		return httpbody.ApplicationJSON
	case "js", "mjs":
		return httpbody.ApplicationJavascript
	case "pdf":
		return httpbody.ApplicationPDF
	case "png":
		return httpbody.ImagePNG
	case "jpg", "jpeg":
		return httpbody.ImageJPEG
	case "gif":
		return httpbody.ImageGIF
	case "svg":
		return httpbody.ImageSVG
	case "mp3":
		return httpbody.AudioMPEG
	case "mp4":
		return httpbody.VideoMP4
	default:
		return httpbody.ApplicationOctetStream
	}
}

// Extension returns the canonical file extension (without a leading dot,
// lowercase) for a path, or "" if the path has none beyond its final
// component's leading dot (e.g. ".gitignore" has no extension).
func Extension(path string) string {
	slash := strings.LastIndexByte(path, '/')
	name := path
	if slash >= 0 {
		name = path[slash+1:]
	}
	dot := strings.LastIndexByte(name, '.')
	if dot <= 0 {
		return ""
	}
	return strings.ToLower(name[dot+1:])
}
