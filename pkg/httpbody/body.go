// Package httpbody defines the Body value type and its closed ContentType
// enumeration, as carried by requests and responses.
package httpbody

// TopLevelType is the closed enumeration of top-level media types this
// server classifies bodies into.
type TopLevelType int

const (
	Application TopLevelType = iota
	Audio
	Image
	Multipart
	Text
	Video
)

// String returns the wire representation of the top-level type.
func (t TopLevelType) String() string {
	switch t {
	case Application:
		return "application"
	case Audio:
		return "audio"
	case Image:
		return "image"
	case Multipart:
		return "multipart"
	case Text:
		return "text"
	case Video:
		return "video"
	default:
		return "application"
	}
}

// ContentType is a tagged variant over the top-level media types, each
// carrying a fixed subtype drawn from that type's subtype enumeration. The
// zero value is application/octet-stream.
type ContentType struct {
	Top     TopLevelType
	Subtype string
}

// String returns the "top/subtype" media type string.
func (c ContentType) String() string {
	if c.Subtype == "" {
		return c.Top.String() + "/octet-stream"
	}
	return c.Top.String() + "/" + c.Subtype
}

// Common content types used by the file-serving action handler and the
// error-page handler.
var (
	TextHTML       = ContentType{Top: Text, Subtype: "html"}
	TextPlain      = ContentType{Top: Text, Subtype: "plain"}
	TextCSS        = ContentType{Top: Text, Subtype: "css"}
	TextCSV        = ContentType{Top: Text, Subtype: "csv"}
	ApplicationOctetStream = ContentType{Top: Application, Subtype: "octet-stream"}
	ApplicationJSON        = ContentType{Top: Application, Subtype: "json"}
	ApplicationJavascript  = ContentType{Top: Application, Subtype: "javascript"}
	ApplicationPDF         = ContentType{Top: Application, Subtype: "pdf"}
	ImagePNG  = ContentType{Top: Image, Subtype: "png"}
	ImageJPEG = ContentType{Top: Image, Subtype: "jpeg"}
	ImageGIF  = ContentType{Top: Image, Subtype: "gif"}
	ImageSVG  = ContentType{Top: Image, Subtype: "svg+xml"}
	AudioMPEG = ContentType{Top: Audio, Subtype: "mpeg"}
	VideoMP4  = ContentType{Top: Video, Subtype: "mp4"}
	// MultipartFormData does not capture its boundary parameter.
	MultipartFormData = ContentType{Top: Multipart, Subtype: "form-data"}
)

// Body pairs a ContentType classification with the raw bytes it describes.
type Body struct {
	ContentType ContentType
	Data        []byte
}
