package audio

import (
	"log/slog"
	"strings"
)

// Format describes one capture encoding: the MIME type advertised to the
// rest of the pipeline, the container muxer the backend records with, and
// the file extension the artifact is saved under.
type Format struct {
	MIME  string `json:"mime"`
	Muxer string `json:"muxer"`
	Ext   string `json:"ext"`
}

var knownFormats = []Format{
	{MIME: "audio/mp4", Muxer: "mp4", Ext: ".m4a"},
	{MIME: "audio/webm", Muxer: "webm", Ext: ".webm"},
	{MIME: "audio/ogg", Muxer: "ogg", Ext: ".ogg"},
	{MIME: "audio/wav", Muxer: "wav", Ext: ".wav"},
}

// DefaultFormatPreference is the order formats are tried during negotiation.
var DefaultFormatPreference = []string{"audio/mp4", "audio/webm", "audio/ogg"}

// FormatForMIME looks up a known format by MIME type. Parameters after a
// semicolon (e.g. "audio/webm;codecs=opus") are ignored for the lookup.
func FormatForMIME(mime string) (Format, bool) {
	base := strings.TrimSpace(strings.SplitN(mime, ";", 2)[0])
	for _, f := range knownFormats {
		if f.MIME == base {
			return f, true
		}
	}
	return Format{}, false
}

// KnownExtension reports whether ext (including the dot) is a capture
// artifact extension. Sidecar files written next to an artifact, such as
// transcripts, carry other extensions.
func KnownExtension(ext string) bool {
	for _, f := range knownFormats {
		if f.Ext == ext {
			return true
		}
	}
	return false
}

// Negotiate picks the first format from prefs that the backend supports.
// Unknown MIME types in prefs are skipped. If nothing matches, the
// backend's default format is used.
func Negotiate(b Backend, prefs []string) Format {
	for _, mime := range prefs {
		f, ok := FormatForMIME(mime)
		if !ok {
			slog.Debug("Skipping unknown capture format", "mime", mime)
			continue
		}
		if b.Supports(f) {
			slog.Debug("Negotiated capture format", "mime", f.MIME, "ext", f.Ext)
			return f
		}
	}
	def := b.DefaultFormat()
	slog.Debug("No preferred capture format supported, using backend default", "mime", def.MIME)
	return def
}
