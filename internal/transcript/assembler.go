// Package transcript groups engine segments for presentation and builds the
// flattened corpus handed to the summarizer.
package transcript

import (
	"fmt"
	"strings"

	"github.com/scribelab/scribecapture/internal/transcribe"
)

// DisplayBlock is a run of consecutive segments sharing one speaker. It
// exists for presentation only: the first segment of a block carries the
// visible speaker label, the rest are rendered without one.
type DisplayBlock struct {
	SpeakerID string
	Segments  []transcribe.Segment
}

// Group scans segments in the given order and starts a new block whenever
// the speaker differs from the previous segment's. Input order is
// authoritative; no sorting is performed.
func Group(segments []transcribe.Segment) []DisplayBlock {
	var blocks []DisplayBlock
	for _, seg := range segments {
		n := len(blocks)
		if n == 0 || blocks[n-1].SpeakerID != seg.SpeakerID {
			blocks = append(blocks, DisplayBlock{SpeakerID: seg.SpeakerID})
			n++
		}
		blocks[n-1].Segments = append(blocks[n-1].Segments, seg)
	}
	return blocks
}

// Flatten renders one "[speaker] text" line per segment, joined by
// newlines, in original order. This per-segment form is the summarizer
// input; the grouped labels from Group are never used here.
func Flatten(segments []transcribe.Segment) string {
	lines := make([]string, len(segments))
	for i, seg := range segments {
		lines[i] = fmt.Sprintf("[%s] %s", seg.SpeakerID, seg.Text)
	}
	return strings.Join(lines, "\n")
}

// DisplayFilter drops segments whose text is empty or whitespace-only.
// The unfiltered slice stays the source of truth for corpus purposes.
func DisplayFilter(segments []transcribe.Segment) []transcribe.Segment {
	var kept []transcribe.Segment
	for _, seg := range segments {
		if strings.TrimSpace(seg.Text) != "" {
			kept = append(kept, seg)
		}
	}
	return kept
}
