package transcribe

import (
	"encoding/json"
	"fmt"
)

// sidecarOutput mirrors the engine's wire format. Segment fields are
// pointers so a missing field can be told apart from a zero value.
type sidecarOutput struct {
	Status       string           `json:"status"`
	Segments     []sidecarSegment `json:"segments"`
	ErrorMessage string           `json:"error_message"`
}

type sidecarSegment struct {
	Start     *float64 `json:"start"`
	End       *float64 `json:"end"`
	Text      *string  `json:"text"`
	SpeakerID *string  `json:"speaker_id"`
}

// Decode parses the engine's response into a Transcript. The response is a
// two-variant tagged union; any third shape is a transport error, an
// engine-reported error becomes an EngineError.
func Decode(data []byte) (Transcript, error) {
	var out sidecarOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return Transcript{}, &TransportError{Op: "decode", Err: err}
	}

	switch out.Status {
	case "success":
		segments := make([]Segment, 0, len(out.Segments))
		for i, raw := range out.Segments {
			seg, err := validateSegment(i, raw)
			if err != nil {
				return Transcript{}, &TransportError{Op: "decode", Err: err}
			}
			segments = append(segments, seg)
		}
		return Transcript{Segments: segments}, nil

	case "error":
		return Transcript{}, &EngineError{Message: out.ErrorMessage}

	default:
		return Transcript{}, &TransportError{
			Op:  "decode",
			Err: fmt.Errorf("unknown response status %q", out.Status),
		}
	}
}

func validateSegment(i int, raw sidecarSegment) (Segment, error) {
	if raw.Start == nil || raw.End == nil || raw.Text == nil || raw.SpeakerID == nil {
		return Segment{}, fmt.Errorf("segment %d is missing required fields", i)
	}
	if *raw.Start < 0 {
		return Segment{}, fmt.Errorf("segment %d has negative start %f", i, *raw.Start)
	}
	if *raw.End < *raw.Start {
		return Segment{}, fmt.Errorf("segment %d ends (%f) before it starts (%f)", i, *raw.End, *raw.Start)
	}
	return Segment{
		Start:     *raw.Start,
		End:       *raw.End,
		Text:      *raw.Text,
		SpeakerID: *raw.SpeakerID,
	}, nil
}
