// Package transcribe sends recorded artifacts to the external transcription
// engine and decodes its strict response contract.
package transcribe

import (
	"fmt"
)

// Segment is one timed, speaker-attributed span of transcribed text.
type Segment struct {
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Text      string  `json:"text"`
	SpeakerID string  `json:"speaker_id"`
}

// Transcript is the ordered sequence of segments returned by the engine.
// Insertion order is display order.
type Transcript struct {
	Segments []Segment `json:"segments"`
}

// EngineError carries an error the engine itself reported through the
// contract's error variant.
type EngineError struct {
	Message string
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("transcription engine reported: %s", e.Message)
}

// TransportError covers everything that is not an engine-reported error:
// process failure, malformed output, an unknown response shape.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transcription %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
