package engine

import (
	"context"
	"fmt"
)

// StubEngine produces deterministic, placeholder transcripts without
// invoking any real recognizer. It is the default engine when no recognizer
// endpoint is configured.
type StubEngine struct {
	sampleRate int
	calls      int
}

// NewStubEngine returns an Engine that reports sampleRate and manufactures a
// transcript that grows with each call, so incremental-extraction logic has
// something non-trivial to diff against in tests and demos.
func NewStubEngine(sampleRate int) *StubEngine {
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	return &StubEngine{sampleRate: sampleRate}
}

func (e *StubEngine) SampleRate() int { return e.sampleRate }

func (e *StubEngine) Close() error { return nil }

func (e *StubEngine) Transcribe(ctx context.Context, samples []float32, opts Options) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if len(samples) == 0 {
		return Result{}, nil
	}
	e.calls++
	text := fmt.Sprintf("stub segment %d (%d samples)", e.calls, len(samples))
	seg := Segment{
		Start:       0,
		End:         int64(len(samples)) * 1000 / int64(e.sampleRate),
		Text:        text,
		Tokens:      []int32{int32(e.calls)},
		SpeakerTurn: false,
	}
	return Result{Segments: []Segment{seg}}, nil
}
