// Package engine defines the narrow adapter interface over the external
// speech recognizer. The recognizer itself — model loading, the inference
// math — is an out-of-process collaborator; this package only shapes the
// boundary Session Core talks to.
package engine

import "context"

// Segment is one piece of recognized text with its timing and token ids, as
// returned by the recognizer for a single transcribe call.
type Segment struct {
	// Start and End are offsets into the submitted window, in milliseconds.
	Start int64
	End   int64
	Text  string
	// Tokens are the recognizer's internal token ids for this segment, used
	// to build the next call's prompt when context is enabled.
	Tokens []int32
	// SpeakerTurn flags that the recognizer detected a speaker change at the
	// end of this segment (tinydiarize).
	SpeakerTurn bool
}

// Options is the flat options record the Session Core builds from
// config.Params for a single transcribe call.
type Options struct {
	Language      string
	Translate     bool
	MaxTokens     int
	Threads       int
	AudioCtx      int
	Diarize       bool
	Greedy        bool
	BeamSize      int
	NoFallback    bool
	SingleSegment bool
	// PromptTokens is nil when context is disabled (NoContext).
	PromptTokens []int32
}

// Result is the outcome of one transcribe call.
type Result struct {
	Segments []Segment
}

// Engine is the one operation the Session Core needs from the recognizer:
// transcribe(samples, prompt_tokens, options) -> (text_segments,
// produced_tokens). It is synchronous and may block for hundreds of
// milliseconds; callers must not hold any lock they also need for
// push_audio while calling it.
type Engine interface {
	Transcribe(ctx context.Context, samples []float32, opts Options) (Result, error)
	// SampleRate reports the sample rate, in Hz, this engine expects its
	// input to be in. The server loop advertises this in the "connected"
	// welcome message.
	SampleRate() int
	// Close releases any resources held by the engine (connections,
	// subprocess handles). Safe to call more than once.
	Close() error
}
