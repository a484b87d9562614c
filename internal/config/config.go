// Package config defines the per-session transcription parameters and the
// server's startup configuration, and carries their documented defaults.
package config

import "runtime"

// Params is the immutable-after-construction, per-session configuration. A
// Session Core computes its derived constants (N_STEP, N_LEN, N_KEEP,
// N_MAX) from Params and the engine's sample rate once, at construction.
type Params struct {
	StepMs      int
	LengthMs    int
	KeepMs      int
	MaxTokens   int
	AudioCtx    int
	BeamSize    int // -1 means greedy sampling
	Translate   bool
	NoContext   bool
	NoTimestamps bool
	TinyDiarize bool
	Language    string
	Threads     int
	NoFallback  bool
}

// DefaultParams returns the streaming defaults whisper.cpp's stream binary
// ships with: a 3s step, a 10s window, and 200ms of retained overlap.
func DefaultParams() Params {
	return Params{
		StepMs:       3000,
		LengthMs:     10000,
		KeepMs:       200,
		MaxTokens:    32,
		AudioCtx:     0,
		BeamSize:     -1,
		Translate:    false,
		NoContext:    true,
		NoTimestamps: false,
		TinyDiarize:  false,
		Language:     "en",
		Threads:      defaultThreads(),
		NoFallback:   false,
	}
}

func defaultThreads() int {
	n := runtime.NumCPU()
	if n > 4 {
		return 4
	}
	if n < 1 {
		return 1
	}
	return n
}

// Greedy reports whether the sampling strategy is greedy decoding: beam
// search only kicks in once BeamSize is set above 1.
func (p Params) Greedy() bool {
	return p.BeamSize <= 1
}

// ServerConfig holds the CLI surface and the recognizer wiring that stands
// in for the original stream binary's model-loading step: a deployment
// either points RecognizerURL at an out-of-process recognizer, or leaves it
// empty to fall back to the stub engine.
type ServerConfig struct {
	Port          int
	Host          string
	Model         string
	NoGPU         bool
	RecognizerURL string
	SampleRate    int
}

// DefaultServerConfig returns the gateway's out-of-the-box listen address,
// model path, and recognizer wiring.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:       8081,
		Host:       "127.0.0.1",
		Model:      "models/ggml-base.en.bin",
		NoGPU:      false,
		SampleRate: 16000,
	}
}
