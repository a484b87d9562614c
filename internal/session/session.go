// Package session implements the per-connection streaming transcription
// engine. It owns the audio ring buffer, the retained overlap tail, the
// prompt-token history, the last-emitted transcription, and the scheduling
// clock, and decides when enough audio has accumulated to warrant an
// inference pass.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/machanirobotics-labs/sttgateway/internal/config"
	"github.com/machanirobotics-labs/sttgateway/internal/engine"
	"github.com/machanirobotics-labs/sttgateway/internal/logging"
)

// Session is one client's streaming transcription state. buffer, tail, and
// lastRunAt are guarded by mu, which is held during window assembly but
// released before the engine call; promptTokens and lastEmission are only
// touched by the inference path (drainCommon / Flush / Reset run serially
// per session) and need no separate lock.
type Session struct {
	mu     sync.Mutex
	buffer []float32
	tail   []float32

	promptTokens []int32
	lastEmission string
	lastRunAt    time.Time
	iteration    uint64

	params   config.Params
	userID   uint64
	eng      engine.Engine
	sampleRate int

	nStep int
	nLen  int
	nKeep int
	nMax  int

	now func() time.Time
}

// New constructs a Session Core for one connection, computing the derived
// window-sizing constants from params and the engine's sample rate.
func New(userID uint64, params config.Params, eng engine.Engine) *Session {
	sr := eng.SampleRate()
	s := &Session{
		params:     params,
		userID:     userID,
		eng:        eng,
		sampleRate: sr,
		now:        time.Now,
	}
	s.recomputeConstants()
	s.lastRunAt = s.now()
	return s
}

func (s *Session) recomputeConstants() {
	s.nStep = msToSamples(s.params.StepMs, s.sampleRate)
	s.nLen = msToSamples(s.params.LengthMs, s.sampleRate)
	s.nKeep = msToSamples(s.params.KeepMs, s.sampleRate)
	s.nMax = 2 * s.nLen
}

func msToSamples(ms, sampleRate int) int {
	return ms * sampleRate / 1000
}

// UserID returns the identifier assigned to this session at accept time.
func (s *Session) UserID() uint64 { return s.userID }

// PushAudio appends float samples in [-1, 1] to buffer. If the buffer grows
// past its hard cap, samples are discarded from the front until it is back
// within bound. No inference is triggered here.
func (s *Session) PushAudio(samples []float32) {
	if len(samples) == 0 {
		return
	}
	s.mu.Lock()
	s.buffer = append(s.buffer, samples...)
	if over := len(s.buffer) - s.nMax; over > 0 {
		logging.Warnw("session: buffer over cap, dropping oldest samples",
			"user_id", s.UserID(), "dropped", over)
		s.buffer = s.buffer[over:]
	}
	s.mu.Unlock()
}

// PushAudioInt16 normalizes little-endian-decoded int16 PCM to float32 by
// dividing by 32768, then appends it exactly as PushAudio would.
func (s *Session) PushAudioInt16(samples []int16) {
	if len(samples) == 0 {
		return
	}
	floats := make([]float32, len(samples))
	for i, v := range samples {
		floats[i] = float32(v) / 32768.0
	}
	s.PushAudio(floats)
}

// DrainIfReady invokes the recognizer and returns an incremental transcript
// if the readiness predicate holds: enough new audio has accumulated and
// enough wall-clock time has passed since the last pass. Returns an empty
// string, with no error, both when not ready and when the engine call
// fails — an engine error never closes the session, it just produces no
// text for this pass.
func (s *Session) DrainIfReady(ctx context.Context) (string, error) {
	window, _, ready := s.prepareIfReady()
	if !ready {
		return "", nil
	}
	return s.drainCommon(ctx, window)
}

// prepareIfReady checks the readiness predicate and, if it holds, assembles
// the window and advances buffer/tail/lastRunAt under mu. It returns the
// assembled window and whether a pass should run.
func (s *Session) prepareIfReady() (window []float32, nNew int, ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.buffer) < s.nStep {
		return nil, 0, false
	}
	if s.now().Sub(s.lastRunAt) < time.Duration(s.params.StepMs)*time.Millisecond {
		return nil, 0, false
	}

	n := len(s.buffer)
	if n > s.nStep {
		n = s.nStep
	}

	win, _ := assembleWindow(s.tail, s.buffer, n, s.nKeep, s.nLen)
	s.tail = win
	s.buffer = s.buffer[n:]
	s.lastRunAt = s.now()

	return win, n, true
}

// drainCommon runs the engine over window (outside the buffer lock),
// formats its segments, updates promptTokens/lastEmission, bumps iteration,
// and returns the incremental delta. On engine error it returns an empty
// delta without touching promptTokens or lastEmission — the pass still
// consumed its input, it just produced nothing to emit.
func (s *Session) drainCommon(ctx context.Context, window []float32) (string, error) {
	opts := s.buildOptions()
	start := s.now()

	result, err := s.eng.Transcribe(ctx, window, opts)
	if err != nil {
		logging.Warnw("session: engine transcribe failed", "user_id", s.UserID(), "err", err)
		return "", nil
	}

	formatted := formatTranscript(result.Segments, !s.params.NoTimestamps, s.params.TinyDiarize)

	if !s.params.NoContext && len(result.Segments) > 0 {
		s.promptTokens = concatTokens(result.Segments)
	}

	delta := computeDelta(formatted, s.lastEmission)
	s.lastEmission = formatted
	s.iteration++

	logging.Debugw("session: inference pass complete",
		"user_id", s.UserID(), "iteration", s.Iteration(),
		"latency_ms", s.now().Sub(start).Milliseconds(), "segments", len(result.Segments))

	return delta, nil
}

// Flush submits every remaining sample regardless of readiness, then clears
// buffer and tail. If buffer is empty, it returns empty string and performs
// no work. Unlike Reset, Flush leaves promptTokens untouched: a client that
// flushes without resetting carries its context into the next stream.
func (s *Session) Flush(ctx context.Context) (string, error) {
	window, ready := s.prepareFlush()
	if !ready {
		return "", nil
	}
	return s.drainCommon(ctx, window)
}

func (s *Session) prepareFlush() (window []float32, ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.buffer) == 0 {
		return nil, false
	}

	n := len(s.buffer)
	win, _ := assembleWindow(s.tail, s.buffer, n, s.nKeep, s.nLen)
	s.buffer = nil
	s.tail = nil
	s.lastRunAt = s.now()

	return win, true
}

func (s *Session) buildOptions() engine.Options {
	return engine.Options{
		Language:      s.params.Language,
		Translate:     s.params.Translate,
		MaxTokens:     s.params.MaxTokens,
		Threads:       s.params.Threads,
		AudioCtx:      s.params.AudioCtx,
		Diarize:       s.params.TinyDiarize,
		Greedy:        s.params.Greedy(),
		BeamSize:      s.params.BeamSize,
		NoFallback:    s.params.NoFallback,
		SingleSegment: true,
		PromptTokens:  s.promptTokensForCall(),
	}
}

func (s *Session) promptTokensForCall() []int32 {
	if s.params.NoContext {
		return nil
	}
	return s.promptTokens
}

// Reset clears buffer, tail, promptTokens, and lastEmission, and resets
// iteration and lastRunAt. Subsequent output is unconditioned by prior
// context.
func (s *Session) Reset() {
	s.mu.Lock()
	s.buffer = nil
	s.tail = nil
	s.lastRunAt = s.now()
	s.mu.Unlock()

	s.promptTokens = nil
	s.lastEmission = ""
	s.iteration = 0
}

// SampleRate reports the engine's native sample rate.
func (s *Session) SampleRate() int { return s.sampleRate }

// Iteration reports the number of completed inference passes.
func (s *Session) Iteration() uint64 { return s.iteration }
