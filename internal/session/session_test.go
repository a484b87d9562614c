package session

import (
	"context"
	"testing"
	"time"

	"github.com/machanirobotics-labs/sttgateway/internal/config"
	"github.com/machanirobotics-labs/sttgateway/internal/engine"
)

// fakeEngine returns a fixed transcript for every call, counting calls, so
// tests can assert an inference either happened or didn't.
type fakeEngine struct {
	sampleRate int
	calls      int
	texts      []string // texts[i] is returned on the i-th call; last repeats
}

func (f *fakeEngine) SampleRate() int { return f.sampleRate }
func (f *fakeEngine) Close() error    { return nil }
func (f *fakeEngine) Transcribe(ctx context.Context, samples []float32, opts engine.Options) (engine.Result, error) {
	idx := f.calls
	if idx >= len(f.texts) {
		idx = len(f.texts) - 1
	}
	f.calls++
	text := ""
	if idx >= 0 && idx < len(f.texts) {
		text = f.texts[idx]
	}
	return engine.Result{Segments: []engine.Segment{{Text: text}}}, nil
}

func testParams() config.Params {
	p := config.DefaultParams()
	p.StepMs = 100
	p.LengthMs = 300
	p.KeepMs = 50
	p.NoTimestamps = true
	return p
}

func TestPushAudioNeverExceedsNMax(t *testing.T) {
	eng := &fakeEngine{sampleRate: 1000}
	s := New(1, testParams(), eng)
	// nLen = 300ms*1000/1000 = 300 samples, nMax = 600
	s.PushAudio(samplesOf(1000, 0))
	if len(s.buffer) > s.nMax {
		t.Fatalf("len(buffer) = %d, want <= %d", len(s.buffer), s.nMax)
	}
	if len(s.buffer) != s.nMax {
		t.Fatalf("len(buffer) = %d, want exactly %d after overflow trim", len(s.buffer), s.nMax)
	}
}

func TestDrainIfReadyRemovesExactlyNNewSamples(t *testing.T) {
	eng := &fakeEngine{sampleRate: 1000, texts: []string{"hello"}}
	s := New(1, testParams(), eng)
	s.now = func() time.Time { return s.lastRunAt.Add(200 * time.Millisecond) }

	// nStep = 100ms*1000/1000 = 100 samples
	s.PushAudio(samplesOf(250, 0))
	before := len(s.buffer)

	delta, err := s.DrainIfReady(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if delta != "hello" {
		t.Fatalf("delta = %q, want %q", delta, "hello")
	}
	if len(s.buffer) != before-s.nStep {
		t.Fatalf("len(buffer) = %d, want %d", len(s.buffer), before-s.nStep)
	}
	if len(s.tail) != s.nStep {
		// nTake = min(0, max(0, 50+300-100)) = 0 on the first pass (tail starts empty)
		t.Fatalf("len(tail) = %d, want %d", len(s.tail), s.nStep)
	}
}

func TestDrainIfReadyBelowThreshold(t *testing.T) {
	eng := &fakeEngine{sampleRate: 1000, texts: []string{"hello"}}
	s := New(1, testParams(), eng)
	s.now = func() time.Time { return s.lastRunAt.Add(200 * time.Millisecond) }

	s.PushAudio(samplesOf(10, 0)) // below nStep=100
	delta, err := s.DrainIfReady(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if delta != "" {
		t.Fatalf("delta = %q, want empty below threshold", delta)
	}
	if eng.calls != 0 {
		t.Fatalf("engine called %d times, want 0", eng.calls)
	}
}

func TestTimeGateSuppressesSecondDrain(t *testing.T) {
	eng := &fakeEngine{sampleRate: 1000, texts: []string{"hello", "hello world"}}
	s := New(1, testParams(), eng)
	tick := s.lastRunAt
	s.now = func() time.Time { return tick }

	s.PushAudio(samplesOf(250, 0))
	tick = tick.Add(200 * time.Millisecond) // past step_ms (100ms)

	first, err := s.DrainIfReady(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first == "" {
		t.Fatalf("expected first drain to produce text")
	}

	// advance by less than step_ms and feed a little more
	tick = tick.Add(10 * time.Millisecond)
	s.PushAudio(samplesOf(150, 0))

	second, err := s.DrainIfReady(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second != "" {
		t.Fatalf("second drain = %q, want empty (time gate should suppress it)", second)
	}
	if eng.calls != 1 {
		t.Fatalf("engine called %d times, want 1", eng.calls)
	}
}

func TestDeltaPurityOnRepeatedText(t *testing.T) {
	eng := &fakeEngine{sampleRate: 1000, texts: []string{"same text", "same text"}}
	s := New(1, testParams(), eng)
	tick := s.lastRunAt
	s.now = func() time.Time { return tick }

	s.PushAudio(samplesOf(250, 0))
	tick = tick.Add(200 * time.Millisecond)
	first, _ := s.DrainIfReady(context.Background())
	if first != "same text" {
		t.Fatalf("first = %q", first)
	}

	s.PushAudio(samplesOf(150, 0))
	tick = tick.Add(200 * time.Millisecond)
	second, _ := s.DrainIfReady(context.Background())
	if second != "" {
		t.Fatalf("second = %q, want empty (identical text => empty delta)", second)
	}
}

func TestFlushOfEmptyBufferReturnsEmpty(t *testing.T) {
	eng := &fakeEngine{sampleRate: 1000}
	s := New(1, testParams(), eng)
	got, err := s.Flush(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Fatalf("got %q, want empty", got)
	}
	if eng.calls != 0 {
		t.Fatalf("engine called %d times, want 0", eng.calls)
	}
}

func TestFlushSubmitsRegardlessOfReadiness(t *testing.T) {
	eng := &fakeEngine{sampleRate: 1000, texts: []string{"flushed"}}
	s := New(1, testParams(), eng)
	s.PushAudio(samplesOf(5, 0)) // well below nStep

	got, err := s.Flush(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "flushed" {
		t.Fatalf("got %q, want %q", got, "flushed")
	}
	if len(s.buffer) != 0 || len(s.tail) != 0 {
		t.Fatalf("flush should clear buffer and tail")
	}
}

func TestResetIsIdempotent(t *testing.T) {
	eng := &fakeEngine{sampleRate: 1000, texts: []string{"hello"}}
	s := New(1, testParams(), eng)
	s.PushAudio(samplesOf(250, 0))
	s.Reset()
	s.Reset()

	if len(s.buffer) != 0 || len(s.tail) != 0 || s.lastEmission != "" || s.promptTokens != nil || s.iteration != 0 {
		t.Fatalf("reset() twice left non-zero state: %+v", s)
	}
}

func TestResetClearsContextSoNextDeltaIsFullText(t *testing.T) {
	eng := &fakeEngine{sampleRate: 1000, texts: []string{"hello there", "goodbye"}}
	p := testParams()
	p.NoContext = true
	s := New(1, p, eng)
	tick := s.lastRunAt
	s.now = func() time.Time { return tick }

	s.PushAudio(samplesOf(250, 0))
	tick = tick.Add(200 * time.Millisecond)
	first, _ := s.DrainIfReady(context.Background())
	if first != "hello there" {
		t.Fatalf("first = %q", first)
	}

	s.Reset()
	tick = s.lastRunAt

	s.PushAudio(samplesOf(250, 0))
	tick = tick.Add(200 * time.Millisecond)
	second, _ := s.DrainIfReady(context.Background())
	// After reset, "goodbye" does not prefix-extend the (now-empty) last
	// emission, so the full clean text comes back rather than a suffix.
	if second != "goodbye" {
		t.Fatalf("second = %q, want full text %q after reset", second, "goodbye")
	}
}

func TestPushAudioInt16Normalizes(t *testing.T) {
	eng := &fakeEngine{sampleRate: 1000}
	s := New(1, testParams(), eng)
	s.PushAudioInt16([]int16{16384, -16384, 0})
	if len(s.buffer) != 3 {
		t.Fatalf("len(buffer) = %d, want 3", len(s.buffer))
	}
	if s.buffer[0] != 0.5 || s.buffer[1] != -0.5 || s.buffer[2] != 0 {
		t.Fatalf("buffer = %v, want [0.5 -0.5 0]", s.buffer)
	}
}
