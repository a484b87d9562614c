package engine

import (
	"context"
	"strings"
	"testing"
)

func TestStubEngineSampleRateDefaultsTo16kHz(t *testing.T) {
	e := NewStubEngine(0)
	if e.SampleRate() != 16000 {
		t.Fatalf("SampleRate() = %d, want 16000", e.SampleRate())
	}
}

func TestStubEngineEmptySamplesReturnsEmptyResult(t *testing.T) {
	e := NewStubEngine(16000)
	res, err := e.Transcribe(context.Background(), nil, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Segments) != 0 {
		t.Fatalf("Segments = %v, want empty", res.Segments)
	}
}

func TestStubEngineTextGrowsAcrossCalls(t *testing.T) {
	e := NewStubEngine(16000)
	res1, err := e.Transcribe(context.Background(), make([]float32, 100), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res2, err := e.Transcribe(context.Background(), make([]float32, 100), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res1.Segments[0].Text == res2.Segments[0].Text {
		t.Fatalf("expected distinct transcripts across calls, got %q twice", res1.Segments[0].Text)
	}
	if !strings.Contains(res2.Segments[0].Text, "2") {
		t.Fatalf("expected second call's text to reference call count 2, got %q", res2.Segments[0].Text)
	}
}

func TestStubEngineRespectsCancelledContext(t *testing.T) {
	e := NewStubEngine(16000)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Transcribe(ctx, make([]float32, 10), Options{})
	if err == nil {
		t.Fatalf("expected error for cancelled context")
	}
}
