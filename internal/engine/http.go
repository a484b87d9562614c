package engine

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/machanirobotics-labs/sttgateway/internal/logging"
)

// HTTPEngine talks to an out-of-process recognizer over HTTP, posting each
// window as a WAV file and parsing the recognizer's JSON segment list. This
// is the adapter a deployment wires up when the recognizer is a separate
// process (e.g. a whisper.cpp server) rather than linked into this binary.
//
// Modeled on the whisper HTTP client in the teacher repo: build a WAV
// payload, POST with a bounded number of retries and exponential backoff,
// decode a JSON response.
type HTTPEngine struct {
	baseURL    string
	modelHint  string
	sampleRate int
	client     *http.Client
	retries    int
}

// HTTPEngineOption configures an HTTPEngine at construction.
type HTTPEngineOption func(*HTTPEngine)

// WithRetries overrides the default retry count for transient failures.
func WithRetries(n int) HTTPEngineOption {
	return func(e *HTTPEngine) { e.retries = n }
}

// WithHTTPClient overrides the default http.Client (for timeouts, transport
// tuning, or test doubles).
func WithHTTPClient(c *http.Client) HTTPEngineOption {
	return func(e *HTTPEngine) { e.client = c }
}

// NewHTTPEngine constructs an engine that posts audio to baseURL. modelHint
// is forwarded as a query parameter so a multi-model recognizer server can
// route the request; sampleRate is the rate this engine expects PCM input
// to already be at.
func NewHTTPEngine(baseURL, modelHint string, sampleRate int, opts ...HTTPEngineOption) *HTTPEngine {
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	e := &HTTPEngine{
		baseURL:    baseURL,
		modelHint:  modelHint,
		sampleRate: sampleRate,
		client:     &http.Client{Timeout: 30 * time.Second},
		retries:    3,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *HTTPEngine) SampleRate() int { return e.sampleRate }

func (e *HTTPEngine) Close() error { return nil }

type httpSegment struct {
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Text        string  `json:"text"`
	Tokens      []int32 `json:"tokens,omitempty"`
	SpeakerTurn bool    `json:"speaker_turn,omitempty"`
}

type httpResponse struct {
	Segments []httpSegment `json:"segments"`
}

func (e *HTTPEngine) Transcribe(ctx context.Context, samples []float32, opts Options) (Result, error) {
	if len(samples) == 0 {
		return Result{}, nil
	}

	reqURL, err := e.buildURL(opts)
	if err != nil {
		return Result{}, fmt.Errorf("engine: build url: %w", err)
	}

	body := encodeWAVFloat32(samples, e.sampleRate)

	var lastErr error
	for attempt := 0; attempt <= e.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
		if err != nil {
			return Result{}, fmt.Errorf("engine: new request: %w", err)
		}
		req.Header.Set("Content-Type", "audio/wav")
		if len(opts.PromptTokens) > 0 {
			if b, err := json.Marshal(opts.PromptTokens); err == nil {
				req.Header.Set("X-Prompt-Tokens", string(b))
			}
		}

		resp, err := e.client.Do(req)
		if err != nil {
			lastErr = err
			logging.Warnw("engine: http request failed", "attempt", attempt, "err", err)
			e.backoff(attempt)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("engine: server error status=%d", resp.StatusCode)
			e.backoff(attempt)
			continue
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return Result{}, fmt.Errorf("engine: client error status=%d", resp.StatusCode)
		}

		var out httpResponse
		decErr := json.NewDecoder(resp.Body).Decode(&out)
		resp.Body.Close()
		if decErr != nil {
			return Result{}, fmt.Errorf("engine: decode response: %w", decErr)
		}

		segs := make([]Segment, 0, len(out.Segments))
		for _, s := range out.Segments {
			segs = append(segs, Segment{
				Start:       int64(s.Start),
				End:         int64(s.End),
				Text:        s.Text,
				Tokens:      s.Tokens,
				SpeakerTurn: s.SpeakerTurn,
			})
		}
		return Result{Segments: segs}, nil
	}
	return Result{}, lastErr
}

func (e *HTTPEngine) backoff(attempt int) {
	d := time.Duration(1<<uint(attempt)) * 200 * time.Millisecond
	timer := time.NewTimer(d)
	defer timer.Stop()
	<-timer.C
}

func (e *HTTPEngine) buildURL(opts Options) (string, error) {
	u, err := url.Parse(e.baseURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	if e.modelHint != "" {
		q.Set("model", e.modelHint)
	}
	if opts.Language != "" {
		q.Set("language", opts.Language)
	}
	if opts.Translate {
		q.Set("task", "translate")
	}
	if opts.Greedy {
		q.Set("beam_size", "1")
	} else {
		q.Set("beam_size", strconv.Itoa(opts.BeamSize))
	}
	q.Set("max_tokens", strconv.Itoa(opts.MaxTokens))
	q.Set("threads", strconv.Itoa(opts.Threads))
	if opts.AudioCtx > 0 {
		q.Set("audio_ctx", strconv.Itoa(opts.AudioCtx))
	}
	if opts.Diarize {
		q.Set("tinydiarize", "1")
	}
	if opts.NoFallback {
		q.Set("no_fallback", "1")
	}
	if opts.SingleSegment {
		q.Set("single_segment", "1")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// encodeWAVFloat32 builds a RIFF/WAVE container carrying 32-bit float PCM,
// mirroring the WAV-building helper in the teacher's whisper HTTP client but
// for float32 samples in [-1, 1] rather than int16.
func encodeWAVFloat32(samples []float32, sampleRate int) []byte {
	const channels = 1
	const bitsPerSample = 32
	byteRate := uint32(sampleRate * channels * bitsPerSample / 8)
	blockAlign := uint16(channels * bitsPerSample / 8)
	dataLen := uint32(len(samples) * 4)
	riffSize := uint32(4 + (8 + 18) + (8 + dataLen))

	buf := &bytes.Buffer{}
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, riffSize)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(18))
	binary.Write(buf, binary.LittleEndian, uint16(3)) // WAVE_FORMAT_IEEE_FLOAT
	binary.Write(buf, binary.LittleEndian, uint16(channels))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, byteRate)
	binary.Write(buf, binary.LittleEndian, blockAlign)
	binary.Write(buf, binary.LittleEndian, uint16(bitsPerSample))
	binary.Write(buf, binary.LittleEndian, uint16(0)) // cbSize
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, dataLen)
	for _, s := range samples {
		binary.Write(buf, binary.LittleEndian, s)
	}
	return buf.Bytes()
}
