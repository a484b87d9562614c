package session

import (
	"fmt"
	"strings"

	"github.com/machanirobotics-labs/sttgateway/internal/engine"
)

// formatTranscript renders a pass's segments into the single transcript
// string used both as the user-visible text and as the basis for the next
// pass's incremental diff.
func formatTranscript(segments []engine.Segment, withTimestamps, withDiarization bool) string {
	var b strings.Builder
	for _, seg := range segments {
		if withTimestamps {
			fmt.Fprintf(&b, "[%s --> %s]  ", formatTimestamp(seg.Start), formatTimestamp(seg.End))
		}
		b.WriteString(seg.Text)
		if withDiarization && seg.SpeakerTurn {
			b.WriteString(" [SPEAKER_TURN]")
		}
	}
	return b.String()
}

// formatTimestamp renders a millisecond offset as HH:MM:SS.mmm, matching the
// whisper.cpp stream server's timestamp format.
func formatTimestamp(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	hh := ms / 3600000
	ms -= hh * 3600000
	mm := ms / 60000
	ms -= mm * 60000
	ss := ms / 1000
	ms -= ss * 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", hh, mm, ss, ms)
}

// concatTokens concatenates the token ids of segments, in order, forming
// the prompt for the next inference pass.
func concatTokens(segments []engine.Segment) []int32 {
	var tokens []int32
	for _, seg := range segments {
		tokens = append(tokens, seg.Tokens...)
	}
	return tokens
}
