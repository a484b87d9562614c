package session

import "testing"

func samplesOf(n int, start float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = start + float32(i)
	}
	return out
}

func TestAssembleWindowNoTail(t *testing.T) {
	buf := samplesOf(10, 0)
	win, nTake := assembleWindow(nil, buf, 5, 3, 8)
	if nTake != 0 {
		t.Fatalf("nTake = %d, want 0 (no tail to draw from)", nTake)
	}
	if len(win) != 5 {
		t.Fatalf("len(win) = %d, want 5", len(win))
	}
	for i, v := range win {
		if v != buf[i] {
			t.Fatalf("win[%d] = %v, want %v", i, v, buf[i])
		}
	}
}

func TestAssembleWindowTargetsKeepPlusLen(t *testing.T) {
	tail := samplesOf(100, 1000)
	buf := samplesOf(5, 0)
	// nKeep+nLen-nNew = 3+8-5 = 6, tail has 100 available -> take 6
	win, nTake := assembleWindow(tail, buf, 5, 3, 8)
	if nTake != 6 {
		t.Fatalf("nTake = %d, want 6", nTake)
	}
	if len(win) != 11 {
		t.Fatalf("len(win) = %d, want 11", len(win))
	}
	wantOverlap := tail[len(tail)-6:]
	for i, v := range wantOverlap {
		if win[i] != v {
			t.Fatalf("win[%d] = %v, want overlap %v", i, win[i], v)
		}
	}
	for i, v := range buf {
		if win[6+i] != v {
			t.Fatalf("win[%d] = %v, want new sample %v", 6+i, win[6+i], v)
		}
	}
}

func TestAssembleWindowTailShorterThanWanted(t *testing.T) {
	tail := samplesOf(2, 500) // less than the 6 wanted
	buf := samplesOf(5, 0)
	win, nTake := assembleWindow(tail, buf, 5, 3, 8)
	if nTake != 2 {
		t.Fatalf("nTake = %d, want 2 (capped by tail length)", nTake)
	}
	if len(win) != 7 {
		t.Fatalf("len(win) = %d, want 7", len(win))
	}
}

func TestAssembleWindowNegativeWantClampsToZero(t *testing.T) {
	tail := samplesOf(50, 10)
	buf := samplesOf(20, 0)
	// nKeep+nLen-nNew = 3+8-20 = -9 -> max(0, -9) = 0
	win, nTake := assembleWindow(tail, buf, 20, 3, 8)
	if nTake != 0 {
		t.Fatalf("nTake = %d, want 0", nTake)
	}
	if len(win) != 20 {
		t.Fatalf("len(win) = %d, want 20", len(win))
	}
}
