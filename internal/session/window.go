package session

// assembleWindow builds the audio submitted to one inference pass: the
// window is the tail end of the previous window (tail) concatenated with
// the new samples taken from the front of buffer.
//
// nTake is the number of overlap samples drawn from the end of tail; it
// targets a submitted window of size nKeep+nLen when possible, biasing
// older passes to contribute more overlap as the stream matures. Kept as a
// pure function, independent of Session, so it can be tested directly.
func assembleWindow(tail, buffer []float32, nNew, nKeep, nLen int) (window []float32, nTake int) {
	nTake = len(tail)
	if want := nKeep + nLen - nNew; want < 0 {
		nTake = 0
	} else if want < nTake {
		nTake = want
	}

	window = make([]float32, nTake+nNew)
	copy(window, tail[len(tail)-nTake:])
	copy(window[nTake:], buffer[:nNew])
	return window, nTake
}
