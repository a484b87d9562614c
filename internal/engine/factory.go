package engine

import "github.com/machanirobotics-labs/sttgateway/internal/logging"

// New resolves which Engine implementation to construct from the server's
// startup configuration. When recognizerURL is empty, the stub engine is
// used (suitable for local development and the end-to-end test suite);
// otherwise an HTTPEngine pointed at recognizerURL is returned.
func New(recognizerURL, modelPath string, sampleRate int) Engine {
	if recognizerURL == "" {
		logging.Warnw("no recognizer endpoint configured; using stub engine")
		return NewStubEngine(sampleRate)
	}
	logging.Infow("engine: using http recognizer", "url", recognizerURL, "model", modelPath)
	return NewHTTPEngine(recognizerURL, modelPath, sampleRate)
}
