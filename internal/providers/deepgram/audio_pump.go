package deepgram

import (
	"errors"
	"fmt"
	"io"

	"stthebrew/internal/domain"
)

const (
	minChunkSize     = 256
	defaultChunkSize = 4096
)

// pumpAudio copies capture chunks into send until the capture reaches EOF.
// Failures are reported once through report and end the pump.
func pumpAudio(
	audio io.Reader,
	send func(chunk []byte) error,
	chunkSize int,
	report func(code domain.ErrorCode, err error),
) {
	if chunkSize < minChunkSize {
		chunkSize = defaultChunkSize
	}

	buf := make([]byte, chunkSize)
	for {
		n, err := audio.Read(buf)
		if n > 0 {
			if sendErr := send(buf[:n]); sendErr != nil {
				report(domain.ErrorCodeNetwork, fmt.Errorf("failed to stream audio: %w", sendErr))
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				report(domain.ErrorCodeAudioCapture, fmt.Errorf("audio capture error: %w", err))
			}
			return
		}
	}
}
