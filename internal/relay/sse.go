// Package relay forwards upstream streams to the browser as Server-Sent
// Events: chat completions and model pull progress.
package relay

import "io"

var (
	dataPrefix = []byte("data: ")
	frameEnd   = []byte("\n\n")
	// donePayload terminates a chat stream.
	donePayload = []byte("[DONE]")
)

// writeFrame writes one "data: <payload>\n\n" event and flushes it.
func writeFrame(w io.Writer, flush func(), payload []byte) error {
	buf := make([]byte, 0, len(dataPrefix)+len(payload)+len(frameEnd))
	buf = append(buf, dataPrefix...)
	buf = append(buf, payload...)
	buf = append(buf, frameEnd...)
	if _, err := w.Write(buf); err != nil {
		return err
	}
	if flush != nil {
		flush()
	}
	return nil
}
