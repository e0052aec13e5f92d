package responses

import (
	"encoding/json"
	"fmt"
	"io"
)

const (
	ChatEventDelta = "delta"
	ChatEventError = "error"

	sseDone = "data: [DONE]\n\n"
)

// ChatDeltaEvent carries one answer fragment.
type ChatDeltaEvent struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// ChatErrorEvent terminates a stream that failed after it started.
type ChatErrorEvent struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func writeEvent(w io.Writer, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}

func WriteDelta(w io.Writer, content string) error {
	return writeEvent(w, ChatDeltaEvent{Type: ChatEventDelta, Content: content})
}

func WriteError(w io.Writer, message string) error {
	return writeEvent(w, ChatErrorEvent{Type: ChatEventError, Error: message})
}

func WriteDone(w io.Writer) error {
	_, err := io.WriteString(w, sseDone)
	return err
}
