package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/aretw0/stepwise/pkg/domain"
)

// Message is one JSON line written by JSONHandler.
type Message struct {
	Type    string         `json:"type"`
	Prompt  *domain.Prompt `json:"prompt,omitempty"`
	Entries []domain.Entry `json:"entries,omitempty"`
	Message string         `json:"message,omitempty"`
}

// Message types.
const (
	MessagePrompt = "prompt"
	MessageSubmit = "submit"
	MessageSystem = "system"
)

// JSONHandler implements IOHandler for structured JSON-Lines communication.
// Input lines may be a JSON string, an object {"input": "..."}, or raw text.
type JSONHandler struct {
	Reader  *bufio.Reader
	Writer  io.Writer
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Writer:  w,
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Output(ctx context.Context, prompt domain.Prompt) error {
	return h.Encoder.Encode(Message{Type: MessagePrompt, Prompt: &prompt})
}

func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	text, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return "", err
	}
	text = strings.TrimSpace(text)

	var val string
	if err := json.Unmarshal([]byte(text), &val); err == nil {
		return SanitizeInput(val)
	}
	var obj struct {
		Input string `json:"input"`
	}
	if err := json.Unmarshal([]byte(text), &obj); err == nil {
		return SanitizeInput(obj.Input)
	}
	return SanitizeInput(text)
}

func (h *JSONHandler) Done(ctx context.Context, entries []domain.Entry) error {
	return h.Encoder.Encode(Message{Type: MessageSubmit, Entries: entries})
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode(Message{Type: MessageSystem, Message: msg})
}
