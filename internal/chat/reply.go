package chat

import (
	"encoding/json"
	"errors"
	"strings"
)

// FallbackReply is shown when the workflow answered without any output.
const FallbackReply = "Desculpe, não entendi."

// ErrEmptyReply is returned for an empty workflow answer.
var ErrEmptyReply = errors.New("chat: empty reply from server")

// ParseReply extracts the bot text from a workflow answer. A JSON object
// contributes its "output" string and any other JSON value falls back to
// FallbackReply; anything that is not JSON is taken as the text itself.
func ParseReply(raw []byte) (string, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return "", ErrEmptyReply
	}
	if !json.Valid(raw) {
		return string(raw), nil
	}

	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		return string(raw), nil
	}
	if obj, ok := body.(map[string]any); ok {
		if out, ok := obj["output"].(string); ok && out != "" {
			return out, nil
		}
	}
	return FallbackReply, nil
}
