// Package chat holds the client-side conversation state for the agent
// chat: session ids, the persisted transcript, reply parsing and HTML
// rendering of messages.
package chat

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message roles.
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

const stateKeyPrefix = "agente_chat_state:"

// StateKey is the storage key holding the conversation of email.
func StateKey(email string) string {
	return stateKeyPrefix + email
}

// Message is one line of the transcript.
type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// State is the persisted conversation: the workflow session id and the
// messages exchanged under it.
type State struct {
	SessionID string    `json:"sessionId"`
	Messages  []Message `json:"messages"`
}

// NewSessionID returns sess_<unix-ms>_<9 base36 chars>.
func NewSessionID() string {
	return fmt.Sprintf("sess_%d_%s", time.Now().UnixMilli(), base36Suffix(9))
}

func base36Suffix(n int) string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	id := uuid.New()
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(alphabet[int(id[i])%len(alphabet)])
	}
	return b.String()
}

// NewState starts an empty conversation with a fresh session id.
func NewState() *State {
	return &State{SessionID: NewSessionID(), Messages: []Message{}}
}

// LoadState decodes a stored conversation. Missing or corrupt data yields a
// fresh state; a missing session id or a malformed message list is replaced
// on its own.
func LoadState(raw []byte) *State {
	var stored struct {
		SessionID string          `json:"sessionId"`
		Messages  json.RawMessage `json:"messages"`
	}
	if len(raw) == 0 || json.Unmarshal(raw, &stored) != nil {
		return NewState()
	}

	st := &State{SessionID: stored.SessionID, Messages: []Message{}}
	if st.SessionID == "" {
		st.SessionID = NewSessionID()
	}
	var msgs []Message
	if json.Unmarshal(stored.Messages, &msgs) == nil && msgs != nil {
		st.Messages = msgs
	}
	return st
}

// Marshal encodes the state for storage.
func (s *State) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// Append adds a message to the transcript.
func (s *State) Append(role, text string) {
	s.Messages = append(s.Messages, Message{Role: role, Text: text})
}

// Reset starts a new chat: new session id, empty transcript.
func (s *State) Reset() {
	s.SessionID = NewSessionID()
	s.Messages = []Message{}
}
