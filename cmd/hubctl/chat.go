package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/boddenberg/hub-avance-go/internal/chat"
	"github.com/boddenberg/hub-avance-go/internal/domain"
	"github.com/boddenberg/hub-avance-go/internal/messages"

	"github.com/spf13/pflag"
)

const connectionFailed = "Erro de conexão com o servidor. Tente novamente."

type chatOptions struct {
	api     string
	token   string
	email   string
	timeout time.Duration
	export  string
	state   string
}

func runChat(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var opts chatOptions
	fs := pflag.NewFlagSet("chat", pflag.ContinueOnError)
	fs.StringVar(&opts.api, "api", "http://localhost:8080", "base URL of the hub API")
	fs.StringVar(&opts.token, "token", "", "access token of a logged-in session")
	fs.StringVar(&opts.email, "email", "", "email of the logged-in account")
	fs.DurationVar(&opts.timeout, "timeout", 45*time.Second, "abort a reply after this long")
	fs.StringVar(&opts.export, "export", "", "write the transcript as HTML to this file on exit")
	fs.StringVar(&opts.state, "state", "", "file persisting conversations between runs, one per email")
	if ok, err := parseFlags(fs, args, stderr); !ok {
		return err
	}
	if opts.token == "" || opts.email == "" {
		return &exitError{code: 2, msg: "chat requires --token and --email"}
	}

	st := loadChatState(opts.state, opts.email)
	s := &chatSession{opts: opts, state: st, out: stdout}
	s.replay()

	scanner := bufio.NewScanner(stdin)
	for {
		fmt.Fprint(stdout, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return s.finish()
		case "/new":
			s.state.Reset()
			fmt.Fprintln(stdout, "(nova conversa)")
			continue
		}
		s.send(line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return s.finish()
}

type chatSession struct {
	opts  chatOptions
	state *chat.State
	out   io.Writer
}

func (s *chatSession) replay() {
	for _, m := range s.state.Messages {
		s.print(m.Role, m.Text)
	}
}

func (s *chatSession) print(role, text string) {
	prefix := "você"
	if role == chat.RoleBot {
		prefix = "agente"
	}
	fmt.Fprintf(s.out, "%s: %s\n", prefix, text)
}

// send posts one message and prints the reply. Failures become a bot
// message so the transcript shows what the user saw.
func (s *chatSession) send(text string) {
	s.state.Append(chat.RoleUser, text)

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.timeout)
	defer cancel()

	req := domain.AgentRequest{ChatInput: text, SessionID: s.state.SessionID}
	status, body, err := postJSON(ctx, strings.TrimRight(s.opts.api, "/")+"/api/agent", s.opts.token, req)

	var reply string
	switch {
	case err != nil:
		reply = connectionFailed
	case status != http.StatusOK:
		reply = messages.FromBody(body)
	default:
		reply, err = chat.ParseReply(body)
		if err != nil {
			reply = connectionFailed
		}
	}
	s.state.Append(chat.RoleBot, reply)
	s.print(chat.RoleBot, reply)
	s.save()
}

func (s *chatSession) save() {
	if s.opts.state == "" {
		return
	}
	store := readStore(s.opts.state)
	raw, err := s.state.Marshal()
	if err != nil {
		return
	}
	store[chat.StateKey(s.opts.email)] = raw
	if out, err := json.Marshal(store); err == nil {
		_ = os.WriteFile(s.opts.state, out, 0o600)
	}
}

func (s *chatSession) finish() error {
	s.save()
	if s.opts.export == "" {
		return nil
	}
	if err := os.WriteFile(s.opts.export, []byte(chat.RenderTranscript(s.state)), 0o644); err != nil {
		return fmt.Errorf("export transcript: %w", err)
	}
	fmt.Fprintf(s.out, "conversa exportada para %s\n", s.opts.export)
	return nil
}

// loadChatState reads the conversation of email from the state file. The
// file maps chat.StateKey(email) to a stored state, so several accounts can
// share it. Anything missing or unreadable starts fresh.
func loadChatState(path, email string) *chat.State {
	if path == "" {
		return chat.NewState()
	}
	return chat.LoadState(readStore(path)[chat.StateKey(email)])
}

func readStore(path string) map[string]json.RawMessage {
	store := map[string]json.RawMessage{}
	raw, err := os.ReadFile(path)
	if err != nil {
		return store
	}
	if json.Unmarshal(raw, &store) != nil || store == nil {
		return map[string]json.RawMessage{}
	}
	return store
}
