package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/boddenberg/hub-avance-go/internal/domain"
	"github.com/boddenberg/hub-avance-go/internal/messages"
	"github.com/boddenberg/hub-avance-go/internal/service"
	"github.com/boddenberg/hub-avance-go/internal/taxid"

	"github.com/spf13/pflag"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type registerOptions struct {
	api      string
	email    string
	password string
	name     string
	doc      string
	whatsapp string
	timeout  time.Duration
}

// validate runs the form checks before anything is sent. Every problem is
// reported, not just the first.
func (o *registerOptions) validate() []string {
	var problems []string
	if !emailPattern.MatchString(strings.TrimSpace(o.email)) {
		problems = append(problems, "E-mail inválido")
	}
	if !taxid.Valid(o.doc) {
		problems = append(problems, "CPF/CNPJ inválido")
	}
	if msg := messages.PasswordChecklist(service.CheckPassword(o.password)); msg != "" {
		problems = append(problems, msg)
	}
	return problems
}

func (o *registerOptions) request() domain.RegisterRequest {
	return domain.RegisterRequest{
		Email:    strings.TrimSpace(o.email),
		Password: o.password,
		Name:     strings.TrimSpace(o.name),
		CPF:      taxid.Digits(o.doc),
		WhatsApp: taxid.Digits(o.whatsapp),
	}
}

func runRegister(args []string, stdout, stderr io.Writer) error {
	var opts registerOptions
	fs := pflag.NewFlagSet("register", pflag.ContinueOnError)
	fs.StringVar(&opts.api, "api", "http://localhost:8080", "base URL of the hub API")
	fs.StringVar(&opts.email, "email", "", "account email")
	fs.StringVar(&opts.password, "password", "", "account password")
	fs.StringVar(&opts.name, "name", "", "display name")
	fs.StringVar(&opts.doc, "doc", "", "CPF or CNPJ, punctuation allowed")
	fs.StringVar(&opts.whatsapp, "whatsapp", "", "WhatsApp number")
	fs.DurationVar(&opts.timeout, "timeout", 30*time.Second, "request timeout")
	if ok, err := parseFlags(fs, args, stderr); !ok {
		return err
	}

	if problems := opts.validate(); len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintln(stderr, p)
		}
		return &exitError{code: 1}
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	status, body, err := postJSON(ctx, strings.TrimRight(opts.api, "/")+"/api/register", "", opts.request())
	if err != nil {
		return &exitError{code: 1, msg: messages.ConnectionError}
	}

	var out domain.RegisterResponse
	if status == http.StatusOK && json.Unmarshal(body, &out) == nil && out.OK {
		fmt.Fprintln(stdout, messages.RegisterSuccess)
		return nil
	}
	return &exitError{code: 1, msg: messages.FromBody(body)}
}

// postJSON sends v and returns the status and raw body.
func postJSON(ctx context.Context, url, token string, v any) (int, []byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return 0, nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}
