package chat

import (
	"bytes"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// markdown renders bot text. Raw HTML in the source is omitted and
// dangerous link schemes are dropped because WithUnsafe is never set.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
)

// RenderMessage returns the HTML body of one chat bubble. User text is
// escaped verbatim; bot text is markdown, with an escaped <pre> block when
// conversion fails.
func RenderMessage(role, text string) string {
	if role != RoleBot {
		return html.EscapeString(text)
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(text), &buf); err != nil {
		return "<pre>" + html.EscapeString(text) + "</pre>"
	}
	return buf.String()
}

const transcriptHead = `<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<title>Agente Avance</title>
<style>
body{font-family:system-ui,sans-serif;max-width:760px;margin:2rem auto;padding:0 1rem;background:#f6f7f9}
.message{display:flex;margin:.5rem 0}
.message.user{justify-content:flex-end}
.message-bubble{padding:.6rem .9rem;border-radius:12px;max-width:80%;background:#fff;box-shadow:0 1px 2px rgba(0,0,0,.08)}
.message.user .message-bubble{background:#1f6feb;color:#fff;white-space:pre-wrap}
pre{white-space:pre-wrap}
</style>
</head>
<body>
`

// RenderTranscript produces a standalone HTML page with every message of st.
func RenderTranscript(st *State) string {
	var b strings.Builder
	b.WriteString(transcriptHead)
	b.WriteString(`<p><small>sessão ` + html.EscapeString(st.SessionID) + "</small></p>\n")
	for _, m := range st.Messages {
		role := RoleUser
		if m.Role == RoleBot {
			role = RoleBot
		}
		b.WriteString(`<div class="message ` + role + `"><div class="message-bubble">`)
		b.WriteString(RenderMessage(role, m.Text))
		b.WriteString("</div></div>\n")
	}
	b.WriteString("</body>\n</html>\n")
	return b.String()
}
