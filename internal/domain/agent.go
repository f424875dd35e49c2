package domain

import "encoding/json"

// ============================================================
// Agent proxy
// ============================================================

// AgentRequest is the body for POST /api/agent. Email is accepted for
// compatibility with older clients but always replaced by the verified one.
// Any other top-level field is kept in Extra and forwarded as is.
type AgentRequest struct {
	ChatInput string                     `json:"chatInput"`
	SessionID string                     `json:"sessionId"`
	Email     string                     `json:"email,omitempty"`
	Extra     map[string]json.RawMessage `json:"-"`
}

func (r *AgentRequest) UnmarshalJSON(data []byte) error {
	type plain AgentRequest
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := extraFields(data)
	if err != nil {
		return err
	}
	p.Extra = extra
	*r = AgentRequest(p)
	return nil
}

// WorkflowPayload is what gets POSTed to the workflow webhook. Extra
// fields are written alongside the named ones, which always win.
type WorkflowPayload struct {
	ChatInput string                     `json:"chatInput"`
	SessionID string                     `json:"sessionId"`
	Email     string                     `json:"email"`
	Extra     map[string]json.RawMessage `json:"-"`
}

func (p WorkflowPayload) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Extra)+3)
	for k, v := range p.Extra {
		out[k] = v
	}
	out["chatInput"] = p.ChatInput
	out["sessionId"] = p.SessionID
	out["email"] = p.Email
	return json.Marshal(out)
}

func (p *WorkflowPayload) UnmarshalJSON(data []byte) error {
	type plain WorkflowPayload
	var q plain
	if err := json.Unmarshal(data, &q); err != nil {
		return err
	}
	extra, err := extraFields(data)
	if err != nil {
		return err
	}
	q.Extra = extra
	*p = WorkflowPayload(q)
	return nil
}

// extraFields returns the top-level members of a chat object other than
// chatInput, sessionId and email, or nil when there are none.
func extraFields(data []byte) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	delete(all, "chatInput")
	delete(all, "sessionId")
	delete(all, "email")
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// WorkflowReply is the raw workflow answer relayed to the caller.
type WorkflowReply struct {
	Status      int
	ContentType string
	Body        []byte
}

// ============================================================
// Public configuration
// ============================================================

// PublicAgentConfig is returned by GET /api/public-agent-config.
type PublicAgentConfig struct {
	OK            bool   `json:"ok"`
	LoginURL      string `json:"loginUrl"`
	AgentChatURL  string `json:"agentChatUrl"`
	AgentProxyURL string `json:"agentProxyUrl"`
}

// PublicSupabaseConfig is returned by GET /api/public-supabase-config.
type PublicSupabaseConfig struct {
	OK              bool   `json:"ok"`
	SupabaseURL     string `json:"supabaseUrl"`
	SupabaseAnonKey string `json:"supabaseAnonKey"`
}

// LedgerProbe is returned by the diagnostics ledger upsert.
type LedgerProbe struct {
	OK     bool           `json:"ok"`
	Status int            `json:"status"`
	Raw    string         `json:"raw"`
	Parsed map[string]any `json:"parsed"`
}
