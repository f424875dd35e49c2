package handler

import (
	"net/http"

	"github.com/boddenberg/hub-avance-go/internal/config"
	"github.com/boddenberg/hub-avance-go/internal/domain"
)

func publicAgentConfigHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var missing []string
		if cfg.LoginURL == "" {
			missing = append(missing, "LOGIN_URL")
		}
		if cfg.AgentChatURL == "" {
			missing = append(missing, "AGENT_CHAT_URL")
		}
		if len(missing) > 0 {
			writeError(w, missingEnv(domain.CodeMissingEnv, missing))
			return
		}

		proxy := cfg.AgentProxyURL
		if proxy == "" {
			proxy = "/api/agent"
		}
		writeJSON(w, http.StatusOK, domain.PublicAgentConfig{
			OK:            true,
			LoginURL:      cfg.LoginURL,
			AgentChatURL:  cfg.AgentChatURL,
			AgentProxyURL: proxy,
		})
	}
}

// publicSupabaseConfigHandler exposes only the URL and the anon key; the
// service role key never leaves the process.
func publicSupabaseConfigHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if missing := cfg.Missing(config.FeaturePublicSupabase); len(missing) > 0 {
			writeError(w, missingEnv(domain.CodeMissingEnv, missing))
			return
		}
		writeJSON(w, http.StatusOK, domain.PublicSupabaseConfig{
			OK:              true,
			SupabaseURL:     cfg.SupabaseURL,
			SupabaseAnonKey: cfg.SupabaseAnonKey,
		})
	}
}
