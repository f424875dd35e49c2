// Package messages turns API error codes into the Portuguese messages shown
// to end users.
package messages

import (
	"encoding/json"
	"strings"

	"github.com/boddenberg/hub-avance-go/internal/domain"
	"github.com/boddenberg/hub-avance-go/internal/service"
)

const (
	// Fallback is shown for codes without a dedicated message.
	Fallback = "Erro ao processar a solicitação. Verifique os dados e tente novamente."

	// RegisterSuccess is shown after a successful registration.
	RegisterSuccess = "Cadastro realizado. Enviamos um link de confirmação para seu e-mail. " +
		"Confirme o link para liberar o login. Verifique também a caixa de spam."

	// ConnectionError is shown when the API could not be reached.
	ConnectionError = "Erro de conexão. Tente novamente."

	maxRawLen = 300
)

var byCode = map[domain.Code]string{
	domain.CodeMissingFields:       "Preencha os campos obrigatórios.",
	domain.CodeInvalidBody:         "Requisição inválida.",
	domain.CodeInvalidDocument:     "CPF/CNPJ inválido.",
	domain.CodeCPFExists:           "Este CPF/CNPJ já está cadastrado.",
	domain.CodeEmailExists:         "Este e-mail já está cadastrado.",
	domain.CodeWeakPassword:        "A senha não atende aos requisitos mínimos.",
	domain.CodeRateLimited:         "Muitas tentativas. Aguarde um pouco e tente novamente.",
	domain.CodeSheetsFailed:        "Cadastro indisponível no momento. Tente novamente em instantes.",
	domain.CodeProfileUpdateFailed: "Não foi possível concluir o cadastro. Tente novamente.",
	domain.CodeSignupMissingUserID: "Não foi possível concluir o cadastro. Tente novamente.",
	domain.CodeNoToken:             "Faça login para continuar.",
	domain.CodeInvalidSession:      "Sua sessão expirou. Faça login novamente.",
	domain.CodeN8NError:            "O agente não respondeu. Tente novamente em instantes.",
	domain.CodeMissingEnv:          "Serviço temporariamente indisponível.",
	domain.CodeMissingSupabaseEnv:  "Serviço temporariamente indisponível.",
	domain.CodeMissingSheetsEnv:    "Serviço temporariamente indisponível.",
	domain.CodeMissingApp:          "Aplicativo não informado.",
	domain.CodeUnknownApp:          "Aplicativo desconhecido.",
	domain.CodeMethodNotAllowed:    "Operação não permitida.",
	domain.CodeServerError:         "Erro interno. Tente novamente em instantes.",
}

// ForCode returns the message for an error code. auth_error is refined
// from the provider detail.
func ForCode(code, detail string) string {
	c := domain.Code(code)
	if c == domain.CodeAuthError {
		return FriendlyAuth(detail)
	}
	if msg, ok := byCode[c]; ok {
		return msg
	}
	return Fallback
}

// FriendlyAuth maps identity-provider wording onto a user message.
func FriendlyAuth(detail string) string {
	t := strings.ToLower(detail)
	switch {
	case strings.Contains(t, "already registered"):
		return byCode[domain.CodeEmailExists]
	case strings.Contains(t, "invalid email"):
		return "E-mail inválido."
	case strings.Contains(t, "password"):
		return "Senha inválida. Verifique os requisitos e tente novamente."
	case strings.Contains(t, "rate"), strings.Contains(t, "too many"):
		return byCode[domain.CodeRateLimited]
	}
	return "Não foi possível concluir o cadastro. Verifique os dados e tente novamente."
}

// Response is the error envelope returned by the API.
type Response struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

// FromBody returns the message for an error response body. A body that is
// not the JSON envelope is shown as text.
func FromBody(body []byte) string {
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil || resp.Error == "" {
		raw := strings.TrimSpace(string(body))
		if raw == "" || strings.HasPrefix(raw, "{") {
			return Fallback
		}
		return domain.Truncate(raw, maxRawLen)
	}
	detail := resp.Detail
	if detail == "" {
		detail = resp.Message
	}
	return ForCode(resp.Error, detail)
}

var ruleLabels = map[service.PasswordRule]string{
	service.RuleLength:  "mínimo 8 caracteres",
	service.RuleUpper:   "1 maiúscula",
	service.RuleLower:   "1 minúscula",
	service.RuleDigit:   "1 número",
	service.RuleSpecial: "1 caractere especial",
}

// PasswordChecklist lists the unmet password rules, "" when all pass.
func PasswordChecklist(checks []service.PasswordCheck) string {
	var missing []string
	for _, c := range checks {
		if !c.OK {
			missing = append(missing, ruleLabels[c.Rule])
		}
	}
	if len(missing) == 0 {
		return ""
	}
	return "A senha precisa ter: " + strings.Join(missing, ", ") + "."
}
