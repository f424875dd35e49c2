package domain

// ============================================================
// Registration & password reset: request / response bodies
// ============================================================

// RegisterRequest is the body for POST /api/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
	CPF      string `json:"cpf"`
	WhatsApp string `json:"whatsapp,omitempty"`
}

// RegisterResponse is the 200 body for POST /api/register.
type RegisterResponse struct {
	OK                     bool   `json:"ok"`
	NeedsEmailConfirmation bool   `json:"needs_email_confirmation"`
	EmailRedirectTo        string `json:"email_redirect_to"`
}

// ForgotPasswordRequest is the body for POST /api/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// OKResponse is the bare success body.
type OKResponse struct {
	OK bool `json:"ok"`
}
