package observability

import (
	"encoding/hex"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// EmailRef returns a stable pseudonym for an email so log lines can be
// correlated without storing the address itself.
func EmailRef(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:8])
}

// Email is a zap field carrying the pseudonymized email.
func Email(email string) zap.Field {
	return zap.String("email_ref", EmailRef(email))
}
