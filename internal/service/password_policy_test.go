package service_test

import (
	"testing"

	"github.com/boddenberg/hub-avance-go/internal/service"
)

func TestCheckPassword(t *testing.T) {
	tests := []struct {
		pw     string
		failed []service.PasswordRule
	}{
		{"Aa1!aaaa", nil},
		{"Senh@F0rte", nil},
		{"aaaaaaaa", []service.PasswordRule{service.RuleUpper, service.RuleDigit, service.RuleSpecial}},
		{"Aa1!", []service.PasswordRule{service.RuleLength}},
		{"AAAA1111!", []service.PasswordRule{service.RuleLower}},
		{"", []service.PasswordRule{service.RuleLength, service.RuleUpper, service.RuleLower, service.RuleDigit, service.RuleSpecial}},
	}

	for _, tt := range tests {
		checks := service.CheckPassword(tt.pw)
		if len(checks) != 5 {
			t.Fatalf("expected 5 checks, got %d", len(checks))
		}
		var failed []service.PasswordRule
		for _, c := range checks {
			if !c.OK {
				failed = append(failed, c.Rule)
			}
		}
		if len(failed) != len(tt.failed) {
			t.Errorf("%q: expected failures %v, got %v", tt.pw, tt.failed, failed)
			continue
		}
		for i := range failed {
			if failed[i] != tt.failed[i] {
				t.Errorf("%q: expected failures %v, got %v", tt.pw, tt.failed, failed)
				break
			}
		}
		if service.PasswordStrong(tt.pw) != (len(tt.failed) == 0) {
			t.Errorf("%q: PasswordStrong disagrees with checks", tt.pw)
		}
	}
}

func TestCheckPassword_CountsRunesNotBytes(t *testing.T) {
	// 7 runes, 9 bytes
	if service.PasswordStrong("Çç1!abc") {
		t.Error("length must be measured in characters")
	}
}
