package service

import "unicode"

// MinPasswordLength is the shortest password the policy accepts.
const MinPasswordLength = 8

// PasswordRule names one requirement of the password policy.
type PasswordRule string

const (
	RuleLength  PasswordRule = "length"
	RuleUpper   PasswordRule = "upper"
	RuleLower   PasswordRule = "lower"
	RuleDigit   PasswordRule = "digit"
	RuleSpecial PasswordRule = "special"
)

// PasswordCheck is the outcome of one rule.
type PasswordCheck struct {
	Rule PasswordRule
	OK   bool
}

// CheckPassword evaluates every rule, in a fixed order, so callers can
// render a checklist.
func CheckPassword(pw string) []PasswordCheck {
	var n int
	var upper, lower, digit, special bool
	for _, r := range pw {
		n++
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case !unicode.IsSpace(r):
			special = true
		}
	}
	return []PasswordCheck{
		{RuleLength, n >= MinPasswordLength},
		{RuleUpper, upper},
		{RuleLower, lower},
		{RuleDigit, digit},
		{RuleSpecial, special},
	}
}

// PasswordStrong reports whether pw passes every rule.
func PasswordStrong(pw string) bool {
	for _, c := range CheckPassword(pw) {
		if !c.OK {
			return false
		}
	}
	return true
}
