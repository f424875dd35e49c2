// Package taxid validates and formats Brazilian taxpayer ids (CPF and CNPJ).
//
// All functions are pure: they never panic and report malformed input as
// invalid instead of returning an error.
package taxid

import (
	"fmt"
	"strings"
)

// Kind identifies which document a digit string looks like.
type Kind string

const (
	KindUnknown Kind = ""
	KindCPF     Kind = "cpf"
	KindCNPJ    Kind = "cnpj"
)

const (
	cpfLen  = 11
	cnpjLen = 14
)

var (
	cnpjWeights1 = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjWeights2 = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// Input is anything a form or a JSON body may hand us as a document.
type Input interface {
	~string | ~int | ~int64 | ~uint64
}

// Digits strips every non-digit character.
func Digits[T Input](v T) string {
	s := fmt.Sprint(v)
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// KindOf reports the document kind implied by the normalized digit count.
func KindOf[T Input](v T) Kind {
	switch len(Digits(v)) {
	case cpfLen:
		return KindCPF
	case cnpjLen:
		return KindCNPJ
	}
	return KindUnknown
}

// ValidCPF reports whether v is a CPF with correct check digits.
func ValidCPF[T Input](v T) bool {
	d := Digits(v)
	if len(d) != cpfLen || repeated(d) {
		return false
	}
	dv1, dv2 := CPFCheckDigits(d[:9])
	return int(d[9]-'0') == dv1 && int(d[10]-'0') == dv2
}

// ValidCNPJ reports whether v is a CNPJ with correct check digits.
func ValidCNPJ[T Input](v T) bool {
	d := Digits(v)
	if len(d) != cnpjLen || repeated(d) {
		return false
	}
	dv1, dv2 := CNPJCheckDigits(d[:12])
	return int(d[12]-'0') == dv1 && int(d[13]-'0') == dv2
}

// Valid dispatches on the normalized length: 11 digits are checked as CPF,
// 14 as CNPJ, anything else is invalid.
func Valid[T Input](v T) bool {
	d := Digits(v)
	switch len(d) {
	case cpfLen:
		return ValidCPF(d)
	case cnpjLen:
		return ValidCNPJ(d)
	}
	return false
}

// CPFCheckDigits computes both check digits for a 9-digit CPF base.
// A base of the wrong size yields (-1, -1).
func CPFCheckDigits(base string) (int, int) {
	if len(base) != 9 || !allDigits(base) {
		return -1, -1
	}
	dv1 := mod11(base, descending(10, 9))
	dv2 := mod11(base+string(rune('0'+dv1)), descending(11, 10))
	return dv1, dv2
}

// CNPJCheckDigits computes both check digits for a 12-digit CNPJ base.
// A base of the wrong size yields (-1, -1).
func CNPJCheckDigits(base string) (int, int) {
	if len(base) != 12 || !allDigits(base) {
		return -1, -1
	}
	dv1 := mod11(base, cnpjWeights1)
	dv2 := mod11(base+string(rune('0'+dv1)), cnpjWeights2)
	return dv1, dv2
}

// Format renders a document with its canonical punctuation. Values that are
// neither a CPF nor a CNPJ by length are returned unchanged.
func Format[T Input](v T) string {
	d := Digits(v)
	switch len(d) {
	case cpfLen:
		return fmt.Sprintf("%s.%s.%s-%s", d[:3], d[3:6], d[6:9], d[9:11])
	case cnpjLen:
		return fmt.Sprintf("%s.%s.%s/%s-%s", d[:2], d[2:5], d[5:8], d[8:12], d[12:14])
	}
	return fmt.Sprint(v)
}

func mod11(digits string, weights []int) int {
	sum := 0
	for i := 0; i < len(digits); i++ {
		sum += int(digits[i]-'0') * weights[i]
	}
	rest := sum % 11
	if rest < 2 {
		return 0
	}
	return 11 - rest
}

func descending(from, n int) []int {
	w := make([]int, n)
	for i := range w {
		w[i] = from - i
	}
	return w
}

func repeated(d string) bool {
	return strings.Count(d, d[:1]) == len(d)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
