package taxid_test

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/boddenberg/hub-avance-go/internal/taxid"
)

func TestValidCPF_KnownDocuments(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"11144477735", true},
		{"111.444.777-35", true},
		{"529.982.247-25", true},
		{"52998224725", true},
		{"52998224724", false},
		{"1114447773", false},
		{"111444777350", false},
		{"", false},
		{"abc.def.ghi-jk", false},
	}
	for _, tc := range cases {
		if got := taxid.ValidCPF(tc.in); got != tc.want {
			t.Errorf("ValidCPF(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestValidCPF_NumericInput(t *testing.T) {
	if !taxid.ValidCPF(11144477735) {
		t.Error("expected numeric CPF to be valid")
	}
	if !taxid.ValidCPF(int64(52998224725)) {
		t.Error("expected int64 CPF to be valid")
	}
}

func TestValidCPF_RejectsRepeatedDigits(t *testing.T) {
	for d := '0'; d <= '9'; d++ {
		s := strings.Repeat(string(d), 11)
		if taxid.ValidCPF(s) {
			t.Errorf("expected %s to be invalid", s)
		}
	}
}

func TestValidCNPJ_KnownDocuments(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"11.222.333/0001-81", true},
		{"11222333000181", true},
		{"11222333000182", false},
		{"1122233300018", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := taxid.ValidCNPJ(tc.in); got != tc.want {
			t.Errorf("ValidCNPJ(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestValidCNPJ_RejectsRepeatedDigits(t *testing.T) {
	for d := '0'; d <= '9'; d++ {
		s := strings.Repeat(string(d), 14)
		if taxid.ValidCNPJ(s) {
			t.Errorf("expected %s to be invalid", s)
		}
	}
}

func TestValid_DispatchesOnDigitCount(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"111.444.777-35", true},
		{"11.222.333/0001-81", true},
		// a valid CPF padded to 14 digits is checked as CNPJ
		{"00011144477735", false},
		{"123456789012", false},
		{"12345", false},
	}
	for _, tc := range cases {
		if got := taxid.Valid(tc.in); got != tc.want {
			t.Errorf("Valid(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestKindOf(t *testing.T) {
	if k := taxid.KindOf("111.444.777-35"); k != taxid.KindCPF {
		t.Errorf("expected cpf, got %q", k)
	}
	if k := taxid.KindOf("11.222.333/0001-81"); k != taxid.KindCNPJ {
		t.Errorf("expected cnpj, got %q", k)
	}
	if k := taxid.KindOf("123"); k != taxid.KindUnknown {
		t.Errorf("expected unknown, got %q", k)
	}
}

func TestFormat(t *testing.T) {
	if got := taxid.Format("11144477735"); got != "111.444.777-35" {
		t.Errorf("unexpected CPF format %q", got)
	}
	if got := taxid.Format("11222333000181"); got != "11.222.333/0001-81" {
		t.Errorf("unexpected CNPJ format %q", got)
	}
	if got := taxid.Format("12-3"); got != "12-3" {
		t.Errorf("expected passthrough, got %q", got)
	}
}

func TestCheckDigits_WrongBaseSize(t *testing.T) {
	if a, b := taxid.CPFCheckDigits("123"); a != -1 || b != -1 {
		t.Errorf("expected -1,-1 got %d,%d", a, b)
	}
	if a, b := taxid.CNPJCheckDigits("12345678901x"); a != -1 || b != -1 {
		t.Errorf("expected -1,-1 got %d,%d", a, b)
	}
}

func TestGeneratedDocumentsAreValid(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		cpf := generateCPF(rng)
		if !taxid.ValidCPF(cpf) {
			t.Fatalf("generated CPF %s should be valid", cpf)
		}
		cnpj := generateCNPJ(rng)
		if !taxid.ValidCNPJ(cnpj) {
			t.Fatalf("generated CNPJ %s should be valid", cnpj)
		}
	}
}

func TestCheckDigitPositionsCatchEverySubstitution(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		cpf := generateCPF(rng)
		for _, pos := range []int{9, 10} {
			for _, mutated := range substitutions(cpf, pos) {
				if taxid.ValidCPF(mutated) {
					t.Fatalf("substitution %s of %s at %d passed", mutated, cpf, pos)
				}
			}
		}
		cnpj := generateCNPJ(rng)
		for _, pos := range []int{12, 13} {
			for _, mutated := range substitutions(cnpj, pos) {
				if taxid.ValidCNPJ(mutated) {
					t.Fatalf("substitution %s of %s at %d passed", mutated, cnpj, pos)
				}
			}
		}
	}
}

func TestSingleDigitAndTranspositionErrorsAreCaught(t *testing.T) {
	rng := rand.New(rand.NewSource(99))

	var total, caught int
	var swaps, swapsCaught int
	for i := 0; i < 200; i++ {
		cpf := generateCPF(rng)
		for pos := 0; pos < 9; pos++ {
			for _, mutated := range substitutions(cpf, pos) {
				total++
				if !taxid.ValidCPF(mutated) {
					caught++
				}
			}
		}
		for pos := 0; pos < 10; pos++ {
			if cpf[pos] == cpf[pos+1] {
				continue
			}
			swaps++
			if !taxid.ValidCPF(swap(cpf, pos)) {
				swapsCaught++
			}
		}
	}

	if rate := float64(caught) / float64(total); rate < 0.9 {
		t.Errorf("single-digit detection rate too low: %.3f", rate)
	}
	if rate := float64(swapsCaught) / float64(swaps); rate < 0.9 {
		t.Errorf("transposition detection rate too low: %.3f", rate)
	}
}

func TestNeverPanicsOnGarbage(t *testing.T) {
	inputs := []string{"", " ", "\x00", "٣٣٣٣٣٣٣٣٣٣٣", "--------------", "１１１４４４７７７３５"}
	for _, in := range inputs {
		_ = taxid.Valid(in)
		_ = taxid.ValidCPF(in)
		_ = taxid.ValidCNPJ(in)
		_ = taxid.Format(in)
	}
}

func generateCPF(rng *rand.Rand) string {
	for {
		base := randomDigits(rng, 9)
		if strings.Count(base, base[:1]) == len(base) {
			continue
		}
		dv1, dv2 := taxid.CPFCheckDigits(base)
		return fmt.Sprintf("%s%d%d", base, dv1, dv2)
	}
}

func generateCNPJ(rng *rand.Rand) string {
	for {
		base := randomDigits(rng, 12)
		if strings.Count(base, base[:1]) == len(base) {
			continue
		}
		dv1, dv2 := taxid.CNPJCheckDigits(base)
		return fmt.Sprintf("%s%d%d", base, dv1, dv2)
	}
}

func randomDigits(rng *rand.Rand, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('0' + rng.Intn(10))
	}
	return string(b)
}

func substitutions(doc string, pos int) []string {
	out := make([]string, 0, 9)
	for d := byte('0'); d <= '9'; d++ {
		if doc[pos] == d {
			continue
		}
		b := []byte(doc)
		b[pos] = d
		out = append(out, string(b))
	}
	return out
}

func swap(doc string, pos int) string {
	b := []byte(doc)
	b[pos], b[pos+1] = b[pos+1], b[pos]
	return string(b)
}
