package domain

import (
	"errors"
	"strings"
)

var (
	ErrCPFLength   = errors.New("cpf must have 11 digits")
	ErrCPFRepeated = errors.New("cpf cannot be a repeated digit sequence")
	ErrCPFChecksum = errors.New("cpf check digits do not match")
)

// SanitizeCPF strips every non-digit character.
func SanitizeCPF(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateCPF checks length, repeated digits and both check digits of a CPF.
func ValidateCPF(value string) error {
	digits := SanitizeCPF(value)
	if len(digits) != 11 {
		return ErrCPFLength
	}
	if strings.Count(digits, digits[:1]) == len(digits) {
		return ErrCPFRepeated
	}

	d1 := cpfCheckDigit(digits[:9], 10)
	d2 := cpfCheckDigit(digits[:9]+string(rune('0'+d1)), 11)
	if int(digits[9]-'0') != d1 || int(digits[10]-'0') != d2 {
		return ErrCPFChecksum
	}
	return nil
}

func cpfCheckDigit(base string, factor int) int {
	total := 0
	for i := 0; i < len(base); i++ {
		total += int(base[i]-'0') * (factor - i)
	}
	rest := total % 11
	if rest < 2 {
		return 0
	}
	return 11 - rest
}

// FormatCPF renders a CPF as 000.000.000-00, returning the input unchanged when it is not 11 digits.
func FormatCPF(value string) string {
	digits := SanitizeCPF(value)
	if len(digits) != 11 {
		return value
	}
	return digits[:3] + "." + digits[3:6] + "." + digits[6:9] + "-" + digits[9:]
}
