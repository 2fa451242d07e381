package customer

import (
	"fmt"
	"strings"
)

// cuitWeights are the mod-11 multipliers for the first ten CUIT digits.
var cuitWeights = [10]int{5, 4, 3, 2, 7, 6, 5, 4, 3, 2}

// NormalizeCUIT strips dashes and spaces from a CUIT.
func NormalizeCUIT(cuit string) string {
	var b strings.Builder
	b.Grow(len(cuit))
	for _, r := range cuit {
		if r == '-' || r == ' ' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ValidateCUIT checks the format and mod-11 check digit of a CUIT.
// The input may contain dashes (XX-XXXXXXXX-X).
func ValidateCUIT(cuit string) error {
	clean := NormalizeCUIT(cuit)

	if len(clean) != 11 {
		return &ValidationError{Field: "cuit", Message: "el CUIT debe tener 11 dígitos"}
	}
	for _, r := range clean {
		if r < '0' || r > '9' {
			return &ValidationError{Field: "cuit", Message: "el CUIT debe ser numérico"}
		}
	}

	sum := 0
	for i := 0; i < 10; i++ {
		sum += int(clean[i]-'0') * cuitWeights[i]
	}

	rem := sum % 11
	if rem == 1 {
		// No valid check digit exists for this prefix.
		return &ValidationError{Field: "cuit", Message: "CUIT inválido: dígito verificador incorrecto"}
	}
	check := 0
	if rem != 0 {
		check = 11 - rem
	}
	if int(clean[10]-'0') != check {
		return &ValidationError{Field: "cuit", Message: "CUIT inválido: dígito verificador incorrecto"}
	}
	return nil
}

// FormatCUIT renders a CUIT with dashes (XX-XXXXXXXX-X). Inputs that are not
// eleven digits long are returned unchanged.
func FormatCUIT(cuit string) string {
	clean := NormalizeCUIT(cuit)
	if len(clean) != 11 {
		return cuit
	}
	return fmt.Sprintf("%s-%s-%s", clean[:2], clean[2:10], clean[10:])
}
