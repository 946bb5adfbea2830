package auth

import (
	"strconv"
	"strings"

	"edge-gate/internal/domain"
)

// sqlMetaReplacer remove o conjunto fixo de metacaracteres SQL de entrada
// livre. As queries são parametrizadas; isto é uma camada extra nos endpoints
// que aceitam token/texto de fora.
var sqlMetaReplacer = strings.NewReplacer(
	"'", "",
	`"`, "",
	";", "",
	"--", "",
	"\\", "",
	"/*", "",
	"*/", "",
)

// SanitizeText remove metacaracteres SQL e limita o tamanho da entrada.
func SanitizeText(input string, maxLen int) string {
	s := strings.TrimSpace(input)
	s = sqlMetaReplacer.Replace(s)
	if maxLen > 0 && len(s) > maxLen {
		s = s[:maxLen]
	}
	return s
}

// ParseID valida um identificador numérico, rejeitando valores não numéricos
// ou não positivos.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidIdentifier
	}
	return id, nil
}
