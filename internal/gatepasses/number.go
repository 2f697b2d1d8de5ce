package gatepasses

import (
	"fmt"
	"strings"
)

const defaultNumberPrefix = "GP"

// FormatNumber renders a pass number such as GP-2024-0004.
func FormatNumber(prefix string, year, seq int) string {
	if prefix == "" {
		prefix = defaultNumberPrefix
	}
	return fmt.Sprintf("%s-%d-%04d", prefix, year, seq)
}

func normalizeNumber(number string) string {
	return strings.TrimSpace(number)
}
