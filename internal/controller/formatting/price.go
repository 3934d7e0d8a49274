package formatting

import (
	"strconv"
	"strings"
)

// FormatPrice форматирует цену в рупиях с разделителем тысяч
func FormatPrice(price int64) string {
	if price <= 0 {
		return "Free"
	}

	digits := strconv.FormatInt(price, 10)
	var sb strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			sb.WriteByte('.')
		}
		sb.WriteRune(d)
	}
	return "Rp " + sb.String()
}
