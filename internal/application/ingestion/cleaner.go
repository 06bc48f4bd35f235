package ingestion

import "strings"

const truncationMarker = "..."

// CleanText 清洗原始文本：去除控制字符与替换符，折叠空白，超长截断
func CleanText(raw string, maxLength int) string {
	var b strings.Builder
	b.Grow(len(raw))

	for _, r := range raw {
		switch {
		case r >= 0x00 && r <= 0x08,
			r == 0x0B, r == 0x0C,
			r >= 0x0E && r <= 0x1F,
			r == 0x7F:
			// 控制字符直接丢弃
		case r == '�':
			// Unicode 替换符来自损坏的编码，丢弃
		default:
			b.WriteRune(r)
		}
	}

	// 折叠连续空白为单个空格
	cleaned := strings.Join(strings.Fields(b.String()), " ")

	if maxLength > 0 {
		runes := []rune(cleaned)
		if len(runes) > maxLength {
			cleaned = string(runes[:maxLength]) + truncationMarker
		}
	}
	return cleaned
}
