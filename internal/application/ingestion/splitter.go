package ingestion

import "strings"

// 分块边界按优先级尝试：段落、换行、句末、空格
var boundarySeparators = []string{"\n\n", "\n", ". ", "。", " "}

// Split 将文本切为带重叠的分块（按 rune 计数）
// 每块在窗口内尽量收敛到自然边界，避免截断句子
func Split(text string, chunkSize, overlap int) []string {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return nil
	}
	if chunkSize <= 0 {
		return []string{raw}
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 2
	}

	runes := []rune(raw)
	if len(runes) <= chunkSize {
		return []string{raw}
	}

	out := make([]string, 0, (len(runes)/(chunkSize-overlap))+1)
	start := 0
	for start < len(runes) {
		end := start + chunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = boundaryBefore(runes, start, end)
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			out = append(out, chunk)
		}
		if end >= len(runes) {
			break
		}

		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return out
}

// boundaryBefore 在 [start+chunkSize/2, end) 范围内从后向前找自然边界
// 找不到则保持 end 不变（硬切）
func boundaryBefore(runes []rune, start, end int) int {
	window := string(runes[start:end])
	minIndex := (end - start) / 2

	for _, sep := range boundarySeparators {
		idx := strings.LastIndex(window, sep)
		if idx < 0 {
			continue
		}
		// 回到 rune 偏移
		runeIdx := len([]rune(window[:idx]))
		if runeIdx < minIndex {
			continue
		}
		return start + runeIdx + len([]rune(sep))
	}
	return end
}
