package main

import "strings"

// parseCommandLine 按空白分词，支持单双引号与反斜杠转义。
func parseCommandLine(line string) []string {
	var (
		parts   []string
		current strings.Builder
		quote   rune
		escaped bool
		started bool // 当前词已开始，用于保留空引号 ""
	)
	flush := func() {
		if started {
			parts = append(parts, current.String())
			current.Reset()
			started = false
		}
	}

	for _, r := range line {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped, started = true, true
		case quote != 0 && r == quote:
			quote = 0
		case quote == 0 && (r == '"' || r == '\''):
			quote, started = r, true
		case quote == 0 && (r == ' ' || r == '\t'):
			flush()
		default:
			current.WriteRune(r)
			started = true
		}
	}
	flush()
	return parts
}
