package internal

import (
	"regexp"
	"strings"
)

// structuralLine matches lines the Markdown parsers read as document
// structure: bold labels, headings, thinking blocks and attachment bullets
var structuralLine = regexp.MustCompile(`^(\*\*[^*\n]+:\*\*|#{1,6}(\s|$)|</?details\b|<summary\b|- 📎 )`)

// IsStructuralLine reports whether line would be read as structure, ignoring
// any escaping backslashes in front of it
func IsStructuralLine(line string) bool {
	return structuralLine.MatchString(strings.TrimLeft(line, `\`))
}

// EscapeMarkdownLines prefixes every structural-looking line of s with a
// backslash so message text cannot be mistaken for document structure
func EscapeMarkdownLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if IsStructuralLine(line) {
			lines[i] = `\` + line
		}
	}
	return strings.Join(lines, "\n")
}

// UnescapeMarkdownLine reverses EscapeMarkdownLines for one line
func UnescapeMarkdownLine(line string) string {
	if strings.HasPrefix(line, `\`) && IsStructuralLine(line) {
		return line[1:]
	}
	return line
}

// TrimBlankLines drops leading and trailing whitespace-only lines, keeping the
// indentation of the remaining text
func TrimBlankLines(lines []string) []string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}

// HeadingSlug returns the GitHub style anchor for a heading
func HeadingSlug(heading string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(heading)) {
		switch {
		case r == ' ':
			sb.WriteByte('-')
		case r == '-' || r == '_' || ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') || r > 127:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
