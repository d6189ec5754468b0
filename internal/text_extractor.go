package internal

import (
	"fmt"
	"strings"
)

// BlockText is what ExtractContentBlocks finds in a list of typed content blocks
type BlockText struct {
	Text     string
	Thinking string
}

// ExtractContentBlocks flattens typed content blocks ({"type": "text", ...})
// in three tiers:
// 1. text blocks form the message text
// 2. thinking blocks are collected separately
// 3. tool_use and tool_result blocks are appended as fenced blocks
// Values that are not block lists fall back to FlattenContent.
func ExtractContentBlocks(v any) BlockText {
	blocks, ok := v.([]any)
	if !ok || !isBlockList(blocks) {
		return BlockText{Text: FlattenContent(v)}
	}

	var text, thinking []string
	for _, raw := range blocks {
		block, ok := raw.(map[string]any)
		if !ok {
			text = append(text, FlattenContent(raw))
			continue
		}
		switch stringify(block["type"]) {
		case "text":
			text = append(text, stringify(block["text"]))
		case "thinking":
			if t := stringify(block["thinking"]); t != "" {
				thinking = append(thinking, t)
			} else {
				thinking = append(thinking, stringify(block["text"]))
			}
		case "redacted_thinking":
			// encrypted, nothing readable
		case "tool_use":
			text = append(text, Fence("tool_use "+stringify(block["name"]), stringify(block["input"])))
		case "tool_result":
			text = append(text, Fence("tool_result", FlattenContent(block["content"])))
		case "image", "document":
			text = append(text, fmt.Sprintf("[%s]", stringify(block["type"])))
		default:
			text = append(text, FlattenContent(block))
		}
	}

	return BlockText{
		Text:     strings.Join(nonEmpty(text), "\n\n"),
		Thinking: strings.Join(nonEmpty(thinking), "\n\n"),
	}
}

// isBlockList reports whether every element is an object with a type field
func isBlockList(items []any) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return false
		}
		if _, ok := m["type"].(string); !ok {
			return false
		}
	}
	return true
}

// Fence wraps body in a code fence longer than any backtick run inside it
func Fence(info, body string) string {
	ticks := strings.Repeat("`", max(3, longestRun(body, '`')+1))
	return ticks + info + "\n" + body + "\n" + ticks
}

func longestRun(s string, c rune) int {
	longest, run := 0, 0
	for _, r := range s {
		if r == c {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	return longest
}

func nonEmpty(items []string) []string {
	out := items[:0]
	for _, s := range items {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
