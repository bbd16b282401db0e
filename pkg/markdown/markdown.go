// Package markdown turns LLM answers into a flat list of display blocks.
//
// It understands a deliberately small subset: up to three heading levels,
// fenced code, single-line blockquotes, bullet and numbered lists, and the
// inline spans code, math, bold and italic. Anything it does not recognise
// is kept as paragraph text, so Render never fails.
package markdown

import (
	"regexp"
	"strings"
)

type BlockKind string

const (
	BlockBreak        BlockKind = "break"
	BlockHeading      BlockKind = "heading"
	BlockParagraph    BlockKind = "paragraph"
	BlockCode         BlockKind = "code"
	BlockQuote        BlockKind = "blockquote"
	BlockBulletList   BlockKind = "bullet_list"
	BlockNumberedList BlockKind = "numbered_list"
)

// Block is one display unit. Which fields are set depends on Kind:
// headings use Level and Spans, code uses Language and Code, lists use Items.
type Block struct {
	Kind     BlockKind `json:"kind"`
	Level    int       `json:"level,omitempty"`
	Language string    `json:"language,omitempty"`
	Code     string    `json:"code,omitempty"`
	Spans    []Span    `json:"spans,omitempty"`
	Items    [][]Span  `json:"items,omitempty"`
}

const fence = "```"

var numberedItem = regexp.MustCompile(`^\d+\.\s`)

var headingPrefixes = []struct {
	prefix string
	level  int
}{
	{"### ", 3},
	{"## ", 2},
	{"# ", 1},
}

// Render parses text line by line. The empty string yields no blocks.
func Render(text string) []Block {
	if text == "" {
		return nil
	}

	lines := splitLines(text)
	blocks := make([]Block, 0, len(lines))

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if strings.TrimSpace(line) == "" {
			blocks = append(blocks, Block{Kind: BlockBreak})
			continue
		}

		if level, rest, ok := heading(line); ok {
			blocks = append(blocks, Block{Kind: BlockHeading, Level: level, Spans: Inline(rest)})
			continue
		}

		switch {
		case strings.HasPrefix(line, fence):
			lang := strings.TrimSpace(line[len(fence):])
			var code []string
			i++
			for i < len(lines) && !strings.HasPrefix(lines[i], fence) {
				code = append(code, lines[i])
				i++
			}
			// i now sits on the closing fence (or past the end), which the loop skips.
			blocks = append(blocks, Block{Kind: BlockCode, Language: lang, Code: strings.Join(code, "\n")})

		case strings.HasPrefix(line, "> "):
			blocks = append(blocks, Block{Kind: BlockQuote, Spans: Inline(line[2:])})

		case isBullet(line):
			var items [][]Span
			for i < len(lines) && isBullet(lines[i]) {
				items = append(items, Inline(lines[i][2:]))
				i++
			}
			i--
			blocks = append(blocks, Block{Kind: BlockBulletList, Items: items})

		case numberedItem.MatchString(line):
			var items [][]Span
			for i < len(lines) && numberedItem.MatchString(lines[i]) {
				items = append(items, Inline(numberedItem.ReplaceAllString(lines[i], "")))
				i++
			}
			i--
			blocks = append(blocks, Block{Kind: BlockNumberedList, Items: items})

		default:
			blocks = append(blocks, Block{Kind: BlockParagraph, Spans: Inline(line)})
		}
	}

	return blocks
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func heading(line string) (int, string, bool) {
	for _, h := range headingPrefixes {
		if strings.HasPrefix(line, h.prefix) {
			return h.level, line[len(h.prefix):], true
		}
	}
	return 0, "", false
}

func isBullet(line string) bool {
	return strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ")
}
