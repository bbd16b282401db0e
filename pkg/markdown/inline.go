package markdown

import "regexp"

type SpanKind string

const (
	SpanText   SpanKind = "text"
	SpanCode   SpanKind = "code"
	SpanMath   SpanKind = "math"
	SpanBold   SpanKind = "bold"
	SpanItalic SpanKind = "italic"
)

type Span struct {
	Kind SpanKind `json:"kind"`
	Text string   `json:"text"`
}

type inlineRule struct {
	kind SpanKind
	re   *regexp.Regexp
}

// Order matters: each rule only sees the plain text left over by the rules
// before it. Code goes first so nothing inside backticks is touched.
var inlineRules = []inlineRule{
	{SpanCode, regexp.MustCompile("`([^`]+)`")},
	{SpanMath, regexp.MustCompile(`\$([^$]+)\$`)},
	{SpanBold, regexp.MustCompile(`\*\*([^*]+)\*\*`)},
	{SpanItalic, regexp.MustCompile(`\*([^*]+)\*`)},
}

// Inline tokenizes a fragment into ordered spans. Delimiters without a
// closing partner stay in the text. Emphasis does not nest: "*a **b** c*"
// yields a bold "b" and leaves both single stars literal.
func Inline(text string) []Span {
	if text == "" {
		return nil
	}
	spans := []Span{{Kind: SpanText, Text: text}}
	for _, rule := range inlineRules {
		spans = split(spans, rule)
	}
	return spans
}

func split(spans []Span, rule inlineRule) []Span {
	out := make([]Span, 0, len(spans))
	for _, s := range spans {
		if s.Kind != SpanText {
			out = append(out, s)
			continue
		}
		last := 0
		for _, m := range rule.re.FindAllStringSubmatchIndex(s.Text, -1) {
			if m[0] > last {
				out = append(out, Span{Kind: SpanText, Text: s.Text[last:m[0]]})
			}
			out = append(out, Span{Kind: rule.kind, Text: s.Text[m[2]:m[3]]})
			last = m[1]
		}
		if last < len(s.Text) {
			out = append(out, Span{Kind: SpanText, Text: s.Text[last:]})
		}
	}
	return out
}

// PlainText joins span contents without any markup.
func PlainText(spans []Span) string {
	n := 0
	for _, s := range spans {
		n += len(s.Text)
	}
	b := make([]byte, 0, n)
	for _, s := range spans {
		b = append(b, s.Text...)
	}
	return string(b)
}
