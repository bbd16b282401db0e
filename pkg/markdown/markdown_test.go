package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_Heading(t *testing.T) {
	blocks := Render("# Title")
	require.Len(t, blocks, 1)
	assert.Equal(t, BlockHeading, blocks[0].Kind)
	assert.Equal(t, 1, blocks[0].Level)
	assert.Equal(t, []Span{{Kind: SpanText, Text: "Title"}}, blocks[0].Spans)
}

func TestRender_HeadingLevels(t *testing.T) {
	blocks := Render("### three\n## two\n# one\n#### four")
	require.Len(t, blocks, 4)
	assert.Equal(t, 3, blocks[0].Level)
	assert.Equal(t, 2, blocks[1].Level)
	assert.Equal(t, 1, blocks[2].Level)
	// four hashes is not a heading we know about
	assert.Equal(t, BlockParagraph, blocks[3].Kind)
}

func TestRender_FencedCode(t *testing.T) {
	blocks := Render("```js\ncode\n```")
	require.Len(t, blocks, 1)
	assert.Equal(t, BlockCode, blocks[0].Kind)
	assert.Equal(t, "js", blocks[0].Language)
	assert.Equal(t, "code", blocks[0].Code)
	assert.Empty(t, blocks[0].Spans)
}

func TestRender_FencedCodeIsVerbatim(t *testing.T) {
	blocks := Render("```\n**not bold** `x`\n- not a list\n```\nafter")
	require.Len(t, blocks, 2)
	assert.Equal(t, "", blocks[0].Language)
	assert.Equal(t, "**not bold** `x`\n- not a list", blocks[0].Code)
	assert.Equal(t, BlockParagraph, blocks[1].Kind)
}

func TestRender_UnclosedFenceRunsToEnd(t *testing.T) {
	blocks := Render("intro\n```go\nfunc main() {}\n\n# still code")
	require.Len(t, blocks, 2)
	assert.Equal(t, BlockCode, blocks[1].Kind)
	assert.Equal(t, "go", blocks[1].Language)
	assert.Equal(t, "func main() {}\n\n# still code", blocks[1].Code)
}

func TestRender_BulletListGroups(t *testing.T) {
	blocks := Render("- a\n- b")
	require.Len(t, blocks, 1)
	assert.Equal(t, BlockBulletList, blocks[0].Kind)
	assert.Equal(t, [][]Span{
		{{Kind: SpanText, Text: "a"}},
		{{Kind: SpanText, Text: "b"}},
	}, blocks[0].Items)
}

func TestRender_MixedBulletMarkersShareList(t *testing.T) {
	blocks := Render("- a\n* b\ntext\n- c")
	require.Len(t, blocks, 3)
	assert.Len(t, blocks[0].Items, 2)
	assert.Equal(t, BlockParagraph, blocks[1].Kind)
	assert.Len(t, blocks[2].Items, 1)
}

func TestRender_NumberedList(t *testing.T) {
	blocks := Render("1. first\n2. **second**\n10. tenth")
	require.Len(t, blocks, 1)
	assert.Equal(t, BlockNumberedList, blocks[0].Kind)
	require.Len(t, blocks[0].Items, 3)
	assert.Equal(t, []Span{{Kind: SpanText, Text: "first"}}, blocks[0].Items[0])
	assert.Equal(t, []Span{{Kind: SpanBold, Text: "second"}}, blocks[0].Items[1])
	assert.Equal(t, []Span{{Kind: SpanText, Text: "tenth"}}, blocks[0].Items[2])
}

func TestRender_BlockquoteAndBreaks(t *testing.T) {
	blocks := Render("> note *this*\n\n   \nend")
	require.Len(t, blocks, 4)
	assert.Equal(t, BlockQuote, blocks[0].Kind)
	assert.Equal(t, []Span{{Kind: SpanText, Text: "note "}, {Kind: SpanItalic, Text: "this"}}, blocks[0].Spans)
	assert.Equal(t, BlockBreak, blocks[1].Kind)
	assert.Equal(t, BlockBreak, blocks[2].Kind)
	assert.Equal(t, BlockParagraph, blocks[3].Kind)
}

func TestRender_CRLF(t *testing.T) {
	blocks := Render("# A\r\n- b\r\n")
	require.Len(t, blocks, 3)
	assert.Equal(t, "A", PlainText(blocks[0].Spans))
	assert.Equal(t, "b", PlainText(blocks[1].Items[0]))
	assert.Equal(t, BlockBreak, blocks[2].Kind)
}

func TestRender_NonEmptyInputAlwaysYieldsBlocks(t *testing.T) {
	inputs := []string{" ", "\n", "*", "```", "> ", "-", "1.", "$", "`", "**", "plain"}
	for _, in := range inputs {
		assert.NotEmpty(t, Render(in), "input %q", in)
	}
	assert.Empty(t, Render(""))
}

func TestInline_Precedence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Span
	}{
		{
			name: "unbalanced italic stays literal",
			in:   "*foo",
			want: []Span{{Kind: SpanText, Text: "*foo"}},
		},
		{
			name: "code protects contents",
			in:   "use `**x**` and **y**",
			want: []Span{
				{Kind: SpanText, Text: "use "},
				{Kind: SpanCode, Text: "**x**"},
				{Kind: SpanText, Text: " and "},
				{Kind: SpanBold, Text: "y"},
			},
		},
		{
			name: "math before emphasis",
			in:   "$a*b*c$ is *fine*",
			want: []Span{
				{Kind: SpanMath, Text: "a*b*c"},
				{Kind: SpanText, Text: " is "},
				{Kind: SpanItalic, Text: "fine"},
			},
		},
		{
			name: "bold before italic",
			in:   "**bold** then *it*",
			want: []Span{
				{Kind: SpanBold, Text: "bold"},
				{Kind: SpanText, Text: " then "},
				{Kind: SpanItalic, Text: "it"},
			},
		},
		{
			name: "placeholder-shaped text is just text",
			in:   "__BOLD_0__ **x**",
			want: []Span{
				{Kind: SpanText, Text: "__BOLD_0__ "},
				{Kind: SpanBold, Text: "x"},
			},
		},
		{
			name: "nested emphasis is not recognised",
			in:   "*a **b** c*",
			want: []Span{
				{Kind: SpanText, Text: "*a "},
				{Kind: SpanBold, Text: "b"},
				{Kind: SpanText, Text: " c*"},
			},
		},
		{
			name: "empty code span is literal",
			in:   "``",
			want: []Span{{Kind: SpanText, Text: "``"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Inline(tt.in))
		})
	}
}

func TestInline_PreservesAllText(t *testing.T) {
	in := "a `b` $c$ **d** *e* f"
	spans := Inline(in)
	assert.Equal(t, "a b c d e f", PlainText(spans))
}

func TestRenderHTML(t *testing.T) {
	out, err := RenderHTML(Render("# Hi\n- **a**\n```go\nx < y\n```\n<script>"))
	require.NoError(t, err)
	assert.Equal(t,
		`<h1>Hi</h1><ul><li><strong>a</strong></li></ul><pre><code data-language="go">x &lt; y</code></pre><p>&lt;script&gt;</p>`,
		out)
	assert.False(t, strings.Contains(out, "<script>"))
}
