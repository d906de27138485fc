package markdown

import "testing"

func spans(text string) []Span { return []Span{{Text: text}} }

func TestRender(t *testing.T) {
	blocks := []Block{
		{Type: Heading1, Spans: spans("Plan")},
		{Type: Paragraph, Spans: []Span{{Text: "Read "}, {Text: "docs", Href: "https://example.com"}, {Text: " now", Bold: true}}},
		{Type: NumberedItem, Spans: spans("one")},
		{Type: NumberedItem, Spans: spans("two")},
		{Type: ToDo, Spans: spans("ship"), Checked: true},
		{Type: ToDo, Spans: spans("test")},
		{Type: "image"},
		{Type: Divider},
		{Type: NumberedItem, Spans: spans("restart")},
		{Type: Code, Language: "go", Spans: []Span{{Text: "x := 1", Bold: true}}},
		{Type: Callout, Icon: "💡", Spans: spans("tip")},
	}

	want := "# Plan\n" +
		"\n" +
		"Read [docs](https://example.com)** now**\n" +
		"\n" +
		"1. one\n" +
		"2. two\n" +
		"- [x] ship\n" +
		"- [ ] test\n" +
		"\n" +
		"---\n" +
		"\n" +
		"1. restart\n" +
		"\n" +
		"```go\nx := 1\n```\n" +
		"\n" +
		"> 💡 tip\n"

	if got := Render(blocks); got != want {
		t.Errorf("Render() =\n%q\nwant\n%q", got, want)
	}
}

func TestFormatSpansStyles(t *testing.T) {
	got := FormatSpans([]Span{{Text: "a", Italic: true}, {Text: "b", Code: true}, {Text: "c", Strike: true}, {Text: ""}})
	if got != "_a_`b`~~c~~" {
		t.Errorf("FormatSpans = %q", got)
	}
}

func TestRenderEmpty(t *testing.T) {
	if got := Render(nil); got != "" {
		t.Errorf("Render(nil) = %q", got)
	}
}
