// Package markdown renders page blocks as markdown text.
package markdown

import (
	"strconv"
	"strings"
)

// Block types rendered by Render. Anything else is skipped.
const (
	Paragraph    = "paragraph"
	Heading1     = "heading_1"
	Heading2     = "heading_2"
	Heading3     = "heading_3"
	BulletedItem = "bulleted_list_item"
	NumberedItem = "numbered_list_item"
	ToDo         = "to_do"
	Quote        = "quote"
	Code         = "code"
	Divider      = "divider"
	Callout      = "callout"
)

// Span is a run of text with optional styling.
type Span struct {
	Text   string
	Href   string
	Bold   bool
	Italic bool
	Strike bool
	Code   bool
}

// Block is one top-level block of a page.
type Block struct {
	Type     string
	Spans    []Span
	Checked  bool   // to_do
	Language string // code
	Icon     string // callout emoji
}

// FormatSpans renders spans with inline markdown markers.
func FormatSpans(spans []Span) string {
	var sb strings.Builder
	for _, s := range spans {
		text := s.Text
		if text == "" {
			continue
		}
		if s.Code {
			text = "`" + text + "`"
		}
		if s.Bold {
			text = "**" + text + "**"
		}
		if s.Italic {
			text = "_" + text + "_"
		}
		if s.Strike {
			text = "~~" + text + "~~"
		}
		if s.Href != "" {
			text = "[" + text + "](" + s.Href + ")"
		}
		sb.WriteString(text)
	}
	return sb.String()
}

// PlainText concatenates span text without styling.
func PlainText(spans []Span) string {
	var sb strings.Builder
	for _, s := range spans {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// Render writes blocks as markdown. Consecutive list items stay together;
// every other block is separated by a blank line. Numbered items count up
// within a run and restart after any other block.
func Render(blocks []Block) string {
	var sb strings.Builder
	number := 0
	prevList := false

	for _, b := range blocks {
		line, isList, ok := renderBlock(b, &number)
		if !ok {
			continue
		}
		if b.Type != NumberedItem {
			number = 0
		}
		if sb.Len() > 0 && !(isList && prevList) {
			sb.WriteString("\n")
		}
		sb.WriteString(line)
		sb.WriteString("\n")
		prevList = isList
	}
	return sb.String()
}

func renderBlock(b Block, number *int) (line string, isList, ok bool) {
	text := FormatSpans(b.Spans)

	switch b.Type {
	case Paragraph:
		return text, false, true
	case Heading1:
		return "# " + text, false, true
	case Heading2:
		return "## " + text, false, true
	case Heading3:
		return "### " + text, false, true
	case BulletedItem:
		return "- " + text, true, true
	case NumberedItem:
		*number++
		return strconv.Itoa(*number) + ". " + text, true, true
	case ToDo:
		mark := " "
		if b.Checked {
			mark = "x"
		}
		return "- [" + mark + "] " + text, true, true
	case Quote:
		return "> " + strings.ReplaceAll(text, "\n", "\n> "), false, true
	case Code:
		return "```" + b.Language + "\n" + PlainText(b.Spans) + "\n```", false, true
	case Divider:
		return "---", false, true
	case Callout:
		if b.Icon != "" {
			text = b.Icon + " " + text
		}
		return "> " + strings.ReplaceAll(text, "\n", "\n> "), false, true
	}
	return "", false, false
}
