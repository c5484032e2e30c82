package render

import (
	"strings"

	"github.com/goccy/go-json"
	"github.com/mattn/go-runewidth"
	"github.com/microcosm-cc/bluemonday"
	xhtml "golang.org/x/net/html"
)

var policy = bluemonday.UGCPolicy()

// PostToText converts post or comment content to wrapped plain text.
// Content is either an editor delta (a JSON array of insert operations)
// or HTML; HTML is sanitized before it is read.
func PostToText(content string, width int) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}
	if text, ok := deltaToText(content); ok {
		return wrapText(strings.TrimSpace(text), width)
	}
	return htmlToText(policy.Sanitize(content), width)
}

type deltaOp struct {
	Insert json.RawMessage `json:"insert"`
}

// deltaToText flattens a delta document. Embeds such as images render as
// a bracketed placeholder naming the embed type.
func deltaToText(content string) (string, bool) {
	if !strings.HasPrefix(content, "[") {
		return "", false
	}
	var ops []deltaOp
	if err := json.Unmarshal([]byte(content), &ops); err != nil {
		return "", false
	}
	var sb strings.Builder
	for _, op := range ops {
		if len(op.Insert) == 0 {
			continue
		}
		var s string
		if err := json.Unmarshal(op.Insert, &s); err == nil {
			sb.WriteString(s)
			continue
		}
		var embed map[string]json.RawMessage
		if err := json.Unmarshal(op.Insert, &embed); err == nil {
			for kind := range embed {
				sb.WriteString("[" + kind + "]")
				break
			}
		}
	}
	return sb.String(), true
}

// htmlToText renders the handful of tags rich text uses: paragraphs,
// breaks, emphasis, inline code, code blocks, list items and links.
func htmlToText(raw string, width int) string {
	tokenizer := xhtml.NewTokenizer(strings.NewReader(raw))
	var sb strings.Builder
	var inPre bool
	var anchorURL string

	for {
		tt := tokenizer.Next()
		switch tt {
		case xhtml.ErrorToken:
			return wrapText(strings.TrimSpace(sb.String()), width)

		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			t := tokenizer.Token()
			switch t.Data {
			case "p", "blockquote":
				if sb.Len() > 0 {
					sb.WriteString("\n\n")
				}
			case "br":
				sb.WriteString("\n")
			case "li":
				sb.WriteString("\n- ")
			case "i", "em":
				sb.WriteString("*")
			case "b", "strong":
				sb.WriteString("**")
			case "code":
				if !inPre {
					sb.WriteString("`")
				}
			case "pre":
				inPre = true
				sb.WriteString("\n")
			case "a":
				for _, attr := range t.Attr {
					if attr.Key == "href" {
						anchorURL = attr.Val
					}
				}
			case "img":
				sb.WriteString("[image]")
			}

		case xhtml.EndTagToken:
			t := tokenizer.Token()
			switch t.Data {
			case "i", "em":
				sb.WriteString("*")
			case "b", "strong":
				sb.WriteString("**")
			case "code":
				if !inPre {
					sb.WriteString("`")
				}
			case "pre":
				inPre = false
				sb.WriteString("\n")
			case "a":
				if anchorURL != "" && !strings.HasSuffix(strings.TrimSpace(sb.String()), anchorURL) {
					sb.WriteString(" [" + anchorURL + "]")
				}
				anchorURL = ""
			}

		case xhtml.TextToken:
			text := string(tokenizer.Text())
			if !inPre {
				sb.WriteString(text)
				continue
			}
			// Code blocks keep their whitespace, indented four spaces.
			for i, line := range strings.Split(text, "\n") {
				if i > 0 {
					sb.WriteString("\n")
				}
				if line != "" {
					sb.WriteString("    " + line)
				}
			}
		}
	}
}

// wrapText performs simple word wrapping to the given display width.
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	var result strings.Builder
	for _, paragraph := range strings.Split(text, "\n") {
		if strings.HasPrefix(paragraph, "    ") {
			result.WriteString(paragraph + "\n")
			continue
		}
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			result.WriteString("\n")
			continue
		}
		lineLen := 0
		for i, word := range words {
			wlen := runewidth.StringWidth(word)
			if i > 0 && lineLen+1+wlen > width {
				result.WriteString("\n")
				lineLen = 0
			} else if i > 0 {
				result.WriteString(" ")
				lineLen++
			}
			result.WriteString(word)
			lineLen += wlen
		}
		result.WriteString("\n")
	}
	return strings.TrimRight(result.String(), "\n")
}

// TextToDelta wraps plain text as a single-insert editor delta, the format
// the server stores post and comment content in.
func TextToDelta(text string) string {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	out, err := json.Marshal([]map[string]string{{"insert": text}})
	if err != nil {
		return "[]"
	}
	return string(out)
}
