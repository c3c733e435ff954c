package loader

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
)

// extractPDFText concatenates per-page text in page order, pages separated by
// a blank line. An empty or image-only PDF yields an empty string.
func extractPDFText(data []byte) (string, error) {
	conf := api.LoadConfiguration()
	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return "", fmt.Errorf("validate pdf: %w", err)
	}

	var pages []string
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w", pageNr, err)
		}
		if r == nil {
			continue
		}
		content, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("read page %d: %w", pageNr, err)
		}
		if text := decodePageText(content); text != "" {
			pages = append(pages, text)
		}
	}

	return strings.Join(pages, "\n\n"), nil
}

// decodePageText pulls shown text out of a decoded page content stream.
// It collects string operands of the text-showing operators (Tj, TJ, ', ")
// and turns text-positioning operators (Td, TD, T*) into line breaks. Fonts
// with multi-byte encodings are beyond what this extractor resolves.
func decodePageText(content []byte) string {
	var out strings.Builder
	var pending []string

	flush := func() {
		for _, s := range pending {
			out.WriteString(s)
		}
		pending = pending[:0]
	}

	i := 0
	for i < len(content) {
		c := content[i]
		switch {
		case c == '(':
			s, next := parseLiteralString(content, i)
			pending = append(pending, s)
			i = next
		case c == '<' && i+1 < len(content) && content[i+1] != '<':
			s, next := parseHexString(content, i)
			pending = append(pending, s)
			i = next
		case c == '%':
			for i < len(content) && content[i] != '\n' {
				i++
			}
		case isOperatorChar(c):
			start := i
			for i < len(content) && isOperatorChar(content[i]) {
				i++
			}
			switch string(content[start:i]) {
			case "Tj", "TJ":
				flush()
			case "'", "\"":
				newline(&out)
				flush()
			case "Td", "TD", "T*", "ET":
				pending = pending[:0]
				newline(&out)
			case "BT":
				pending = pending[:0]
			default:
				// strings may appear as operands of non-text operators
				pending = pending[:0]
			}
		default:
			i++
		}
	}

	return strings.TrimSpace(out.String())
}

func newline(out *strings.Builder) {
	s := out.String()
	if s != "" && !strings.HasSuffix(s, "\n") {
		out.WriteByte('\n')
	}
}

func isOperatorChar(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c == '*' || c == '\'' || c == '"'
}

// parseLiteralString reads a (...) string starting at open. Handles nested
// parentheses, the standard escapes and octal codes.
func parseLiteralString(content []byte, open int) (string, int) {
	var b strings.Builder
	depth := 0
	i := open
	for i < len(content) {
		c := content[i]
		switch c {
		case '\\':
			if i+1 >= len(content) {
				i++
				continue
			}
			i++
			switch content[i] {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case 'b', 'f':
				// ignore
			case '(', ')', '\\':
				b.WriteByte(content[i])
			case '\n':
				// line continuation
			default:
				if content[i] >= '0' && content[i] <= '7' {
					v := 0
					n := 0
					for n < 3 && i < len(content) && content[i] >= '0' && content[i] <= '7' {
						v = v*8 + int(content[i]-'0')
						i++
						n++
					}
					i--
					b.WriteByte(byte(v))
				} else {
					// unknown escape: backslash is dropped, char kept
					b.WriteByte(content[i])
				}
			}
			i++
		case '(':
			if depth > 0 {
				b.WriteByte(c)
			}
			depth++
			i++
		case ')':
			depth--
			if depth == 0 {
				return b.String(), i + 1
			}
			b.WriteByte(c)
			i++
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String(), i
}

// parseHexString reads a <...> string starting at open.
func parseHexString(content []byte, open int) (string, int) {
	var hex []byte
	i := open + 1
	for i < len(content) && content[i] != '>' {
		c := content[i]
		if c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F' {
			hex = append(hex, c)
		}
		i++
	}
	if i < len(content) {
		i++
	}
	if len(hex)%2 == 1 {
		hex = append(hex, '0')
	}
	var b strings.Builder
	for j := 0; j < len(hex); j += 2 {
		b.WriteByte(hexVal(hex[j])<<4 | hexVal(hex[j+1]))
	}
	return b.String(), i
}

func hexVal(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
