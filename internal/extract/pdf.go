// Package extract pulls best-effort plaintext out of raw PDF bytes.
//
// This is intentionally NOT a PDF parser. It is a narrow heuristic: locate
// uncompressed content-stream regions and scrape the text-bearing tokens out
// of them. Flate-encoded content streams are not decompressed; such
// documents fall through to the printable-ASCII fallback and yield
// poor-quality text. That blind spot is a documented limitation of the
// pipeline, not a bug to fix here.
package extract

import "strings"

// minStructuredYield is the cumulative text length below which the
// structural scan is considered failed (e.g. compressed content streams)
// and the ASCII-strip fallback kicks in.
const minStructuredYield = 50

// PDFText extracts plaintext from raw PDF bytes. It never fails: on any
// inability to find structured text it degrades instead of erroring.
// The second return value reports whether the fallback was used.
func PDFText(raw []byte) (string, bool) {
	// Permissive decode: every byte passes through untouched; invalid
	// UTF-8 sequences are carried along rather than rejected.
	decoded := string(raw)

	var b strings.Builder
	for _, region := range contentStreams(decoded) {
		scrapeLiterals(&b, region)
		scrapeShowTextArrays(&b, region)
	}

	text := b.String()
	if len(strings.TrimSpace(text)) < minStructuredYield {
		return asciiFallback(decoded), true
	}
	return text, false
}

// contentStreams is the first pass: it locates the payloads of
// `stream` ... `endstream` regions. The keyword must be followed by
// optional whitespace ending in a line feed; the region ends at the
// line feed preceding the `endstream` keyword.
func contentStreams(s string) []string {
	var regions []string

	for i := 0; i < len(s); {
		start := strings.Index(s[i:], "stream")
		if start < 0 {
			break
		}
		start += i

		// Skip whitespace after the keyword; a line feed must terminate it.
		j := start + len("stream")
		for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\r') {
			j++
		}
		if j >= len(s) || s[j] != '\n' {
			i = start + len("stream")
			continue
		}
		j++ // past the newline

		end := strings.Index(s[j:], "\nendstream")
		if end < 0 {
			break
		}
		end += j

		regions = append(regions, s[j:end])
		i = end + len("\nendstream")
	}

	return regions
}

// scrapeLiterals is part of the second pass: parenthesized literal strings.
// A literal must open and close on the same line; fragments shorter than
// two characters or with no alphabetic character are noise (kerning
// adjustments, single glyphs) and are discarded.
func scrapeLiterals(b *strings.Builder, region string) {
	for i := 0; i < len(region); i++ {
		if region[i] != '(' {
			continue
		}

		j := closingParen(region, i)
		if j < 0 {
			continue
		}

		lit := unescapeLiteral(region[i+1 : j])
		if len(lit) > 1 && hasAlpha(lit) {
			b.WriteString(lit)
			b.WriteByte(' ')
		}
		i = j
	}
}

// scrapeShowTextArrays is part of the second pass: bracketed array payloads
// followed by the TJ (array show text) operator. Array elements are taken
// raw, without unescaping or the noise filter, matching how viewers join
// per-glyph runs.
func scrapeShowTextArrays(b *strings.Builder, region string) {
	for i := 0; i < len(region); i++ {
		if region[i] != '[' {
			continue
		}

		j := i + 1
		for j < len(region) && region[j] != ']' && region[j] != '\n' {
			j++
		}
		if j >= len(region) || region[j] != ']' {
			continue
		}

		// The TJ operator follows, possibly after whitespace.
		k := j + 1
		for k < len(region) && isSpace(region[k]) {
			k++
		}
		if !strings.HasPrefix(region[k:], "TJ") {
			continue
		}

		payload := region[i+1 : j]
		found := false
		for p := 0; p < len(payload); p++ {
			if payload[p] != '(' {
				continue
			}
			q := closingParen(payload, p)
			if q < 0 {
				continue
			}
			found = true
			b.WriteString(payload[p+1 : q])
			p = q
		}
		if found {
			b.WriteByte(' ')
		}
		i = j
	}
}

// closingParen returns the index of the first ')' after the '(' at open,
// or -1 when the line ends first.
func closingParen(s string, open int) int {
	for j := open + 1; j < len(s); j++ {
		switch s[j] {
		case ')':
			return j
		case '\n':
			return -1
		}
	}
	return -1
}

// unescapeLiteral resolves the backslash sequences that matter for text:
// newline, carriage return, backslash and quotes. Octal codes and other
// PDF escapes pass through untouched.
func unescapeLiteral(s string) string {
	s = strings.ReplaceAll(s, `\n`, "\n")
	s = strings.ReplaceAll(s, `\r`, "")
	s = strings.ReplaceAll(s, `\\`, `\`)
	s = strings.ReplaceAll(s, `\'`, "'")
	s = strings.ReplaceAll(s, `\"`, `"`)
	return s
}

func hasAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			return true
		}
	}
	return false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

// asciiFallback strips everything outside printable ASCII from the decoded
// bytes and collapses whitespace runs. Quality is poor but it is the best
// we can do for compressed or malformed documents.
func asciiFallback(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 0x20 && c <= 0x7E) || c == '\n' {
			b.WriteByte(c)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
