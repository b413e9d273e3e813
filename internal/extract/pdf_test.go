package extract

import (
	"strings"
	"testing"
)

func TestPDFText_StructuredLiterals(t *testing.T) {
	raw := []byte("1 0 obj\nstream\n" +
		"BT /F1 12 Tf (Employees must complete annual training) Tj ET\n" +
		"BT (Violations are reported to the compliance office) Tj ET\n" +
		"endstream\n")

	text, degraded := PDFText(raw)
	if degraded {
		t.Fatal("expected structured extraction, got fallback")
	}
	if !strings.Contains(text, "Employees must complete annual training") {
		t.Errorf("missing first literal in %q", text)
	}
	if !strings.Contains(text, "Violations are reported to the compliance office") {
		t.Errorf("missing second literal in %q", text)
	}
}

func TestPDFText_ShowTextArrays(t *testing.T) {
	raw := []byte("stream\n" +
		"(The retention period for records is seven years) Tj\n" +
		"[(Seg)(mented glyph run)] TJ\n" +
		"endstream\n")

	text, degraded := PDFText(raw)
	if degraded {
		t.Fatal("expected structured extraction, got fallback")
	}
	// Array elements are joined raw, without a separator between them.
	if !strings.Contains(text, "Segmented glyph run") {
		t.Errorf("expected joined array run in %q", text)
	}
}

func TestPDFText_NoiseFragmentsDropped(t *testing.T) {
	raw := []byte("stream\n" +
		"(x) Tj (12345) Tj (A substantial body of policy text to stay structured) Tj\n" +
		"endstream\n")

	text, degraded := PDFText(raw)
	if degraded {
		t.Fatal("expected structured extraction, got fallback")
	}
	want := "A substantial body of policy text to stay structured "
	if text != want {
		t.Errorf("expected only the substantial literal, got %q", text)
	}
}

func TestPDFText_UnescapesLiterals(t *testing.T) {
	raw := []byte("stream\n" +
		`(first line\nsecond line of the employee handbook\'s policy) Tj` + "\n" +
		"(padding text so the structured yield clears the bar) Tj\n" +
		"endstream\n")

	text, degraded := PDFText(raw)
	if degraded {
		t.Fatal("expected structured extraction, got fallback")
	}
	if !strings.Contains(text, "first line\nsecond line") {
		t.Errorf("backslash-n not unescaped in %q", text)
	}
	if !strings.Contains(text, "handbook's policy") {
		t.Errorf("escaped quote not unescaped in %q", text)
	}
}

func TestPDFText_MultiLineLiteralRejected(t *testing.T) {
	raw := []byte("stream\n(opened on one line\nclosed on another)\nendstream\n")

	// The only candidate spans a newline, so the scan yields nothing and
	// the fallback kicks in.
	_, degraded := PDFText(raw)
	if !degraded {
		t.Fatal("expected fallback for a literal spanning lines")
	}
}

func TestPDFText_FallbackOnBinary(t *testing.T) {
	raw := []byte("%PDF-1.4\x00\x01\x02 compressed\xff\xfe\x80 binary body here")

	text, degraded := PDFText(raw)
	if !degraded {
		t.Fatal("expected fallback for a document with no content streams")
	}
	if strings.Contains(text, "\x00") {
		t.Errorf("fallback kept non-printable bytes: %q", text)
	}
	for _, part := range []string{"%PDF-1.4", "compressed", "binary body here"} {
		if !strings.Contains(text, part) {
			t.Errorf("fallback lost printable run %q in %q", part, text)
		}
	}
	if strings.Contains(text, "  ") {
		t.Errorf("fallback did not collapse whitespace: %q", text)
	}
}

func TestContentStreams_KeywordMustEndInLineFeed(t *testing.T) {
	regions := contentStreams("streamX not a region\nstream\npayload\nendstream")
	if len(regions) != 1 {
		t.Fatalf("expected 1 region, got %d", len(regions))
	}
	if regions[0] != "payload" {
		t.Errorf("expected payload region, got %q", regions[0])
	}
}

func TestContentStreams_CRLF(t *testing.T) {
	regions := contentStreams("stream\r\ncrlf payload\nendstream")
	if len(regions) != 1 || regions[0] != "crlf payload" {
		t.Fatalf("expected crlf payload region, got %v", regions)
	}
}
