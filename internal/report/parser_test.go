package report

import (
	"encoding/base64"
	"strings"
	"testing"
)

// Unit tests for parser error conditions.

func TestMarkdownParser_PlainMarkdownWithoutSentinel(t *testing.T) {
	p := &MarkdownParser{}

	plainMarkdown := `# Some Document

This is just a regular Markdown file with no gitwork sentinel.

## Section

- item 1
- item 2
`
	_, err := p.Parse([]byte(plainMarkdown))
	if err == nil {
		t.Fatal("expected error for plain Markdown without sentinel, got nil")
	}
	if !strings.Contains(err.Error(), "not a valid gitwork report") {
		t.Errorf("expected error to contain 'not a valid gitwork report', got: %q", err.Error())
	}
}

func TestMarkdownParser_CorruptedBase64Payload(t *testing.T) {
	p := &MarkdownParser{}

	corrupted := `<!-- gitwork-report-version: 1 -->
<!-- gitwork-data: !!!not-valid-base64!!! -->

# Work log
`
	_, err := p.Parse([]byte(corrupted))
	if err == nil {
		t.Fatal("expected error for corrupted base64 payload, got nil")
	}
	if !strings.Contains(err.Error(), "not a valid gitwork report") {
		t.Errorf("expected error to contain 'not a valid gitwork report', got: %q", err.Error())
	}
}

func TestMarkdownParser_MissingDataPayload(t *testing.T) {
	p := &MarkdownParser{}

	noData := `<!-- gitwork-report-version: 1 -->

# Work log

Some content but no data payload.
`
	_, err := p.Parse([]byte(noData))
	if err == nil {
		t.Fatal("expected error when data payload is missing, got nil")
	}
	if !strings.Contains(err.Error(), "missing data payload") {
		t.Errorf("expected error to mention the missing payload, got: %q", err.Error())
	}
}

func TestMarkdownParser_UnterminatedPayload(t *testing.T) {
	p := &MarkdownParser{}
	_, err := p.Parse([]byte("<!-- gitwork-report-version: 1 -->\n<!-- gitwork-data: e30="))
	if err == nil || !strings.Contains(err.Error(), "malformed data payload") {
		t.Fatalf("expected malformed payload error, got %v", err)
	}
}

func TestMarkdownParser_ValidBase64ButInvalidJSON(t *testing.T) {
	p := &MarkdownParser{}

	badJSON := base64.StdEncoding.EncodeToString([]byte("this is not json {{{"))
	content := "<!-- gitwork-report-version: 1 -->\n<!-- gitwork-data: " + badJSON + " -->\n\n# Work log\n"

	_, err := p.Parse([]byte(content))
	if err == nil {
		t.Fatal("expected error for valid base64 but invalid embedded JSON, got nil")
	}
	if !strings.Contains(err.Error(), "not a valid gitwork report") {
		t.Errorf("expected error to contain 'not a valid gitwork report', got: %q", err.Error())
	}
}

func TestJSONParser_MalformedJSON(t *testing.T) {
	p := &JSONParser{}

	cases := []struct {
		name  string
		input string
	}{
		{"empty input", ""},
		{"truncated object", `{"repos": [`},
		{"plain text", "not json at all"},
		{"array instead of object", `[1, 2, 3]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.Parse([]byte(tc.input))
			if err == nil {
				t.Fatalf("expected error for malformed JSON input %q, got nil", tc.input)
			}
			if !strings.Contains(err.Error(), "failed to parse JSON report") {
				t.Errorf("expected descriptive error containing 'failed to parse JSON report', got: %q", err.Error())
			}
		})
	}
}

func TestParserFor(t *testing.T) {
	if _, ok := ParserFor("out/gitwork-2024-03-01.JSON").(*JSONParser); !ok {
		t.Error("expected JSON parser for .JSON")
	}
	if _, ok := ParserFor("gitwork-2024-03-01.md").(*MarkdownParser); !ok {
		t.Error("expected Markdown parser for .md")
	}
}
