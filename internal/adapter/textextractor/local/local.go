// Package local extracts text from uploaded CV binaries in-process.
//
// PDF decoding uses ledongthuc/pdf and DOCX decoding uses
// nguyenthenguyen/docx; no external extraction service is involved.
package local

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"github.com/orientis/orientis/internal/domain"
	"github.com/orientis/orientis/pkg/textx"
)

const wordMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// minDocxTextLen guards against DOCX archives whose body decodes to nothing.
const minDocxTextLen = 10

// Extractor implements domain.TextExtractor as a pure transform over the
// uploaded buffer.
type Extractor struct{}

// New constructs an Extractor.
func New() *Extractor { return &Extractor{} }

// Extract routes the buffer by declared MIME type or filename and returns
// UTF-8 plain text.
func (e *Extractor) Extract(data []byte, mimeType, filename string) (string, error) {
	switch {
	case mimeType == "application/pdf":
		return e.extractPDF(data)
	case mimeType == wordMIME,
		strings.Contains(strings.ToLower(mimeType), "word"),
		strings.HasSuffix(strings.ToLower(filename), ".docx"):
		return e.extractDOCX(data)
	default:
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, mimeType)
	}
}

func (e *Extractor) extractPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: pdf: %v", domain.ErrExtraction, err)
	}
	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	out := textx.SanitizeText(b.String())
	if out == "" {
		return "", fmt.Errorf("%w: pdf produced no text", domain.ErrExtraction)
	}
	return out, nil
}

func (e *Extractor) extractDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: docx: %v", domain.ErrExtraction, err)
	}
	defer func() { _ = doc.Close() }()

	out := docxToPlainText(doc.Editable().GetContent())
	out = textx.CollapseBlankLines(textx.SanitizeText(out))
	if len(out) < minDocxTextLen {
		return "", fmt.Errorf("%w: docx text too short (%d chars)", domain.ErrExtraction, len(out))
	}
	return out, nil
}

var (
	paragraphEnd = regexp.MustCompile(`</w:p>`)
	xmlTags      = regexp.MustCompile(`<[^>]+>`)
	xmlEntities  = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'")
)

// docxToPlainText flattens the document.xml body: paragraph ends become
// newlines, remaining markup is dropped, entities are decoded.
func docxToPlainText(content string) string {
	content = paragraphEnd.ReplaceAllString(content, "\n")
	content = xmlTags.ReplaceAllString(content, "")
	return xmlEntities.Replace(content)
}
