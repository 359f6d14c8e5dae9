// Package extract turns uploaded resume and job description files into plain text.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

const (
	MIMEPlain    = "text/plain"
	MIMEMarkdown = "text/markdown"
	MIMEPDF      = "application/pdf"
	MIMEDocx     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var (
	// ErrUnsupportedType is returned for MIME types that cannot be parsed.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrParse wraps parser failures for supported types.
	ErrParse = errors.New("failed to parse file")
)

var (
	paragraphEnd = regexp.MustCompile(`</w:p>|<w:br/>|<w:tab/>`)
	xmlTag       = regexp.MustCompile(`<[^>]+>`)
)

// Text extracts plain text from data according to its MIME type. Parameters such
// as "; charset=utf-8" are ignored.
func Text(mime string, data []byte) (string, error) {
	switch normalizeMIME(mime) {
	case MIMEPlain, MIMEMarkdown:
		return string(data), nil
	case MIMEPDF:
		return pdfText(data)
	case MIMEDocx:
		return docxText(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mime)
	}
}

// MIMEFromPath guesses the MIME type from the file extension. Unknown extensions
// return an empty string.
func MIMEFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return MIMEPDF
	case ".docx":
		return MIMEDocx
	case ".txt":
		return MIMEPlain
	case ".md", ".markdown":
		return MIMEMarkdown
	default:
		return ""
	}
}

// Supported reports whether Text can handle the MIME type.
func Supported(mime string) bool {
	switch normalizeMIME(mime) {
	case MIMEPlain, MIMEMarkdown, MIMEPDF, MIMEDocx:
		return true
	}
	return false
}

func normalizeMIME(mime string) string {
	if idx := strings.Index(mime, ";"); idx != -1 {
		mime = mime[:idx]
	}
	return strings.ToLower(strings.TrimSpace(mime))
}

func pdfText(data []byte) (text string, err error) {
	// the pdf reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: pdf: %v", ErrParse, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: pdf: %v", ErrParse, err)
	}

	var builder strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: pdf page %d: %v", ErrParse, i, err)
		}
		if builder.Len() > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(pageText)
	}

	return builder.String(), nil
}

func docxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: docx: %v", ErrParse, err)
	}
	defer doc.Close()

	return stripXML(doc.Editable().GetContent()), nil
}

func stripXML(content string) string {
	content = paragraphEnd.ReplaceAllString(content, "\n")
	content = xmlTag.ReplaceAllString(content, "")
	return strings.TrimSpace(html.UnescapeString(content))
}
