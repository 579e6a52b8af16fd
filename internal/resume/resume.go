// Package resume loads the plain text of a resume file.
package resume

import (
	"errors"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

var (
	xmlTag    = regexp.MustCompile(`<[^>]+>`)
	blankRuns = regexp.MustCompile(`[ \t\r\f\v]+`)

	ErrEmptyPath = errors.New("resume path is empty")
)

// Read returns the text of a .pdf, .docx or plain text resume.
// Pages and paragraphs are separated by newlines. Invalid UTF-8 in plain text files is dropped.
func Read(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", ErrEmptyPath
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return readPDF(path)
	case ".docx":
		return readDocx(path)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read resume: %w", err)
		}
		return strings.ToValidUTF8(string(data), ""), nil
	}
}

func readPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("read pdf page %d: %w", i, err)
		}
		pages = append(pages, text)
	}

	return strings.Join(pages, "\n"), nil
}

func readDocx(path string) (string, error) {
	doc, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer doc.Close()

	return docxText(doc.Editable().GetContent()), nil
}

// docxText flattens word/document.xml to one line per paragraph.
func docxText(content string) string {
	body := content
	if idx := strings.Index(body, "<w:body"); idx != -1 {
		body = body[idx:]
	}
	body = strings.ReplaceAll(body, "<w:tab/>", "\t")
	body = strings.ReplaceAll(body, "</w:p>", "\n")
	body = xmlTag.ReplaceAllString(body, "")
	body = html.UnescapeString(body)

	lines := strings.Split(body, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(blankRuns.ReplaceAllString(line, " "))
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}
