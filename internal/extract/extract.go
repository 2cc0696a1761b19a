// Package extract pulls plain text out of uploaded resume files. Extraction
// is best-effort: a scanned-image PDF yields an empty string, which the
// normalizer downstream reports as an empty-input error.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

const (
	mimePDF   = "application/pdf"
	mimeDOCX  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimePlain = "text/plain"
)

// TextFromBytes extracts text from an in-memory payload. The MIME type is
// normalized against the file extension because browsers report DOCX uploads
// as generic zip.
func TextFromBytes(data []byte, mimeType, fileName string) (string, error) {
	switch normalizeMimeType(mimeType, fileName) {
	case mimePDF:
		return extractPDF(data)
	case mimeDOCX:
		return extractDOCX(data)
	case mimePlain:
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported file type: %s", mimeType)
	}
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}
	defer doc.Close()

	return stripDocxXML(doc.Editable().GetContent()), nil
}

// stripDocxXML flattens WordprocessingML markup into plain text, inserting
// line breaks at paragraph boundaries.
func stripDocxXML(raw string) string {
	var buf strings.Builder
	inTag := false
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '<':
			if strings.HasPrefix(raw[i:], "</w:p>") || strings.HasPrefix(raw[i:], "<w:br") {
				buf.WriteByte('\n')
			}
			inTag = true
		case '>':
			inTag = false
		default:
			if !inTag {
				buf.WriteByte(raw[i])
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

func normalizeMimeType(mimeType, fileName string) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	switch clean {
	case mimePDF, mimeDOCX, mimePlain:
		return clean
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return mimePDF
	case ".docx":
		return mimeDOCX
	case ".txt":
		return mimePlain
	default:
		return clean
	}
}
