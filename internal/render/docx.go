// Package render builds minimal ATS-friendly DOCX documents for the
// optimized resume and cover letter downloads. The package is a valid
// WordprocessingML archive with only the parts Word requires.
package render

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
)

const wmlNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

// Section is a heading followed by body text. Body line breaks become
// separate paragraphs so the output survives ATS plain-text extraction.
type Section struct {
	Heading string
	Body    string
}

// Document renders a titled document into a DOCX byte slice. Sections with
// an empty body are skipped.
func Document(title string, sections []Section) ([]byte, error) {
	if strings.TrimSpace(title) == "" && len(sections) == 0 {
		return nil, errors.New("nothing to render")
	}

	documentXML, err := buildDocumentXML(title, sections)
	if err != nil {
		return nil, err
	}

	var output bytes.Buffer
	writer := zip.NewWriter(&output)

	parts := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", relsXML},
		{"word/document.xml", documentXML},
	}
	for _, part := range parts {
		dst, err := writer.Create(part.name)
		if err != nil {
			return nil, err
		}
		if _, err := dst.Write([]byte(part.content)); err != nil {
			return nil, err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}

	return output.Bytes(), nil
}

func buildDocumentXML(title string, sections []Section) (string, error) {
	var body strings.Builder

	if strings.TrimSpace(title) != "" {
		if err := writeParagraph(&body, title, paragraphTitle); err != nil {
			return "", err
		}
	}

	for _, section := range sections {
		if strings.TrimSpace(section.Body) == "" {
			continue
		}
		if strings.TrimSpace(section.Heading) != "" {
			if err := writeParagraph(&body, section.Heading, paragraphHeading); err != nil {
				return "", err
			}
		}
		for _, line := range strings.Split(section.Body, "\n") {
			if err := writeParagraph(&body, line, paragraphBody); err != nil {
				return "", err
			}
		}
	}

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w=%q><w:body>%s</w:body></w:document>`, wmlNamespace, body.String()), nil
}

type paragraphStyle int

const (
	paragraphBody paragraphStyle = iota
	paragraphTitle
	paragraphHeading
)

func writeParagraph(out *strings.Builder, text string, style paragraphStyle) error {
	escaped, err := escapeXML(text)
	if err != nil {
		return err
	}

	out.WriteString("<w:p>")
	out.WriteString("<w:r>")
	switch style {
	case paragraphTitle:
		out.WriteString(`<w:rPr><w:b/><w:sz w:val="32"/></w:rPr>`)
	case paragraphHeading:
		out.WriteString(`<w:rPr><w:b/></w:rPr>`)
	}
	// xml:space preserves leading indentation inside body lines.
	out.WriteString(`<w:t xml:space="preserve">`)
	out.WriteString(escaped)
	out.WriteString("</w:t></w:r></w:p>")
	return nil
}

func escapeXML(text string) (string, error) {
	var buf bytes.Buffer
	if err := xml.EscapeText(&buf, []byte(text)); err != nil {
		return "", err
	}
	return buf.String(), nil
}
