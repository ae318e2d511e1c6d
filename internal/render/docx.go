package render

import (
	"bytes"
	"encoding/xml"
	"strings"
	"text/template"

	"researchd/pkg/zip"
)

// Minimal OOXML wordprocessing container: content types, package rels and
// one document part. Enough for Word and LibreOffice to open the output.
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

var documentTemplate = template.Must(template.New("document").Parse(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:rPr><w:b/><w:sz w:val="32"/></w:rPr><w:t xml:space="preserve">{{.Title}}</w:t></w:r></w:p>
{{- range .Paragraphs}}
<w:p><w:r><w:t xml:space="preserve">{{.}}</w:t></w:r></w:p>
{{- end}}
</w:body>
</w:document>`))

type documentData struct {
	Title      string
	Paragraphs []string
}

// buildDocx renders title and text into a .docx container. Text is split
// into paragraphs on blank lines, matching how the generated summaries
// are structured.
func buildDocx(title, text string) ([]byte, error) {
	data := documentData{Title: escapeXML(title)}
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		// Single newlines inside a paragraph collapse to spaces;
		// OOXML paragraphs carry no embedded line breaks here.
		para = strings.Join(strings.Fields(para), " ")
		data.Paragraphs = append(data.Paragraphs, escapeXML(para))
	}

	var doc bytes.Buffer
	if err := documentTemplate.Execute(&doc, data); err != nil {
		return nil, err
	}

	return zip.Archive([]zip.Part{
		{Name: "[Content_Types].xml", Data: []byte(contentTypesXML)},
		{Name: "_rels/.rels", Data: []byte(relsXML)},
		{Name: "word/document.xml", Data: doc.Bytes()},
	})
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
