package render

import (
	"bytes"
	"strings"
	"text/template"

	"researchd/internal/domain"
)

// The generation prompts ask for LaTeX body content only; these templates
// supply the surrounding document scaffolding.
var proofTemplate = template.Must(template.New("proof").Parse(`\documentclass[11pt]{article}
\usepackage{amsmath,amssymb,amsthm}
\usepackage[margin=1in]{geometry}
\newtheorem{theorem}{Theorem}
\newtheorem{proposition}{Proposition}
\title{ {{- .Title -}} }
\date{}
\begin{document}
\maketitle

{{.Body}}

\end{document}
`))

var summaryTemplate = template.Must(template.New("summary").Parse(`\documentclass[11pt]{article}
\usepackage[margin=1in]{geometry}
\usepackage{parskip}
\title{Research Summary: {{.Title}}}
\date{}
\begin{document}
\maketitle

{{.Body}}

\end{document}
`))

type latexData struct {
	Title string
	Body  string
}

// buildLatex wraps generated LaTeX body text in a compilable document.
// math_proof output already uses math environments; research summaries
// get a plain article wrapper.
func buildLatex(task domain.TaskType, title, text string) ([]byte, error) {
	tmpl := summaryTemplate
	if task == domain.TaskMathProof {
		tmpl = proofTemplate
	}
	var buf bytes.Buffer
	err := tmpl.Execute(&buf, latexData{
		Title: escapeLatex(title),
		Body:  strings.TrimSpace(text),
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// escapeLatex protects title text; body text is model-generated LaTeX and
// passes through untouched.
func escapeLatex(s string) string {
	replacer := strings.NewReplacer(
		"\\", "\\textbackslash{}",
		"&", "\\&",
		"%", "\\%",
		"$", "\\$",
		"#", "\\#",
		"_", "\\_",
		"{", "\\{",
		"}", "\\}",
		"~", "\\textasciitilde{}",
		"^", "\\textasciicircum{}",
	)
	return replacer.Replace(s)
}
