// Package llmtool renders sectioned prompts for structured-output requests.
package llmtool

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	llmclient "nebula/internal/llmClient"
)

// PromptExample captures an optional input/output example.
type PromptExample struct {
	Input  string
	Output string
}

// Section is one titled block of request input.
type Section struct {
	Title string
	Body  string
}

// JSONSection renders v as indented JSON under title.
func JSONSection(title string, v any) (Section, error) {
	s, err := formatAnyJSON(v)
	if err != nil {
		return Section{}, fmt.Errorf("llmtool: encode %s: %w", title, err)
	}
	return Section{Title: title, Body: s}, nil
}

// StructuredPromptSpec defines the fixed instruction sections of a prompt.
// OutputSchema is embedded verbatim.
type StructuredPromptSpec struct {
	Purpose      string
	Background   string
	OutputSchema string
	Constraints  []string
	Rules        []string
	Assumptions  []string
	OutputFormat string
	Language     string
	Examples     []PromptExample
}

// Render puts the instruction sections in the system prompt and the
// request input in the user prompt.
func (spec StructuredPromptSpec) Render(input ...Section) (llmclient.Prompt, error) {
	if strings.TrimSpace(spec.Purpose) == "" {
		return llmclient.Prompt{}, fmt.Errorf("llmtool: purpose is empty")
	}
	if strings.TrimSpace(spec.OutputSchema) == "" {
		return llmclient.Prompt{}, fmt.Errorf("llmtool: output schema is empty")
	}

	var sys bytes.Buffer
	writeSection(&sys, "PURPOSE", spec.Purpose)
	writeSection(&sys, "BACKGROUND", spec.Background)
	writeSection(&sys, "OUTPUT", spec.OutputSchema)
	writeSection(&sys, "CONSTRAINTS", formatList(spec.Constraints))
	writeSection(&sys, "RULES", formatList(spec.Rules))
	writeSection(&sys, "ASSUMPTIONS", formatList(spec.Assumptions))
	writeSection(&sys, "OUTPUT_FORMAT", spec.OutputFormat)
	writeSection(&sys, "LANGUAGE", spec.Language)
	if len(spec.Examples) > 0 {
		writeSection(&sys, "EXAMPLES", formatExamples(spec.Examples))
	}

	var user bytes.Buffer
	for _, s := range input {
		writeSection(&user, strings.ToUpper(strings.TrimSpace(s.Title)), s.Body)
	}

	return llmclient.Prompt{
		System: strings.TrimSpace(sys.String()) + "\n",
		User:   strings.TrimSpace(user.String()) + "\n",
	}, nil
}

func formatAnyJSON(v any) (string, error) {
	if v == nil {
		return "null", nil
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func formatList(items []string) string {
	if len(items) == 0 {
		return ""
	}
	var buf strings.Builder
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		fmt.Fprintf(&buf, "- %s\n", item)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func formatExamples(examples []PromptExample) string {
	var buf strings.Builder
	for i, ex := range examples {
		fmt.Fprintf(&buf, "Example %d:\n", i+1)
		if strings.TrimSpace(ex.Input) != "" {
			buf.WriteString("INPUT:\n")
			buf.WriteString(strings.TrimRight(ex.Input, "\n"))
			buf.WriteString("\n")
		}
		if strings.TrimSpace(ex.Output) != "" {
			buf.WriteString("OUTPUT:\n")
			buf.WriteString(strings.TrimRight(ex.Output, "\n"))
			buf.WriteString("\n")
		}
		buf.WriteString("\n")
	}
	return strings.TrimRight(buf.String(), "\n")
}

// writeSection skips blank bodies.
func writeSection(buf *bytes.Buffer, title, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	buf.WriteString("[")
	buf.WriteString(title)
	buf.WriteString("]\n")
	buf.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		buf.WriteString("\n")
	}
	buf.WriteString("\n")
}
