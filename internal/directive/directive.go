// Package directive compiles the generation directive for a pipeline run:
// the system framing plus the mode-specific instruction text that asks the
// backend for the Objects/Morphisms/Sorted-chains sections the parser
// understands. The instruction text lives in embedded assets so prompt
// edits never touch code.
package directive

import (
	_ "embed"
	"fmt"
	"strings"
)

// Mode selects the instruction set.
type Mode int

const (
	// Subject mode models a short free-text subject description.
	Subject Mode = iota
	// Document mode models extracted document text and additionally asks
	// for the sorted composition chains of the paper's workflow.
	Document
)

func (m Mode) String() string {
	if m == Document {
		return "document"
	}
	return "subject"
}

var (
	//go:embed prompts/system.txt
	systemPrompt string

	//go:embed prompts/subject.txt
	subjectPrompt string

	//go:embed prompts/document.txt
	documentPrompt string
)

// Directive is a compiled generation request: the system framing and the
// full request text (instructions plus normalized context).
type Directive struct {
	System  string
	Request string
}

// Compile builds the directive for the given mode and normalized context.
func Compile(mode Mode, context string) (Directive, error) {
	if strings.TrimSpace(context) == "" {
		return Directive{}, fmt.Errorf("directive: empty context for %s mode", mode)
	}
	instructions := subjectPrompt
	if mode == Document {
		instructions = documentPrompt
	}
	return Directive{
		System:  strings.TrimSpace(systemPrompt),
		Request: instructions + context + "\n",
	}, nil
}
