package agent

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hupe1980/fittelligence/core"
)

// Instruction is the system prompt of an agent: fixed text or text built per
// turn, followed by optional state sections.
//
// A state section is emitted as a template block that the flow renders
// against session state, so it only shows up once its key holds a non-empty
// value. Values are inserted as data and never parsed as templates.
type Instruction struct {
	text     string
	build    func(*core.RunContext) (string, error)
	sections []stateSection
}

type stateSection struct {
	tag string
	key string
}

// NewInstructionFromText creates an Instruction from a static string.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromFunc creates an Instruction whose text is built on every
// turn.
func NewInstructionFromFunc(f func(*core.RunContext) (string, error)) Instruction {
	return Instruction{build: f}
}

// WithState appends the session state value under key, wrapped in <tag>
// markers. A persona with an output key uses this to see its own earlier
// answer on follow-up turns.
func (i Instruction) WithState(tag, key string) Instruction {
	if key == "" {
		return i
	}

	sections := make([]stateSection, 0, len(i.sections)+1)
	sections = append(sections, i.sections...)
	i.sections = append(sections, stateSection{tag: strings.ToUpper(tag), key: key})

	return i
}

// IsStatic reports whether the instruction resolves to the same text on
// every turn.
func (i Instruction) IsStatic() bool { return i.build == nil && len(i.sections) == 0 }

// Resolve returns the instruction text. State sections are left as template
// blocks for the instructions processor.
func (i Instruction) Resolve(runCtx *core.RunContext) (string, error) {
	text := i.text
	if i.build != nil {
		built, err := i.build(runCtx)
		if err != nil {
			return "", fmt.Errorf("build instruction: %w", err)
		}
		text = built
	}

	if len(i.sections) == 0 {
		return text, nil
	}

	var sb strings.Builder
	sb.WriteString(text)
	for _, s := range i.sections {
		fmt.Fprintf(&sb, "{{with index . %s}}\n\n<%s>\n{{.}}\n</%s>{{end}}", strconv.Quote(s.key), s.tag, s.tag)
	}

	return sb.String(), nil
}
