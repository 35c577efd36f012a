// Package gherkin reads the parts of feature files that test selection and
// step generation need: header annotations, title, scenarios and step lines.
package gherkin

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"
)

// ParseError describes a feature file that cannot be interpreted.
type ParseError struct {
	Path string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	loc := e.Path
	if loc == "" {
		loc = "<input>"
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", loc, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", loc, e.Msg)
}

// Scenario is a titled list of step lines.
type Scenario struct {
	Title string
	Steps []string
}

// Feature is the parsed outline of a feature file.
type Feature struct {
	Title       string
	Description []string
	Annotations Annotations
	Background  []string
	Scenarios   []Scenario
}

type section int

const (
	sectionHeader section = iota
	sectionFeature
	sectionBackground
	sectionScenario
	sectionExamples
)

var stepKeywords = []string{"Given ", "When ", "Then ", "And ", "But ", "* "}

// ParseAnnotations returns only the feature-level annotations of content.
// Parsing stops at the "Feature:" line.
func ParseAnnotations(content []byte) (Annotations, error) {
	f, err := parse(content, true)
	if err != nil {
		return nil, err
	}
	return f.Annotations, nil
}

// ParseFile reads and parses the feature file at path.
func ParseFile(path string) (*Feature, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := ParseFeature(content)
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.Path = path
		}
		return nil, err
	}
	return f, nil
}

// ParseFeature parses a feature file. Lines before "Feature:" may only be blank,
// "#" comments or annotations; anything else is a *ParseError.
func ParseFeature(content []byte) (*Feature, error) {
	return parse(content, false)
}

func parse(content []byte, headerOnly bool) (*Feature, error) {
	f := &Feature{Annotations: Annotations{}}
	state := sectionHeader
	var current *Scenario
	inDocString := false

	// A single line may be as long as the whole file.
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), max(len(content)+1, bufio.MaxScanTokenSize))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if state != sectionHeader && (strings.HasPrefix(line, `"""`) || strings.HasPrefix(line, "```")) {
			inDocString = !inDocString
			continue
		}
		if inDocString {
			continue
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if state == sectionHeader {
			switch {
			case strings.HasPrefix(line, "@"):
				if err := parseAnnotationLine(line, f.Annotations); err != nil {
					return nil, &ParseError{Line: lineNo, Msg: err.Error()}
				}
			case hasKeyword(line, "Feature"):
				f.Title = keywordValue(line)
				if headerOnly {
					return f, nil
				}
				state = sectionFeature
			default:
				return nil, &ParseError{Line: lineNo, Msg: fmt.Sprintf("unexpected text before Feature: %q", line)}
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, "@"):
			// Scenario-level annotations do not take part in feature selection.
		case hasKeyword(line, "Background"):
			state = sectionBackground
			current = nil
		case hasKeyword(line, "Scenario Outline"), hasKeyword(line, "Scenario Template"),
			hasKeyword(line, "Scenario"), hasKeyword(line, "Example"):
			f.Scenarios = append(f.Scenarios, Scenario{Title: keywordValue(line)})
			current = &f.Scenarios[len(f.Scenarios)-1]
			state = sectionScenario
		case hasKeyword(line, "Examples"), hasKeyword(line, "Where"):
			state = sectionExamples
		case strings.HasPrefix(line, "|"):
			// tables carry data, not steps
		default:
			switch state {
			case sectionFeature:
				f.Description = append(f.Description, line)
			case sectionBackground:
				f.Background = append(f.Background, line)
			case sectionScenario:
				current.Steps = append(current.Steps, line)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if state == sectionHeader {
		return nil, &ParseError{Msg: "missing Feature: declaration"}
	}
	return f, nil
}

func parseAnnotationLine(line string, into Annotations) error {
	// "@key=value" takes the whole line; otherwise one or more bare tags.
	if strings.Contains(line, "=") {
		name, value, _ := strings.Cut(strings.TrimPrefix(line, "@"), "=")
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			return fmt.Errorf("empty annotation name in %q", line)
		}
		into[name] = strings.TrimSpace(value)
		return nil
	}

	for _, field := range strings.Fields(line) {
		if !strings.HasPrefix(field, "@") {
			return fmt.Errorf("unexpected token %q in annotation line", field)
		}
		name := strings.ToLower(strings.TrimPrefix(field, "@"))
		if name == "" {
			return fmt.Errorf("empty annotation name in %q", line)
		}
		into[name] = "true"
	}
	return nil
}

func hasKeyword(line, keyword string) bool {
	return strings.HasPrefix(line, keyword+":")
}

func keywordValue(line string) string {
	_, value, _ := strings.Cut(line, ":")
	return strings.TrimSpace(value)
}

// StepText strips the leading Given/When/Then/And/But keyword from a step line.
func StepText(step string) string {
	for _, kw := range stepKeywords {
		if strings.HasPrefix(step, kw) {
			return strings.TrimSpace(strings.TrimPrefix(step, kw))
		}
	}
	return step
}
