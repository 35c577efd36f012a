package gherkin

import (
	"io"
	"strconv"
	"strings"
	"text/template"
)

// StepDefinition is one entry of a generated step library.
type StepDefinition struct {
	Keyword string // given, when or then
	Text    string
}

var libraryTemplate = template.Must(template.New("library").Funcs(template.FuncMap{
	"quote":   strconv.Quote,
	"comment": commentSafe,
}).Parse(`/* step definitions for "{{ comment .Title }}" */
var English = require('yadda').localisation.English;

module.exports = (function() {
    return English.library(){{ range .Steps }}
        .{{ .Keyword }}({{ quote .Text }}, function(next) {
            next();
        }){{ end }};
})();
`))

// commentSafe keeps s from closing the block comment it is written into.
func commentSafe(s string) string {
	return strings.ReplaceAll(s, "*/", "* /")
}

// StepDefinitions lists the distinct steps of f in first-seen order. And/But
// steps inherit the keyword of the step before them.
func StepDefinitions(f *Feature) []StepDefinition {
	var defs []StepDefinition
	seen := make(map[StepDefinition]struct{})

	add := func(steps []string) {
		keyword := "given"
		for _, step := range steps {
			switch {
			case strings.HasPrefix(step, "Given "):
				keyword = "given"
			case strings.HasPrefix(step, "When "):
				keyword = "when"
			case strings.HasPrefix(step, "Then "):
				keyword = "then"
			}
			def := StepDefinition{Keyword: keyword, Text: StepText(step)}
			if _, ok := seen[def]; ok {
				continue
			}
			seen[def] = struct{}{}
			defs = append(defs, def)
		}
	}

	add(f.Background)
	for _, sc := range f.Scenarios {
		add(sc.Steps)
	}
	return defs
}

// GenerateLibrary writes a step-definition library template for f.
func GenerateLibrary(w io.Writer, f *Feature) error {
	return libraryTemplate.Execute(w, struct {
		Title string
		Steps []StepDefinition
	}{
		Title: f.Title,
		Steps: StepDefinitions(f),
	})
}
