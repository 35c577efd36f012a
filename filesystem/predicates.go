package filesystem

import (
	"path/filepath"
	"regexp"
)

// SpecExtensions are the extensions of behavior-specification files.
var SpecExtensions = []string{".feature", ".spec", ".specification"}

// ScriptExtensions are the step-definition and plain source extensions picked up by the scanner.
var ScriptExtensions = []string{".js", ".coffee"}

var stepFileRegex = regexp.MustCompile(`(-step|Step)s?\.`)

// RecognizedExtension reports whether the scanner collects files with this name.
// Extensions are matched case-sensitively.
func RecognizedExtension(name string) bool {
	if IsSpecFile(name) {
		return true
	}
	ext := filepath.Ext(name)
	for _, e := range ScriptExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// IsSpecFile checks if a file is a specification file based on its extension.
func IsSpecFile(name string) bool {
	ext := filepath.Ext(name)
	for _, e := range SpecExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// IsStepFile checks the step-definition naming convention against the base name,
// e.g. "login-steps.js", "LoginStep.coffee".
func IsStepFile(name string) bool {
	return stepFileRegex.MatchString(filepath.Base(name))
}
