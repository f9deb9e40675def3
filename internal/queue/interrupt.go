package queue

import "strings"

// RuleDetector is the default interruption-intent detector. A message is an
// interruption when it opens with a stop phrase, or consists of nothing but
// one. Matching is case-insensitive on the trimmed input.
type RuleDetector struct {
	phrases []string
}

// Stop phrases ordered longest-first so the most specific match wins.
var defaultPhrases = []string{
	"never mind",
	"nevermind",
	"hold on",
	"hang on",
	"forget it",
	"actually wait",
	"stop",
	"wait",
	"cancel",
	"abort",
	"halt",
	"no stop",
}

// NewRuleDetector creates a detector with the default stop phrases.
func NewRuleDetector() *RuleDetector {
	return &RuleDetector{phrases: defaultPhrases}
}

// NewRuleDetectorWithPhrases creates a detector with custom phrases.
func NewRuleDetectorWithPhrases(phrases []string) *RuleDetector {
	return &RuleDetector{phrases: phrases}
}

// Detect reports whether text expresses intent to interrupt the agent, and
// which phrase matched.
func (d *RuleDetector) Detect(text string) (bool, string) {
	lowered := strings.ToLower(strings.TrimSpace(text))
	if lowered == "" {
		return false, ""
	}

	for _, phrase := range d.phrases {
		if lowered == phrase {
			return true, phrase
		}
		// A stop phrase followed by punctuation or more words still
		// interrupts: "stop, do X instead".
		if strings.HasPrefix(lowered, phrase) {
			rest := lowered[len(phrase):]
			if rest[0] == ' ' || rest[0] == ',' || rest[0] == '.' || rest[0] == '!' || rest[0] == ';' {
				return true, phrase
			}
		}
	}
	return false, ""
}
