package matchers

import (
	"fmt"
	"regexp"
	"strings"
)

// Patterns is an ordered list of compiled regular expressions. Order matters:
// callers that need "first pattern wins" semantics iterate it directly.
type Patterns []*regexp.Regexp

// Compile compiles the provided expressions in order, skipping blank entries.
func Compile(exprs []string) (Patterns, error) {
	patterns := make(Patterns, 0, len(exprs))
	for _, expr := range exprs {
		expr = strings.TrimSpace(expr)
		if expr == "" {
			continue
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid regex %q: %w", expr, err)
		}
		patterns = append(patterns, re)
	}
	return patterns, nil
}

// MatchAny returns true if any pattern matches value.
func (p Patterns) MatchAny(value string) bool {
	for _, re := range p {
		if re.MatchString(value) {
			return true
		}
	}
	return false
}

// Strings returns the source expressions, for logging.
func (p Patterns) Strings() []string {
	out := make([]string, 0, len(p))
	for _, re := range p {
		out = append(out, re.String())
	}
	return out
}
