package rules

import (
	"strings"

	"github.com/aaronromeo/mailtriage/internal/message"
)

type Action int

const (
	NoAction Action = iota
	Move
)

func (a Action) String() string {
	switch a {
	case Move:
		return "move"
	default:
		return "none"
	}
}

// Decision is the outcome of classifying one header.
type Decision struct {
	Action      Action
	Destination string
	Rule        string
}

// Rule pairs a predicate with the folder it routes to.
type Rule struct {
	Name        string
	Match       func(message.Header) bool
	Destination func(message.Header) string
}

// Engine evaluates an ordered rule list. The first matching rule wins.
type Engine struct {
	rules []Rule
}

func NewEngine(rules ...Rule) *Engine {
	return &Engine{rules: rules}
}

// Rules returns the rule names in evaluation order.
func (e *Engine) Rules() []string {
	names := make([]string, 0, len(e.rules))
	for _, r := range e.rules {
		names = append(names, r.Name)
	}
	return names
}

// Classify maps a header to a decision.
func (e *Engine) Classify(h message.Header) Decision {
	for _, r := range e.rules {
		if !r.Match(h) {
			continue
		}
		return Decision{
			Action:      Move,
			Destination: r.Destination(h),
			Rule:        r.Name,
		}
	}
	return Decision{Action: NoAction}
}

// LocalPart returns the text before the first '@' of addr, or addr itself when
// it contains none.
func LocalPart(addr string) string {
	local, _, _ := strings.Cut(addr, "@")
	return local
}
