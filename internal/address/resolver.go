package address

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aaronromeo/mailtriage/internal/matchers"
)

// ParseError reports a sender field that does not hold exactly one valid
// mailbox.
type ParseError struct {
	Raw    string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse sender %q: %s: %v", e.Raw, e.Reason, e.Err)
	}
	return fmt.Sprintf("parse sender %q: %s", e.Raw, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Resolver picks the single relevant address out of a raw header field.
type Resolver struct {
	patterns matchers.Patterns
	log      *slog.Logger
}

func NewResolver(patterns matchers.Patterns, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{patterns: patterns, log: log}
}

// Sender parses raw as exactly one mailbox. A group holding exactly one member
// is accepted as that member.
func (r *Resolver) Sender(raw string) (Address, error) {
	entries, err := Parse(raw)
	if err != nil {
		return Address{}, &ParseError{Raw: raw, Reason: "invalid syntax", Err: err}
	}
	if len(entries) != 1 {
		return Address{}, &ParseError{Raw: raw, Reason: fmt.Sprintf("expected one address, got %d", len(entries))}
	}
	if n := len(entries[0].Members); n != 1 {
		return Address{}, &ParseError{Raw: raw, Reason: fmt.Sprintf("expected one address, got %d", n)}
	}
	return entries[0].Members[0], nil
}

// Recipient returns the first address in raw that matches a configured
// pattern. Entries are scanned in declared order. Inside a group, each pattern
// is tried against every member before moving to the next pattern.
// A field that fails to parse or holds no match yields the zero Address.
func (r *Resolver) Recipient(raw string) Address {
	entries, err := Parse(raw)
	if err != nil {
		r.log.Debug("recipient field not parsed", "raw", raw, "error", err)
		return Address{}
	}

	for _, entry := range entries {
		if entry.IsGroup {
			for _, re := range r.patterns {
				for _, member := range entry.Members {
					if re.MatchString(member.Addr) {
						r.log.Debug("recipient matched", "group", entry.Group, "addr", member.Addr, "pattern", re.String())
						return member
					}
				}
			}
			continue
		}

		for _, member := range entry.Members {
			if r.patterns.MatchAny(member.Addr) {
				r.log.Debug("recipient matched", "addr", member.Addr)
				return member
			}
		}
	}

	if r.log.Enabled(context.Background(), slog.LevelDebug) {
		addrs := make([]string, 0, len(entries))
		for _, a := range Flatten(entries) {
			addrs = append(addrs, a.Addr)
		}
		r.log.Debug("no recipient matched", "addrs", addrs, "patterns", r.patterns.Strings())
	}
	return Address{}
}
