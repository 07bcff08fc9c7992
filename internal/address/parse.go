package address

import (
	"errors"
	"strings"

	"github.com/emersion/go-message/mail"
)

var errEmptyField = errors.New("empty address field")

// Address is a single mailbox. The zero value is the "no match" sentinel
// returned by recipient resolution.
type Address struct {
	Name string
	Addr string
}

// IsZero reports whether a is the "no match" sentinel.
func (a Address) IsZero() bool {
	return a.Addr == ""
}

// DisplayName returns the explicit display name, or the address itself when
// the field carried none.
func (a Address) DisplayName() string {
	if strings.TrimSpace(a.Name) != "" {
		return a.Name
	}
	return a.Addr
}

// Entry is one top-level item of an address field: either a single mailbox or
// a named group whose members keep their declared order.
type Entry struct {
	Group   string
	IsGroup bool
	Members []Address
}

// Parse splits a raw address header value into its top-level entries. Single
// mailboxes and group members are parsed with go-message, which also decodes
// RFC 2047 display names.
func Parse(raw string) ([]Entry, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errEmptyField
	}

	chunks, err := split(raw)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(chunks))
	for _, c := range chunks {
		if c.group {
			members, err := parseMembers(c.members)
			if err != nil {
				return nil, err
			}
			entries = append(entries, Entry{
				Group:   unquote(c.text),
				IsGroup: true,
				Members: members,
			})
			continue
		}

		parsed, err := mail.ParseAddress(c.text)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{
			Members: []Address{{Name: parsed.Name, Addr: parsed.Address}},
		})
	}

	if len(entries) == 0 {
		return nil, errEmptyField
	}
	return entries, nil
}

// Flatten returns every mailbox of entries in declared order.
func Flatten(entries []Entry) []Address {
	var out []Address
	for _, e := range entries {
		out = append(out, e.Members...)
	}
	return out
}

func parseMembers(list string) ([]Address, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	parsed, err := mail.ParseAddressList(list)
	if err != nil {
		return nil, err
	}
	members := make([]Address, 0, len(parsed))
	for _, p := range parsed {
		members = append(members, Address{Name: p.Name, Addr: p.Address})
	}
	return members, nil
}

type chunk struct {
	text    string
	group   bool
	members string
}

// split walks the field once, honouring quoted strings, comments and angle
// brackets, and cuts it at top-level commas. A top-level colon opens a group
// that runs until the matching semicolon.
func split(raw string) ([]chunk, error) {
	var (
		chunks  []chunk
		cur     strings.Builder
		members strings.Builder
		inQuote bool
		escaped bool
		comment int
		angle   int
		inGroup bool
		name    string
	)

	flush := func() {
		text := strings.TrimSpace(cur.String())
		cur.Reset()
		if text != "" {
			chunks = append(chunks, chunk{text: text})
		}
	}

	for _, r := range raw {
		out := &cur
		if inGroup {
			out = &members
		}

		switch {
		case escaped:
			escaped = false
		case inQuote:
			switch r {
			case '\\':
				escaped = true
			case '"':
				inQuote = false
			}
		case comment > 0:
			switch r {
			case '\\':
				escaped = true
			case '(':
				comment++
			case ')':
				comment--
			}
		case r == '"':
			inQuote = true
		case r == '(':
			comment++
		case r == '<':
			angle++
		case r == '>' && angle > 0:
			angle--
		case angle > 0:
		case r == ':' && !inGroup:
			name = cur.String()
			cur.Reset()
			inGroup = true
			continue
		case r == ';' && inGroup:
			chunks = append(chunks, chunk{
				text:    strings.TrimSpace(name),
				group:   true,
				members: members.String(),
			})
			members.Reset()
			inGroup = false
			continue
		case r == ',' && !inGroup:
			flush()
			continue
		}

		out.WriteRune(r)
	}

	if inQuote || comment > 0 || angle > 0 {
		return nil, errors.New("unterminated address field")
	}
	if inGroup {
		return nil, errors.New("unterminated address group")
	}
	flush()
	return chunks, nil
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	return s
}
