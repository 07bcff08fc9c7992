package rules

import (
	"strings"

	"github.com/aaronromeo/mailtriage/internal/message"
)

const (
	DefaultNamespace = "Special"
	DefaultCcFolder  = "Cc"
)

// DomainRoute sends every sender under Domain to Folder.
type DomainRoute struct {
	Domain string `yaml:"domain"`
	Folder string `yaml:"folder"`
}

// DefaultDomains is the built-in sender domain table, in evaluation order.
var DefaultDomains = []DomainRoute{
	{Domain: "uos.ac.kr", Folder: "UOS"},
	{Domain: "linkedin.com", Folder: "Special/Linked in"},
	{Domain: "inflearn.com", Folder: "Special/Inflearn"},
	{Domain: "accounts.google.com", Folder: "Special/Google"},
	{Domain: "x.com", Folder: "Special/X"},
}

// Options configures the default rule list.
type Options struct {
	Domains         []DomainRoute
	GeneralAccounts []string
	Namespace       string
	CcFolder        string
}

// Default builds the fixed rule list: sender domains first, then the
// per-account recipient rule, then the Cc fallback. A recipient whose local
// part is a general account matches nothing and is left in place.
func Default(opts Options) *Engine {
	namespace := strings.TrimSpace(opts.Namespace)
	if namespace == "" {
		namespace = DefaultNamespace
	}
	ccFolder := strings.TrimSpace(opts.CcFolder)
	if ccFolder == "" {
		ccFolder = DefaultCcFolder
	}

	general := make(map[string]struct{}, len(opts.GeneralAccounts))
	for _, name := range opts.GeneralAccounts {
		general[strings.TrimSpace(name)] = struct{}{}
	}

	list := make([]Rule, 0, len(opts.Domains)+2)
	for _, route := range opts.Domains {
		list = append(list, senderDomain(route))
	}

	list = append(list,
		Rule{
			Name: "recipient-account",
			Match: func(h message.Header) bool {
				local := LocalPart(h.To)
				if local == "" {
					return false
				}
				_, ok := general[local]
				return !ok
			},
			Destination: func(h message.Header) string {
				return namespace + "/" + LocalPart(h.To)
			},
		},
		Rule{
			Name: "cc-only",
			Match: func(h message.Header) bool {
				return LocalPart(h.To) == ""
			},
			Destination: func(message.Header) string {
				return ccFolder
			},
		},
	)

	return NewEngine(list...)
}

func senderDomain(route DomainRoute) Rule {
	suffix := "@" + strings.ToLower(strings.TrimPrefix(strings.TrimSpace(route.Domain), "@"))
	folder := route.Folder
	return Rule{
		Name: "sender-domain:" + strings.TrimPrefix(suffix, "@"),
		Match: func(h message.Header) bool {
			return strings.HasSuffix(strings.ToLower(h.From), suffix)
		},
		Destination: func(message.Header) string {
			return folder
		},
	}
}
