package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aaronromeo/mailtriage/internal/imap/sessionmgr"
	"github.com/aaronromeo/mailtriage/internal/matchers"
	"github.com/aaronromeo/mailtriage/internal/rules"
)

const (
	envIMAPHost          = "MAILTRIAGE_IMAP_HOST"
	envIMAPPort          = "MAILTRIAGE_IMAP_PORT"
	envIMAPUser          = "MAILTRIAGE_IMAP_USER"
	envIMAPPass          = "MAILTRIAGE_IMAP_PASS"
	envGeneralAccounts   = "MAILTRIAGE_GENERAL_ACCOUNTS"
	envRecipientPatterns = "MAILTRIAGE_RECIPIENT_PATTERNS"
	envWebhookURL        = "MAILTRIAGE_WEBHOOK_URL"
	envStatusAddr        = "MAILTRIAGE_STATUS_ADDR"
	envOTLPEndpoint      = "MAILTRIAGE_OTLP_ENDPOINT"
	envIdleKeepalive     = "MAILTRIAGE_IDLE_KEEPALIVE"

	DefaultIMAPPort = 993
	DefaultMailbox  = "INBOX"
)

// Config holds the static routing tables loaded from YAML. Every field is
// optional.
type Config struct {
	Domains   []rules.DomainRoute `yaml:"domains"`
	Namespace string              `yaml:"namespace"`
	CcFolder  string              `yaml:"cc_folder"`
	Mailbox   string              `yaml:"mailbox"`
}

// Default returns the built-in routing tables.
func Default() Config {
	domains := make([]rules.DomainRoute, len(rules.DefaultDomains))
	copy(domains, rules.DefaultDomains)
	return Config{
		Domains:   domains,
		Namespace: rules.DefaultNamespace,
		CcFolder:  rules.DefaultCcFolder,
		Mailbox:   DefaultMailbox,
	}
}

// Env holds everything read from environment variables.
type Env struct {
	Host              string
	Port              int
	User              string
	Pass              string
	GeneralAccounts   []string
	RecipientPatterns []string

	WebhookURL    string
	StatusAddr    string
	OTLPEndpoint  string
	IdleKeepalive time.Duration
}

// Addr returns host:port for dialing.
func (e Env) Addr() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// Patterns compiles the recipient patterns.
func (e Env) Patterns() (matchers.Patterns, error) {
	patterns, err := matchers.Compile(e.RecipientPatterns)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", envRecipientPatterns, err)
	}
	return patterns, nil
}

// Load reads configuration from a YAML file. Fields the file omits keep their
// defaults; an explicit empty domains list disables domain routing.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate performs basic validation on the routing tables.
func Validate(cfg Config) error {
	seen := make(map[string]struct{}, len(cfg.Domains))
	for i, route := range cfg.Domains {
		domain := strings.ToLower(strings.TrimSpace(route.Domain))
		if domain == "" {
			return fmt.Errorf("domain %d must define domain", i+1)
		}
		if strings.Contains(strings.TrimPrefix(domain, "@"), "@") {
			return fmt.Errorf("domain %d: %q is not a domain", i+1, route.Domain)
		}
		if strings.TrimSpace(route.Folder) == "" {
			return fmt.Errorf("domain %d (%s) must define folder", i+1, route.Domain)
		}
		if _, ok := seen[domain]; ok {
			return fmt.Errorf("domain %q is listed twice", route.Domain)
		}
		seen[domain] = struct{}{}
	}
	if strings.TrimSpace(cfg.Namespace) == "" {
		return errors.New("namespace must not be empty")
	}
	if strings.TrimSpace(cfg.CcFolder) == "" {
		return errors.New("cc_folder must not be empty")
	}
	if strings.TrimSpace(cfg.Mailbox) == "" {
		return errors.New("mailbox must not be empty")
	}
	return nil
}

// ValidateEnv ensures required environment variables are set.
func ValidateEnv() error {
	missing := []string{}
	for _, name := range requiredEnvVars() {
		if strings.TrimSpace(os.Getenv(name)) == "" {
			missing = append(missing, name)
		}
	}

	if len(missing) == 0 {
		return nil
	}

	return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
}

// EnvFromEnv loads the connection and routing options, reporting every
// missing required variable at once.
func EnvFromEnv() (Env, error) {
	if err := ValidateEnv(); err != nil {
		return Env{}, err
	}

	port := DefaultIMAPPort
	if raw := strings.TrimSpace(os.Getenv(envIMAPPort)); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil {
			return Env{}, fmt.Errorf("invalid %s: %w", envIMAPPort, err)
		}
		if p <= 0 || p > 65535 {
			return Env{}, fmt.Errorf("invalid %s: %d out of range", envIMAPPort, p)
		}
		port = p
	}

	keepalive := sessionmgr.DefaultKeepalive
	if raw := strings.TrimSpace(os.Getenv(envIdleKeepalive)); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Env{}, fmt.Errorf("invalid %s: %w", envIdleKeepalive, err)
		}
		if d <= 0 {
			return Env{}, fmt.Errorf("invalid %s: must be positive", envIdleKeepalive)
		}
		keepalive = d
	}

	env := Env{
		Host:              strings.TrimSpace(os.Getenv(envIMAPHost)),
		Port:              port,
		User:              strings.TrimSpace(os.Getenv(envIMAPUser)),
		Pass:              os.Getenv(envIMAPPass),
		GeneralAccounts:   splitList(os.Getenv(envGeneralAccounts)),
		RecipientPatterns: splitList(os.Getenv(envRecipientPatterns)),
		WebhookURL:        strings.TrimSpace(os.Getenv(envWebhookURL)),
		StatusAddr:        strings.TrimSpace(os.Getenv(envStatusAddr)),
		OTLPEndpoint:      strings.TrimSpace(os.Getenv(envOTLPEndpoint)),
		IdleKeepalive:     keepalive,
	}
	if len(env.RecipientPatterns) == 0 {
		return Env{}, fmt.Errorf("invalid %s: no patterns", envRecipientPatterns)
	}
	if _, err := env.Patterns(); err != nil {
		return Env{}, err
	}
	return env, nil
}

// RoutingFromEnv loads only the options classification needs, for offline
// use without server credentials.
func RoutingFromEnv() (Env, error) {
	missing := []string{}
	for _, name := range []string{envGeneralAccounts, envRecipientPatterns} {
		if strings.TrimSpace(os.Getenv(name)) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return Env{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	env := Env{
		GeneralAccounts:   splitList(os.Getenv(envGeneralAccounts)),
		RecipientPatterns: splitList(os.Getenv(envRecipientPatterns)),
	}
	if len(env.RecipientPatterns) == 0 {
		return Env{}, fmt.Errorf("invalid %s: no patterns", envRecipientPatterns)
	}
	if _, err := env.Patterns(); err != nil {
		return Env{}, err
	}
	return env, nil
}

// Summary returns a concise config summary for startup logs.
func Summary(cfg Config, env Env) string {
	reportingStatus := "disabled"
	if env.WebhookURL != "" {
		reportingStatus = "enabled"
	}
	return fmt.Sprintf(
		"Config summary\n"+
			"- server: %s\n"+
			"- mailbox: %s\n"+
			"- domains: %d\n"+
			"- general accounts: %d\n"+
			"- recipient patterns: %d\n"+
			"- reporting webhook: %s\n"+
			"- status endpoint: %s",
		env.Addr(),
		cfg.Mailbox,
		len(cfg.Domains),
		len(env.GeneralAccounts),
		len(env.RecipientPatterns),
		reportingStatus,
		defaultIfEmpty(env.StatusAddr, "(not set)"),
	)
}

// RuleOptions maps the loaded configuration onto the rule list options.
func RuleOptions(cfg Config, env Env) rules.Options {
	return rules.Options{
		Domains:         cfg.Domains,
		GeneralAccounts: env.GeneralAccounts,
		Namespace:       cfg.Namespace,
		CcFolder:        cfg.CcFolder,
	}
}

func requiredEnvVars() []string {
	return []string{
		envIMAPHost,
		envIMAPUser,
		envIMAPPass,
		envGeneralAccounts,
		envRecipientPatterns,
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func defaultIfEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
