package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is embedded into the CLI; kong fills it from flags, STOREFRONT_* env
// vars and the defaults below.
type Config struct {
	BackendURL     string        `name:"backend-url" help:"Base URL of the shop backend." env:"STOREFRONT_BACKEND_URL" default:"http://127.0.0.1:8000"`
	RequestTimeout time.Duration `help:"Timeout for a single backend request." env:"STOREFRONT_REQUEST_TIMEOUT" default:"10s"`
	RetryMax       int           `help:"Attempts for idempotent backend reads." env:"STOREFRONT_RETRY_MAX" default:"3"`

	CSRFCookie    string `name:"csrf-cookie" help:"Cookie holding the CSRF token." env:"STOREFRONT_CSRF_COOKIE" default:"csrftoken"`
	CSRFHeader    string `name:"csrf-header" help:"Header carrying the CSRF token." env:"STOREFRONT_CSRF_HEADER" default:"X-CSRFToken"`
	SessionCookie string `help:"Backend session cookie name." env:"STOREFRONT_SESSION_COOKIE" default:"sessionid"`
	SessionID     string `help:"Existing backend session to resume." env:"STOREFRONT_SESSION_ID"`

	DebounceWindow    time.Duration `help:"Quiescence window for quantity edits." env:"STOREFRONT_DEBOUNCE_WINDOW" default:"400ms"`
	FreeOrderSentinel string        `help:"Payment intent id sent for zero-cost orders." env:"STOREFRONT_FREE_ORDER_SENTINEL" default:"FREE_ORDER"`
	CategoryTTL       time.Duration `help:"How long the category list is cached." env:"STOREFRONT_CATEGORY_TTL" default:"5m"`
	NoticeTTL         time.Duration `help:"How long shopper notices stay visible." env:"STOREFRONT_NOTICE_TTL" default:"2s"`

	StripeKey string `help:"Publishable key used to confirm card payments." env:"STOREFRONT_STRIPE_KEY"`
	StripeURL string `help:"Payment API base URL." env:"STOREFRONT_STRIPE_URL" default:"https://api.stripe.com"`

	AMQPURL string `name:"amqp-url" help:"RabbitMQ URL for storefront events; empty disables publishing." env:"STOREFRONT_AMQP_URL"`

	ListenAddr       string `help:"Address of the local UI server." env:"STOREFRONT_LISTEN_ADDR" default:":8090"`
	CORSAllowOrigins string `name:"cors-allow-origins" help:"Comma separated origins allowed by the UI server." env:"STOREFRONT_CORS_ALLOW_ORIGINS" default:"http://localhost:8090,http://127.0.0.1:8090"`

	LogLevel  string `help:"Log level." env:"STOREFRONT_LOG_LEVEL" default:"info" enum:"debug,info,warn,error"`
	LogFormat string `help:"Log format." env:"STOREFRONT_LOG_FORMAT" default:"console" enum:"console,json"`
}

// LoadDotenv loads a .env file into the process environment. A missing file
// is fine: production sets the variables directly.
func LoadDotenv(paths ...string) error {
	err := godotenv.Load(paths...)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load .env: %w", err)
}

func (c Config) Validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil {
		return fmt.Errorf("invalid backend url %q: %w", c.BackendURL, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("backend url %q must be absolute", c.BackendURL)
	}

	for name, d := range map[string]time.Duration{
		"request timeout": c.RequestTimeout,
		"debounce window": c.DebounceWindow,
		"category ttl":    c.CategoryTTL,
		"notice ttl":      c.NoticeTTL,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}

	if strings.TrimSpace(c.CSRFCookie) == "" || strings.TrimSpace(c.CSRFHeader) == "" {
		return errors.New("csrf cookie and header names are required")
	}
	if c.FreeOrderSentinel == "" {
		return errors.New("free order sentinel is required")
	}
	if c.RetryMax < 1 {
		return fmt.Errorf("retry max must be at least 1, got %d", c.RetryMax)
	}
	return nil
}

func (c Config) Origins() []string {
	return splitCSV(c.CORSAllowOrigins)
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Defaults mirrors the kong defaults for callers that build a Config in code.
func Defaults() Config {
	return Config{
		BackendURL:        "http://127.0.0.1:8000",
		RequestTimeout:    10 * time.Second,
		RetryMax:          3,
		CSRFCookie:        "csrftoken",
		CSRFHeader:        "X-CSRFToken",
		SessionCookie:     "sessionid",
		DebounceWindow:    400 * time.Millisecond,
		FreeOrderSentinel: "FREE_ORDER",
		CategoryTTL:       5 * time.Minute,
		NoticeTTL:         2 * time.Second,
		StripeURL:         "https://api.stripe.com",
		ListenAddr:        ":8090",
		CORSAllowOrigins:  "http://localhost:8090,http://127.0.0.1:8090",
		LogLevel:          "info",
		LogFormat:         "console",
	}
}
