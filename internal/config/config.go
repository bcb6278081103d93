package config

import (
	"encoding/json"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/punchamoorthee/rageshop/internal/domain"
)

type Config struct {
	DBSource string
	Backend  string
	Port     string
	Env      string

	BaseURL       string
	SessionSecret string
	PublicDir     string
	RatePerMinute int

	// TrustedProxies are the peers whose X-Forwarded-For is believed.
	TrustedProxies []netip.Prefix

	Currency string
	Packages []domain.Package

	Stripe Stripe
	Schema Schema
}

type Stripe struct {
	SecretKey      string
	PublishableKey string
	WebhookSecret  string
}

const (
	BackendPostgres = "pg"
	BackendMemory   = "mem"
)

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBSource:      os.Getenv("DB_SOURCE"),
		Backend:       getenv("REPO_BACKEND", BackendPostgres),
		Port:          getenv("SERVER_PORT", "8080"),
		Env:           getenv("ENVIRONMENT", "development"),
		BaseURL:       strings.TrimRight(getenv("APP_BASE_URL", "http://localhost:8080"), "/"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		PublicDir:     getenv("PUBLIC_DIR", "public"),
		Currency:      strings.ToLower(getenv("CURRENCY", "eur")),
		Stripe: Stripe{
			SecretKey:      os.Getenv("STRIPE_SECRET_KEY"),
			PublishableKey: os.Getenv("STRIPE_PUBLISHABLE_KEY"),
			WebhookSecret:  os.Getenv("STRIPE_WEBHOOK_SECRET"),
		},
		Schema: LoadSchema(),
	}

	switch cfg.Backend {
	case BackendPostgres:
		if cfg.DBSource == "" {
			return nil, fmt.Errorf("DB_SOURCE environment variable is required")
		}
	case BackendMemory:
	default:
		return nil, fmt.Errorf("unsupported REPO_BACKEND=%s", cfg.Backend)
	}

	if cfg.SessionSecret == "" {
		if cfg.Env == "production" {
			return nil, fmt.Errorf("SESSION_SECRET environment variable is required in production")
		}
		cfg.SessionSecret = "change_me_please"
	}

	rate, err := strconv.Atoi(getenv("RATE_LIMIT_PER_MINUTE", "120"))
	if err != nil || rate <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_PER_MINUTE must be a positive integer")
	}
	cfg.RatePerMinute = rate

	cfg.Packages, err = ParsePackages(os.Getenv("SHOP_PACKAGES"))
	if err != nil {
		return nil, err
	}

	cfg.TrustedProxies, err = ParseTrustedProxies(os.Getenv("TRUSTED_PROXIES"))
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// ParsePackages decodes the SHOP_PACKAGES catalog. An empty value is an empty catalog.
func ParsePackages(raw string) ([]domain.Package, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var packs []domain.Package
	if err := json.Unmarshal([]byte(raw), &packs); err != nil {
		return nil, fmt.Errorf("SHOP_PACKAGES is not valid JSON: %w", err)
	}
	for _, p := range packs {
		if p.ID == "" {
			return nil, fmt.Errorf("SHOP_PACKAGES entry without id")
		}
	}
	return packs, nil
}

// ParseTrustedProxies reads a comma-separated list of IPs and CIDRs.
func ParseTrustedProxies(raw string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, f := range strings.Split(raw, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if strings.Contains(f, "/") {
			p, err := netip.ParsePrefix(f)
			if err != nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(f)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
