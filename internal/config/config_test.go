package config

import (
	"net/netip"
	"testing"

	"github.com/punchamoorthee/rageshop/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("REPO_BACKEND", "mem")
	t.Setenv("DB_SOURCE", "")
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "")
	t.Setenv("SHOP_PACKAGES", "")
	t.Setenv("APP_BASE_URL", "https://shop.example/")
	t.Setenv("CURRENCY", "EUR")
	t.Setenv("TRUSTED_PROXIES", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Backend)
	assert.Equal(t, "https://shop.example", cfg.BaseURL)
	assert.Equal(t, "eur", cfg.Currency)
	assert.Equal(t, 120, cfg.RatePerMinute)
	assert.Equal(t, "change_me_please", cfg.SessionSecret)
	assert.Empty(t, cfg.Packages)
	assert.Empty(t, cfg.TrustedProxies)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"pg without DB_SOURCE", map[string]string{"REPO_BACKEND": "pg", "DB_SOURCE": ""}},
		{"unknown backend", map[string]string{"REPO_BACKEND": "redis"}},
		{"production without secret", map[string]string{"REPO_BACKEND": "mem", "ENVIRONMENT": "production", "SESSION_SECRET": ""}},
		{"bad rate", map[string]string{"REPO_BACKEND": "mem", "RATE_LIMIT_PER_MINUTE": "0"}},
		{"bad packages", map[string]string{"REPO_BACKEND": "mem", "SHOP_PACKAGES": "{"}},
		{"bad trusted proxy", map[string]string{"REPO_BACKEND": "mem", "TRUSTED_PROXIES": "10.0.0.0/33"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestParsePackages(t *testing.T) {
	packs, err := ParsePackages(`[{"id":"starter","name":"Starter","price_cents":499,"redbucks":500}]`)
	require.NoError(t, err)
	assert.Equal(t, []domain.Package{{ID: "starter", Name: "Starter", PriceCents: 499, Redbucks: 500}}, packs)

	_, err = ParsePackages(`[{"name":"no id"}]`)
	require.Error(t, err)
}

func TestParseTrustedProxies(t *testing.T) {
	got, err := ParseTrustedProxies(" 10.0.0.0/8, 127.0.0.1 ,::1,")
	require.NoError(t, err)
	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("127.0.0.1/32"),
		netip.MustParsePrefix("::1/128"),
	}, got)

	_, err = ParseTrustedProxies("proxy.internal")
	require.Error(t, err)
}

func TestLoadSchema_Overrides(t *testing.T) {
	t.Setenv("ACCOUNTS_TABLE", "players")
	t.Setenv("HOUSES_OWNER_COL", "owner_uuid")

	s := LoadSchema()
	assert.Equal(t, "players", s.AccountsTable)
	assert.Equal(t, "owner_uuid", s.HouseOwnerCol)
	assert.Equal(t, DefaultSchema().IDCol, s.IDCol)
}
