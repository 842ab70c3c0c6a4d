package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableName(t *testing.T) {
	tests := []struct {
		slug string
		want string
	}{
		{"bitcoin-up-or-down-july-25-3pm-et", "pm_bitcoin_up_or_down_july_25_3pm_et"},
		{"what-price-will-ethereum-hit-in-july", "pm_what_price_will_ethereum_hit_in_july"},
		{"UPPER-Case.Slug", "pm_upper_case_slug"},
		{"pm_already_prefixed", "pm_already_prefixed"},
		{"", "pm_"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TableName(tt.slug), "slug %q", tt.slug)
	}
}

func TestTableNameTruncates(t *testing.T) {
	long := strings.Repeat("a", 100)
	got := TableName(long)
	assert.Len(t, got, maxIdentLen)
	assert.True(t, strings.HasPrefix(got, "pm_"))
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "postgres://u:p@db:5433/market?sslmode=require", DSN(ClientConfig{
		Host: "db", Port: 5433, Database: "market", User: "u", Password: "p", SSLMode: "require",
	}))

	// Defaults fill in port and sslmode.
	assert.Equal(t, "postgres://u:p@db:5432/market?sslmode=disable", DSN(ClientConfig{
		Host: "db", Database: "market", User: "u", Password: "p",
	}))

	// An explicit DSN wins.
	assert.Equal(t, "postgres://elsewhere/x", DSN(ClientConfig{DSN: "postgres://elsewhere/x", Host: "db"}))
}
