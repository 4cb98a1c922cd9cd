package instruments

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegistry_LoadFromFile(t *testing.T) {
	r := NewRegistry("crunchdao", zap.NewNop())

	path := filepath.Join(t.TempDir(), "crunchdao.json")
	content := `{
		"AAPL": "R2FJ",
		"spy":  "R735",
		"BLANK": " "
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	require.NoError(t, r.LoadFromFile(path))

	code, ok := r.Code("AAPL")
	assert.True(t, ok)
	assert.Equal(t, "R2FJ", code)

	code, ok = r.Code("SPY")
	assert.True(t, ok, "tickers are case-insensitive")
	assert.Equal(t, "R735", code)

	_, ok = r.Code("BLANK")
	assert.False(t, ok, "blank codes are not registered")
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_LoadFromFile_Errors(t *testing.T) {
	r := NewRegistry("crunchdao", nil)

	err := r.LoadFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	assert.Error(t, r.LoadFromFile(path))
	assert.Zero(t, r.Len())
}

func TestRegistry_Code_NotFound(t *testing.T) {
	r := NewRegistry("numerai", nil)
	_, ok := r.Code("NOPE")
	assert.False(t, ok)
}

func TestCountryCode(t *testing.T) {
	tests := []struct {
		market string
		want   string
		ok     bool
	}{
		{"usa", "US", true},
		{"USA", "US", true},
		{"spain", "SP", true},
		{"binance", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.market, func(t *testing.T) {
			got, ok := CountryCode(tt.market)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
