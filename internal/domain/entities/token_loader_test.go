package entities

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRegistryLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	data := `{"tokens":[
		{"address":"0x0000000000000000000000000000000000000000000000000000000000000abc","symbol":"ABC","name":"Alpha","decimals":6},
		{"address":"0xdef","symbol":"def","name":"Delta","decimals":18}
	]}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	r := NewTokenRegistry()
	require.NoError(t, r.LoadFromFile(path))
	assert.Equal(t, 2, r.Count())

	abc, ok := r.GetBySymbol("abc")
	require.True(t, ok)
	assert.Equal(t, uint8(6), abc.Decimals)

	byAddr, ok := r.GetByAddress(MustParseAddress("0xabc"))
	require.True(t, ok)
	assert.Equal(t, "ABC", byAddr.Symbol)
}

func TestTokenRegistryLoadFromFileErrors(t *testing.T) {
	dir := t.TempDir()

	r := NewTokenRegistry()
	assert.Error(t, r.LoadFromFile(filepath.Join(dir, "missing.json")))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"tokens":[{"address":"nothex","symbol":"X"}]}`), 0o600))
	assert.Error(t, r.LoadFromFile(bad))
}

func TestTokenRegistryLookup(t *testing.T) {
	r := DefaultRegistry()

	eth, err := r.Lookup("eth")
	require.NoError(t, err)
	assert.True(t, eth.Equals(ETH))

	usdc, err := r.Lookup(ShortAddress(USDC.Address))
	require.NoError(t, err)
	assert.Equal(t, "USDC", usdc.Symbol)

	unknown, err := r.Lookup("0x1234")
	require.NoError(t, err)
	assert.Equal(t, "UNKNOWN", unknown.Symbol)

	_, err = r.Lookup("NOPE")
	assert.Error(t, err)
}

func TestRegisterReplacesExistingAddress(t *testing.T) {
	r := NewTokenRegistry()
	r.Register(testToken(1, "OLD"))
	r.Register(testToken(1, "NEW"))

	assert.Equal(t, 1, r.Count())
	assert.Equal(t, "NEW", r.GetAll()[0].Symbol)
}

func TestParseAddress(t *testing.T) {
	_, err := ParseAddress("1234")
	assert.Error(t, err)

	_, err = ParseAddress("0x" + "8" + "000000000000000000000000000000000000000000000000000000000000000")
	assert.Error(t, err, "above 2^251")

	addr, err := ParseAddress("0x00ff")
	require.NoError(t, err)
	assert.Equal(t, "0xff", ShortAddress(addr))
}
