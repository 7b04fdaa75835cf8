package starknet

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFelt(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"hex", "0x1f", "31", false},
		{"hex leading zeros", "0x00000001", "1", false},
		{"upper prefix", "0XFF", "255", false},
		{"decimal", "12345", "12345", false},
		{"zero", "0x0", "0", false},
		{"empty", "", "", true},
		{"prefix only", "0x", "", true},
		{"garbage", "0xzz", "", true},
		{"negative", "-5", "", true},
		{"prime", FieldPrime.String(), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFelt(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Big().String())
		})
	}
}

func TestFeltJSONHasNoLeadingZeros(t *testing.T) {
	f, err := ParseFelt("0x000000abc")
	require.NoError(t, err)

	data, err := json.Marshal([]*Felt{f, FeltFromUint64(0)})
	require.NoError(t, err)
	assert.JSONEq(t, `["0xabc","0x0"]`, string(data))

	var back []*Felt
	require.NoError(t, json.Unmarshal(data, &back))
	require.Len(t, back, 2)
	assert.Equal(t, 0, back[0].Cmp(f))
}

func TestFeltHashRoundTrip(t *testing.T) {
	f, err := ParseFelt("0x049d36570d4e46f48e99674bd3fcc84644ddd6b96f7c741b1562b82f9e004dc7")
	require.NoError(t, err)

	back, err := FeltFromHash(f.Hash())
	require.NoError(t, err)
	assert.Equal(t, 0, back.Cmp(f))
}

func TestFeltShortString(t *testing.T) {
	f := NewFelt(new(big.Int).SetBytes([]byte("SN_MAIN")))
	assert.Equal(t, "SN_MAIN", f.ShortString())
	assert.Equal(t, "0x534e5f4d41494e", f.String())
}

func TestSelector(t *testing.T) {
	assert.Equal(t, "0x83afd3f4caedc6eebf44246fe54e38c95e3179a5ec9ea81740eca5b482d12e", Selector("transfer").String())
	assert.Equal(t, "0x219209e083275171774dab1df80982e9df2096516f06319c5c6d71ae0a8480c", Selector("approve").String())
	assert.Less(t, Selector("exact_input_single").Big().BitLen(), 251)
}
