package starknet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func felts(vals ...uint64) []*Felt {
	out := make([]*Felt, len(vals))
	for i, v := range vals {
		out[i] = FeltFromUint64(v)
	}
	return out
}

func TestEncodeExecuteCalldata(t *testing.T) {
	calls := []Call{
		{ContractAddress: FeltFromUint64(0xa), EntryPoint: "approve", Calldata: felts(1, 2, 3)},
		{ContractAddress: FeltFromUint64(0xb), EntryPoint: "exact_input_single", Calldata: felts(9)},
	}

	got := EncodeExecuteCalldata(calls)
	require.Len(t, got, 1+3+3+3+1)

	assert.Equal(t, uint64(2), got[0].Uint64())
	assert.Equal(t, uint64(0xa), got[1].Uint64())
	assert.Equal(t, 0, got[2].Cmp(Selector("approve")))
	assert.Equal(t, uint64(3), got[3].Uint64())
	assert.Equal(t, uint64(3), got[6].Uint64())
	assert.Equal(t, uint64(0xb), got[7].Uint64())
	assert.Equal(t, 0, got[8].Cmp(Selector("exact_input_single")))
	assert.Equal(t, uint64(1), got[9].Uint64())
	assert.Equal(t, uint64(9), got[10].Uint64())
}

func TestDecodeExecuteResult(t *testing.T) {
	// approve -> [1], swap -> u256(low=500, high=0)
	spans, err := DecodeExecuteResult(felts(2, 1, 1, 2, 500, 0))
	require.NoError(t, err)
	require.Len(t, spans, 2)
	assert.Len(t, spans[0], 1)
	require.Len(t, spans[1], 2)
	assert.Equal(t, uint64(500), spans[1][0].Uint64())
}

func TestDecodeExecuteResultMalformed(t *testing.T) {
	tests := []struct {
		name   string
		result []*Felt
	}{
		{"empty", nil},
		{"count too large", felts(5, 1)},
		{"span overrun", felts(1, 4, 1)},
		{"trailing", felts(1, 1, 1, 9)},
		{"truncated", felts(2, 1, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeExecuteResult(tt.result)
			assert.ErrorIs(t, err, ErrMalformedResult)
		})
	}
}
