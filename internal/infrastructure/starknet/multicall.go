package starknet

import (
	"errors"
	"fmt"
)

// ErrMalformedResult is returned when __execute__ return data does not have
// the Array<Span<felt252>> shape
var ErrMalformedResult = errors.New("malformed execute result")

// EncodeExecuteCalldata encodes calls for a Cairo 1 account __execute__:
// [n_calls, (to, selector, calldata_len, calldata...)*]
func EncodeExecuteCalldata(calls []Call) []*Felt {
	out := make([]*Felt, 0, 1+len(calls)*4)
	out = append(out, FeltFromUint64(uint64(len(calls))))
	for _, call := range calls {
		out = append(out,
			call.ContractAddress,
			Selector(call.EntryPoint),
			FeltFromUint64(uint64(len(call.Calldata))),
		)
		out = append(out, call.Calldata...)
	}
	return out
}

// DecodeExecuteResult splits the __execute__ return data into the per-call
// return spans
func DecodeExecuteResult(result []*Felt) ([][]*Felt, error) {
	if len(result) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrMalformedResult)
	}

	n := result[0].Big()
	if !n.IsUint64() || n.Uint64() > uint64(len(result)) {
		return nil, fmt.Errorf("%w: bad call count %s", ErrMalformedResult, n.String())
	}

	spans := make([][]*Felt, 0, n.Uint64())
	pos := 1
	for i := uint64(0); i < n.Uint64(); i++ {
		if pos >= len(result) {
			return nil, fmt.Errorf("%w: truncated at call %d", ErrMalformedResult, i)
		}
		size := result[pos].Big()
		pos++
		if !size.IsUint64() || size.Uint64() > uint64(len(result)-pos) {
			return nil, fmt.Errorf("%w: span %d overruns result", ErrMalformedResult, i)
		}
		end := pos + int(size.Uint64())
		spans = append(spans, result[pos:end])
		pos = end
	}

	if pos != len(result) {
		return nil, fmt.Errorf("%w: %d trailing felts", ErrMalformedResult, len(result)-pos)
	}
	return spans, nil
}
