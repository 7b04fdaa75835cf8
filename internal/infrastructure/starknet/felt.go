package starknet

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// FieldPrime is the Starknet field modulus: 2^251 + 17*2^192 + 1
var FieldPrime = func() *big.Int {
	p := new(big.Int).Lsh(big.NewInt(1), 251)
	p.Add(p, new(big.Int).Lsh(big.NewInt(17), 192))
	return p.Add(p, big.NewInt(1))
}()

// Felt is a Starknet field element. It marshals to the node's hex form
// (0x-prefixed, no leading zeros)
type Felt big.Int

// NewFelt copies v into a Felt. It panics if v is outside the field, which
// is a programming error for internally built values
func NewFelt(v *big.Int) *Felt {
	f, err := FeltFromBig(v)
	if err != nil {
		panic(err)
	}
	return f
}

// FeltFromBig copies v into a Felt, rejecting values outside the field
func FeltFromBig(v *big.Int) (*Felt, error) {
	if v == nil {
		return nil, fmt.Errorf("felt: nil value")
	}
	if v.Sign() < 0 || v.Cmp(FieldPrime) >= 0 {
		return nil, fmt.Errorf("felt: value %s out of field range", v.String())
	}
	return (*Felt)(new(big.Int).Set(v)), nil
}

func FeltFromUint64(v uint64) *Felt {
	return (*Felt)(new(big.Int).SetUint64(v))
}

// FeltFromHash interprets a 32-byte big-endian address as a felt
func FeltFromHash(h common.Hash) (*Felt, error) {
	return FeltFromBig(h.Big())
}

// ParseFelt accepts 0x-prefixed hex (leading zeros allowed) or decimal
func ParseFelt(s string) (*Felt, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("felt: empty string")
	}

	v := new(big.Int)
	var ok bool
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		digits := s[2:]
		if digits == "" {
			return nil, fmt.Errorf("felt: %q has no digits", s)
		}
		_, ok = v.SetString(digits, 16)
	} else {
		_, ok = v.SetString(s, 10)
	}
	if !ok {
		return nil, fmt.Errorf("felt: invalid number %q", s)
	}
	return FeltFromBig(v)
}

// Big returns a copy of the felt as a big.Int
func (f *Felt) Big() *big.Int {
	if f == nil {
		return new(big.Int)
	}
	return new(big.Int).Set((*big.Int)(f))
}

// Hash returns the felt as a 32-byte big-endian value
func (f *Felt) Hash() common.Hash {
	return common.BigToHash(f.Big())
}

func (f *Felt) Uint64() uint64 {
	return (*big.Int)(f).Uint64()
}

func (f *Felt) Cmp(o *Felt) int {
	return f.Big().Cmp(o.Big())
}

func (f *Felt) String() string {
	return hexutil.EncodeBig(f.Big())
}

func (f *Felt) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Felt) UnmarshalText(text []byte) error {
	parsed, err := ParseFelt(string(text))
	if err != nil {
		return err
	}
	*f = *parsed
	return nil
}

// ShortString decodes a felt holding a Cairo short string (e.g. chain ids
// such as SN_MAIN)
func (f *Felt) ShortString() string {
	return string(f.Big().Bytes())
}
