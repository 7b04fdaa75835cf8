package entities

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

func testToken(n int64, symbol string) Token {
	return Token{Address: common.BigToHash(big.NewInt(n)), Symbol: symbol, Decimals: 18}
}

func testPool(addr int64, a, b Token, fee uint32) Pool {
	return NewPool(common.BigToHash(big.NewInt(addr)), a, b, fee)
}
