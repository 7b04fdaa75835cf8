package dex

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bimakw/swap-quoter/internal/domain/entities"
	"github.com/bimakw/swap-quoter/internal/infrastructure/starknet"
)

// ContractCaller executes read-only contract calls
type ContractCaller interface {
	BlockNumber(ctx context.Context) (uint64, error)

	// CallContract calls one entry point at the latest block
	CallContract(ctx context.Context, contract *starknet.Felt, entryPoint string, calldata []*starknet.Felt) ([]*starknet.Felt, error)

	// Multicall runs calls against one block; results and errors are
	// index-aligned with calls
	Multicall(ctx context.Context, calls []starknet.FunctionCall, block starknet.BlockID) ([][]*starknet.Felt, []error)
}

// TokenResolver maps token addresses to token metadata
type TokenResolver interface {
	Resolve(addr common.Hash) entities.Token
}

// PoolSource defines the interface for reading pools from a DEX
type PoolSource interface {
	GetPoolAddress(ctx context.Context, tokenA, tokenB common.Hash, fee uint32) (common.Hash, error)

	GetPool(ctx context.Context, address common.Hash) (*entities.Pool, error)

	// FindPools returns every pool deployed for the pair, one per fee tier
	FindPools(ctx context.Context, tokenA, tokenB entities.Token) ([]entities.Pool, error)
}
