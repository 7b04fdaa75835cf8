package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bimakw/swap-quoter/internal/domain/entities"
	"github.com/bimakw/swap-quoter/internal/domain/services"
	"github.com/bimakw/swap-quoter/internal/infrastructure/starknet"
)

var (
	tokenA = entities.Token{Address: common.BigToHash(big.NewInt(0x10)), Symbol: "AAA", Decimals: 18}
	tokenB = entities.Token{Address: common.BigToHash(big.NewInt(0x20)), Symbol: "BBB", Decimals: 6}
)

func testRegistry() *entities.TokenRegistry {
	reg := entities.NewTokenRegistry()
	reg.Register(tokenA)
	reg.Register(tokenB)
	return reg
}

func testRoute(t *testing.T) *entities.Route {
	t.Helper()
	pool := entities.NewPool(common.BigToHash(big.NewInt(0x100)), tokenA, tokenB, 3000)
	route, err := entities.NewRoute([]entities.Pool{pool}, tokenA, tokenB)
	require.NoError(t, err)
	return route
}

type fakeQuoter struct {
	result    *services.TradeResult
	err       error
	lastReq   services.QuoteRequest
	swapCalls int
}

func (f *fakeQuoter) Quote(ctx context.Context, req services.QuoteRequest) (*services.TradeResult, error) {
	f.lastReq = req
	return f.result, f.err
}

func (f *fakeQuoter) SwapCalls(trade *entities.Trade, recipient common.Hash, slippageBps uint64) ([]starknet.Call, error) {
	f.swapCalls++
	return []starknet.Call{{
		ContractAddress: starknet.FeltFromUint64(0x7777),
		EntryPoint:      "exact_input_single",
		Calldata:        []*starknet.Felt{starknet.FeltFromUint64(slippageBps)},
	}}, nil
}

func validResult(t *testing.T) *services.TradeResult {
	route := testRoute(t)
	trade, err := entities.NewTrade(route, entities.ExactInput,
		entities.NewTokenAmount(tokenA, big.NewInt(1000)),
		entities.NewTokenAmount(tokenB, big.NewInt(2010)))
	require.NoError(t, err)
	trade.BlockNumber = 77
	trade.FeeEstimate = big.NewInt(99)

	return &services.TradeResult{
		State:       entities.TradeStateValid,
		Trade:       trade,
		BlockNumber: 77,
		Candidates:  []services.Candidate{{Route: route, Amount: big.NewInt(2010)}},
	}
}

func doGet(h http.HandlerFunc, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestGetQuote_Valid(t *testing.T) {
	quoter := &fakeQuoter{result: validResult(t)}
	h := NewQuoteHandler(quoter, testRegistry(), 50)

	rec := doGet(h.GetQuote, "/api/v1/quote?tokenIn=AAA&tokenOut=0x20&amount=1000&account=0xacc&slippage=100&pools=0x100")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp QuoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "valid", resp.State)
	assert.Equal(t, "exact_in", resp.TradeType)
	assert.Equal(t, "1000", resp.AmountIn)
	assert.Equal(t, "2010", resp.AmountOut)
	// 2010 * 10000 / 10100
	assert.Equal(t, "1990", resp.MinAmountOut)
	assert.Equal(t, uint64(100), resp.SlippageBps)
	assert.Equal(t, "AAA -> BBB", resp.Path)
	require.Len(t, resp.Route, 1)
	assert.Equal(t, "0x100", resp.Route[0].Pool)
	assert.Equal(t, uint32(3000), resp.Route[0].Fee)
	assert.Equal(t, uint64(77), resp.BlockNumber)
	assert.Equal(t, "99", resp.FeeEstimate)
	require.Len(t, resp.Calls, 1)
	require.Len(t, resp.Candidates, 1)
	assert.Equal(t, "2010", resp.Candidates[0].Amount)

	assert.Equal(t, tokenA.Address, quoter.lastReq.TokenIn.Address)
	assert.Equal(t, tokenB.Address, quoter.lastReq.TokenOut.Address)
	assert.Equal(t, common.HexToHash("0xacc"), quoter.lastReq.Account)
	assert.Equal(t, []common.Hash{common.HexToHash("0x100")}, quoter.lastReq.PoolAddresses)
}

func TestGetQuote_NoAccountOmitsCalls(t *testing.T) {
	quoter := &fakeQuoter{result: validResult(t)}
	h := NewQuoteHandler(quoter, testRegistry(), 50)

	rec := doGet(h.GetQuote, "/api/v1/quote?tokenIn=AAA&tokenOut=BBB&amount=1000")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp QuoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Calls)
	assert.Equal(t, uint64(50), resp.SlippageBps)
	assert.Zero(t, quoter.swapCalls)
}

func TestGetQuote_ExactOutput(t *testing.T) {
	quoter := &fakeQuoter{result: &services.TradeResult{State: entities.TradeStateNoRouteFound}}
	h := NewQuoteHandler(quoter, testRegistry(), 50)

	rec := doGet(h.GetQuote, "/api/v1/quote?tokenIn=AAA&tokenOut=BBB&amount=5&tradeType=exact_out")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, entities.ExactOutput, quoter.lastReq.TradeType)

	var resp QuoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "no_route_found", resp.State)
}

func TestGetQuote_BadRequests(t *testing.T) {
	tests := []struct {
		name  string
		query string
		code  string
	}{
		{"missing params", "tokenIn=AAA&amount=1", "missing_params"},
		{"unknown symbol", "tokenIn=XYZ&tokenOut=BBB&amount=1", "invalid_token_in"},
		{"bad token out", "tokenIn=AAA&tokenOut=0xzz&amount=1", "invalid_token_out"},
		{"zero amount", "tokenIn=AAA&tokenOut=BBB&amount=0", "invalid_amount"},
		{"non numeric amount", "tokenIn=AAA&tokenOut=BBB&amount=1e18", "invalid_amount"},
		{"bad trade type", "tokenIn=AAA&tokenOut=BBB&amount=1&tradeType=sideways", "invalid_trade_type"},
		{"bad account", "tokenIn=AAA&tokenOut=BBB&amount=1&account=acc", "invalid_account"},
		{"bad pools", "tokenIn=AAA&tokenOut=BBB&amount=1&pools=0x1,pool", "invalid_pools"},
		{"bad slippage", "tokenIn=AAA&tokenOut=BBB&amount=1&slippage=9000", "invalid_slippage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewQuoteHandler(&fakeQuoter{}, testRegistry(), 50)
			rec := doGet(h.GetQuote, "/api/v1/quote?"+tt.query)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Error)
		})
	}
}

func TestGetQuote_InvalidState(t *testing.T) {
	h := NewQuoteHandler(&fakeQuoter{result: &services.TradeResult{State: entities.TradeStateInvalid}}, testRegistry(), 50)

	rec := doGet(h.GetQuote, "/api/v1/quote?tokenIn=AAA&tokenOut=BBB&amount=1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetQuote_UpstreamError(t *testing.T) {
	h := NewQuoteHandler(&fakeQuoter{err: errors.New("node down")}, testRegistry(), 50)

	rec := doGet(h.GetQuote, "/api/v1/quote?tokenIn=AAA&tokenOut=BBB&amount=1")
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "quote_failed", resp.Error)
	assert.Equal(t, "node down", resp.Message)
}

type fakeRoutes struct {
	routes []*entities.Route
	err    error
}

func (f *fakeRoutes) Routes(ctx context.Context, tokenIn, tokenOut entities.Token, pools []common.Hash) ([]*entities.Route, error) {
	return f.routes, f.err
}

type fakePools struct {
	pool *entities.Pool
}

func (f *fakePools) GetPool(ctx context.Context, addr common.Hash) (*entities.Pool, error) {
	if f.pool == nil || f.pool.Address != addr {
		return nil, errors.New("pool not found")
	}
	return f.pool, nil
}

func TestGetRoutes(t *testing.T) {
	h := NewRoutesHandler(&fakeRoutes{routes: []*entities.Route{testRoute(t)}}, &fakePools{}, testRegistry())

	rec := doGet(h.GetRoutes, "/api/v1/routes?tokenIn=AAA&tokenOut=BBB")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp RoutesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Routes, 1)
	assert.Equal(t, "0x100", resp.Routes[0].Key)
	assert.Equal(t, "AAA -> BBB", resp.Routes[0].Path)
	assert.Empty(t, resp.Routes[0].MidPrice)

	rec = doGet(h.GetRoutes, "/api/v1/routes?tokenIn=AAA")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPool(t *testing.T) {
	pool := entities.NewPool(common.BigToHash(big.NewInt(0x100)), tokenA, tokenB, 500)
	pool.Liquidity = big.NewInt(12345)
	h := NewRoutesHandler(&fakeRoutes{}, &fakePools{pool: &pool}, testRegistry())

	r := chi.NewRouter()
	r.Get("/api/v1/pools/{address}", h.GetPool)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pools/0x100", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp PoolResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "0x100", resp.Address)
	assert.Equal(t, "AAA", resp.Symbol0)
	assert.Equal(t, uint32(500), resp.Fee)
	assert.Equal(t, "12345", resp.Liquidity)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/pools/0x999", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/pools/nope", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	h := NewHealthHandler("1.0.0", "SN_MAIN")
	rec := doGet(h.Health, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "1.0.0", resp.Version)
	assert.Equal(t, "SN_MAIN", resp.ChainID)
}
