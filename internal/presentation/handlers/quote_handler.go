package handlers

import (
	"context"
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bimakw/swap-quoter/internal/domain/entities"
	"github.com/bimakw/swap-quoter/internal/domain/services"
	"github.com/bimakw/swap-quoter/internal/infrastructure/starknet"
)

const maxSlippageBps = 5000

// Quoter is the quoting surface the handler needs
type Quoter interface {
	Quote(ctx context.Context, req services.QuoteRequest) (*services.TradeResult, error)
	SwapCalls(trade *entities.Trade, recipient common.Hash, slippageBps uint64) ([]starknet.Call, error)
}

// QuoteHandler handles quote requests
type QuoteHandler struct {
	quoter          Quoter
	tokens          *entities.TokenRegistry
	defaultSlippage uint64
}

// NewQuoteHandler creates a new quote handler
func NewQuoteHandler(quoter Quoter, tokens *entities.TokenRegistry, defaultSlippage uint64) *QuoteHandler {
	return &QuoteHandler{
		quoter:          quoter,
		tokens:          tokens,
		defaultSlippage: defaultSlippage,
	}
}

// QuoteResponse represents a quote response
type QuoteResponse struct {
	State          string          `json:"state"`
	TradeType      string          `json:"tradeType"`
	TokenIn        string          `json:"tokenIn"`
	TokenOut       string          `json:"tokenOut"`
	AmountIn       string          `json:"amountIn,omitempty"`
	AmountOut      string          `json:"amountOut,omitempty"`
	MinAmountOut   string          `json:"minAmountOut,omitempty"`
	MaxAmountIn    string          `json:"maxAmountIn,omitempty"`
	SlippageBps    uint64          `json:"slippageBps"`
	Path           string          `json:"path,omitempty"`
	Route          []RouteHop      `json:"route,omitempty"`
	ExecutionPrice string          `json:"executionPrice,omitempty"`
	PriceImpact    string          `json:"priceImpact,omitempty"`
	BlockNumber    uint64          `json:"blockNumber,omitempty"`
	FeeEstimate    string          `json:"feeEstimate,omitempty"`
	Calls          []starknet.Call `json:"calls,omitempty"`
	Candidates     []CandidateResp `json:"candidates"`
}

// RouteHop represents a hop in the route
type RouteHop struct {
	Pool     string `json:"pool"`
	TokenIn  string `json:"tokenIn"`
	TokenOut string `json:"tokenOut"`
	Fee      uint32 `json:"fee"`
}

// CandidateResp is one simulated route
type CandidateResp struct {
	Route  string `json:"route"`
	Path   string `json:"path"`
	Amount string `json:"amount,omitempty"`
	Error  string `json:"error,omitempty"`
}

// GetQuote handles GET /api/v1/quote
func (h *QuoteHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tokenInRef := q.Get("tokenIn")
	tokenOutRef := q.Get("tokenOut")
	amountStr := q.Get("amount")
	if amountStr == "" {
		amountStr = q.Get("amountIn")
	}

	if tokenInRef == "" || tokenOutRef == "" || amountStr == "" {
		writeError(w, r, http.StatusBadRequest, "missing_params", "tokenIn, tokenOut, and amount are required")
		return
	}

	tokenIn, err := h.tokens.Lookup(tokenInRef)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_token_in", err.Error())
		return
	}
	tokenOut, err := h.tokens.Lookup(tokenOutRef)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_token_out", err.Error())
		return
	}

	amount, ok := new(big.Int).SetString(amountStr, 10)
	if !ok || amount.Sign() <= 0 {
		writeError(w, r, http.StatusBadRequest, "invalid_amount", "amount must be a positive integer")
		return
	}

	tradeType, err := entities.ParseTradeType(q.Get("tradeType"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_trade_type", err.Error())
		return
	}

	var account common.Hash
	if s := q.Get("account"); s != "" {
		if account, err = entities.ParseAddress(s); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid_account", err.Error())
			return
		}
	}

	pools, err := parseAddressList(q.Get("pools"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_pools", err.Error())
		return
	}

	slippageBps := h.defaultSlippage
	if s := q.Get("slippage"); s != "" {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil || v > maxSlippageBps {
			writeError(w, r, http.StatusBadRequest, "invalid_slippage", "slippage must be 0-5000 basis points")
			return
		}
		slippageBps = v
	}

	result, err := h.quoter.Quote(r.Context(), services.QuoteRequest{
		TradeType:     tradeType,
		TokenIn:       tokenIn,
		TokenOut:      tokenOut,
		Amount:        amount,
		Account:       account,
		PoolAddresses: pools,
	})
	if err != nil {
		writeError(w, r, http.StatusBadGateway, "quote_failed", err.Error())
		return
	}

	resp := QuoteResponse{
		State:       result.State.String(),
		TradeType:   tradeType.String(),
		TokenIn:     entities.ShortAddress(tokenIn.Address),
		TokenOut:    entities.ShortAddress(tokenOut.Address),
		SlippageBps: slippageBps,
		BlockNumber: result.BlockNumber,
		Candidates:  buildCandidates(result.Candidates),
	}

	switch result.State {
	case entities.TradeStateInvalid:
		writeError(w, r, http.StatusBadRequest, "invalid_quote", "a quoting account is required")
		return
	case entities.TradeStateNoRouteFound:
		writeJSON(w, http.StatusNotFound, resp)
		return
	}

	trade := result.Trade
	fillTrade(&resp, trade, slippageBps)

	// Calls are only meaningful for a known recipient
	if account != (common.Hash{}) {
		calls, err := h.quoter.SwapCalls(trade, account, slippageBps)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "encode_failed", err.Error())
			return
		}
		resp.Calls = calls
	}

	writeJSON(w, http.StatusOK, resp)
}

func fillTrade(resp *QuoteResponse, trade *entities.Trade, slippageBps uint64) {
	resp.AmountIn = trade.InputAmount.Raw.String()
	resp.AmountOut = trade.OutputAmount.Raw.String()
	if trade.TradeType == entities.ExactInput {
		resp.MinAmountOut = trade.MinimumAmountOut(slippageBps).String()
	} else {
		resp.MaxAmountIn = trade.MaximumAmountIn(slippageBps).String()
	}
	resp.Path = trade.Route.String()
	resp.Route = buildRouteHops(trade.Route)
	resp.ExecutionPrice = trade.ExecutionPrice().FloatString(18)
	if impact := trade.PriceImpact(); impact != nil {
		pct := new(big.Rat).Mul(impact, big.NewRat(100, 1))
		resp.PriceImpact = pct.FloatString(4)
	}
	resp.BlockNumber = trade.BlockNumber
	if trade.FeeEstimate != nil {
		resp.FeeEstimate = trade.FeeEstimate.String()
	}
}

func buildRouteHops(route *entities.Route) []RouteHop {
	tokens := route.TokenPath()
	hops := make([]RouteHop, route.Hops())
	for i, pool := range route.Pools {
		hops[i] = RouteHop{
			Pool:     entities.ShortAddress(pool.Address),
			TokenIn:  entities.ShortAddress(tokens[i].Address),
			TokenOut: entities.ShortAddress(tokens[i+1].Address),
			Fee:      pool.Fee,
		}
	}
	return hops
}

func buildCandidates(candidates []services.Candidate) []CandidateResp {
	out := make([]CandidateResp, len(candidates))
	for i, c := range candidates {
		out[i] = CandidateResp{
			Route: c.Route.Key(),
			Path:  c.Route.String(),
		}
		if c.Amount != nil {
			out[i].Amount = c.Amount.String()
		}
		if c.Err != nil {
			out[i].Error = c.Err.Error()
		}
	}
	return out
}
