package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"github.com/bimakw/swap-quoter/internal/domain/entities"
)

// RouteLister enumerates candidate routes for a pair
type RouteLister interface {
	Routes(ctx context.Context, tokenIn, tokenOut entities.Token, pools []common.Hash) ([]*entities.Route, error)
}

// PoolReader loads pool snapshots
type PoolReader interface {
	GetPool(ctx context.Context, addr common.Hash) (*entities.Pool, error)
}

type RoutesHandler struct {
	routes RouteLister
	pools  PoolReader
	tokens *entities.TokenRegistry
}

func NewRoutesHandler(routes RouteLister, pools PoolReader, tokens *entities.TokenRegistry) *RoutesHandler {
	return &RoutesHandler{
		routes: routes,
		pools:  pools,
		tokens: tokens,
	}
}

type RoutesResponse struct {
	TokenIn  string          `json:"tokenIn"`
	TokenOut string          `json:"tokenOut"`
	Routes   []RouteResponse `json:"routes"`
}

type RouteResponse struct {
	Key      string     `json:"key"`
	Path     string     `json:"path"`
	Hops     []RouteHop `json:"hops"`
	MidPrice string     `json:"midPrice,omitempty"`
}

type PoolResponse struct {
	Address      string `json:"address"`
	Token0       string `json:"token0"`
	Token1       string `json:"token1"`
	Symbol0      string `json:"symbol0"`
	Symbol1      string `json:"symbol1"`
	Fee          uint32 `json:"fee"`
	Liquidity    string `json:"liquidity,omitempty"`
	SqrtPriceX96 string `json:"sqrtPriceX96,omitempty"`
	UpdatedAt    string `json:"updatedAt"`
}

// GetRoutes handles GET /api/v1/routes
func (h *RoutesHandler) GetRoutes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("tokenIn") == "" || q.Get("tokenOut") == "" {
		writeError(w, r, http.StatusBadRequest, "missing_params", "tokenIn and tokenOut are required")
		return
	}

	tokenIn, err := h.tokens.Lookup(q.Get("tokenIn"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_token_in", err.Error())
		return
	}
	tokenOut, err := h.tokens.Lookup(q.Get("tokenOut"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_token_out", err.Error())
		return
	}
	pools, err := parseAddressList(q.Get("pools"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_pools", err.Error())
		return
	}

	routes, err := h.routes.Routes(r.Context(), tokenIn, tokenOut, pools)
	if err != nil {
		writeError(w, r, http.StatusBadGateway, "routes_failed", err.Error())
		return
	}

	resp := RoutesResponse{
		TokenIn:  entities.ShortAddress(tokenIn.Address),
		TokenOut: entities.ShortAddress(tokenOut.Address),
		Routes:   make([]RouteResponse, 0, len(routes)),
	}
	for _, route := range routes {
		rr := RouteResponse{
			Key:  route.Key(),
			Path: route.String(),
			Hops: buildRouteHops(route),
		}
		if mid := route.MidPrice(); mid != nil {
			rr.MidPrice = mid.FloatString(18)
		}
		resp.Routes = append(resp.Routes, rr)
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetPool handles GET /api/v1/pools/{address}
func (h *RoutesHandler) GetPool(w http.ResponseWriter, r *http.Request) {
	addr, err := entities.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_pool", err.Error())
		return
	}

	pool, err := h.pools.GetPool(r.Context(), addr)
	if err != nil {
		writeError(w, r, http.StatusNotFound, "pool_not_found", err.Error())
		return
	}

	resp := PoolResponse{
		Address:   entities.ShortAddress(pool.Address),
		Token0:    entities.ShortAddress(pool.Token0.Address),
		Token1:    entities.ShortAddress(pool.Token1.Address),
		Symbol0:   pool.Token0.Symbol,
		Symbol1:   pool.Token1.Symbol,
		Fee:       pool.Fee,
		UpdatedAt: time.Unix(pool.UpdatedAt, 0).UTC().Format(time.RFC3339),
	}
	if pool.Liquidity != nil {
		resp.Liquidity = pool.Liquidity.String()
	}
	if pool.SqrtPriceX96 != nil {
		resp.SqrtPriceX96 = pool.SqrtPriceX96.String()
	}

	writeJSON(w, http.StatusOK, resp)
}
