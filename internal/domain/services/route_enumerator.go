package services

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog"

	"github.com/bimakw/swap-quoter/internal/domain/entities"
	"github.com/bimakw/swap-quoter/internal/logger"
	"github.com/bimakw/swap-quoter/internal/metrics"
)

const (
	DefaultMaxHops       = 2
	MaxRouteHops         = 4
	DefaultRouteMemoSize = 1024
)

// RouteEnumerator lists every simple route between two tokens over a pool set
type RouteEnumerator struct {
	maxHops int
	memo    *lru.Cache
	log     zerolog.Logger
}

func NewRouteEnumerator(maxHops, memoSize int) (*RouteEnumerator, error) {
	if maxHops < 1 || maxHops > MaxRouteHops {
		return nil, ErrInvalidMaxHops
	}
	if memoSize <= 0 {
		memoSize = DefaultRouteMemoSize
	}
	memo, err := lru.New(memoSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create route memo: %w", err)
	}
	return &RouteEnumerator{
		maxHops: maxHops,
		memo:    memo,
		log:     logger.For("route_enumerator"),
	}, nil
}

func (e *RouteEnumerator) MaxHops() int {
	return e.maxHops
}

// Routes enumerates with the configured hop limit
func (e *RouteEnumerator) Routes(input, output entities.Token, pools []entities.Pool) ([]*entities.Route, error) {
	return e.RoutesWithMaxHops(input, output, pools, e.maxHops)
}

// RoutesWithMaxHops returns routes of 1..maxHops pools, shorter routes
// first, otherwise in pool set order. The pool address sequences are
// memoized per pair, pool set and hop limit; routes are always built from
// the snapshots passed in
func (e *RouteEnumerator) RoutesWithMaxHops(input, output entities.Token, pools []entities.Pool, maxHops int) ([]*entities.Route, error) {
	if maxHops < 1 || maxHops > MaxRouteHops {
		return nil, ErrInvalidMaxHops
	}
	if input.Equals(output) || len(pools) == 0 {
		return nil, nil
	}

	key := routeMemoKey(input, output, pools, maxHops)
	if cached, ok := e.memo.Get(key); ok {
		metrics.RouteCacheHits.Inc()
		return bindRoutes(input, output, pools, cached.([][]common.Hash))
	}

	routes := EnumerateRoutes(input, output, pools, maxHops)
	paths := make([][]common.Hash, len(routes))
	for i, r := range routes {
		paths[i] = make([]common.Hash, len(r.Pools))
		for j, p := range r.Pools {
			paths[i][j] = p.Address
		}
	}
	e.memo.Add(key, paths)

	e.log.Debug().
		Str("input", input.String()).
		Str("output", output.String()).
		Int("pools", len(pools)).
		Int("max_hops", maxHops).
		Int("routes", len(routes)).
		Msg("routes enumerated")

	return routes, nil
}

// bindRoutes rebuilds memoized pool address sequences against the current
// snapshots. The first snapshot of a duplicated address wins, as in
// EnumerateRoutes
func bindRoutes(input, output entities.Token, pools []entities.Pool, paths [][]common.Hash) ([]*entities.Route, error) {
	byAddr := make(map[common.Hash]entities.Pool, len(pools))
	for _, p := range pools {
		if _, ok := byAddr[p.Address]; !ok {
			byAddr[p.Address] = p
		}
	}

	routes := make([]*entities.Route, 0, len(paths))
	for _, path := range paths {
		hops := make([]entities.Pool, len(path))
		for i, addr := range path {
			p, ok := byAddr[addr]
			if !ok {
				return nil, fmt.Errorf("memoized route references unknown pool %s", entities.ShortAddress(addr))
			}
			hops[i] = p
		}
		route, err := entities.NewRoute(hops, input, output)
		if err != nil {
			return nil, fmt.Errorf("failed to rebuild memoized route: %w", err)
		}
		routes = append(routes, route)
	}
	return routes, nil
}

// EnumerateRoutes is the unmemoized depth-first search. Pools are
// deduplicated by address and pools known to hold no liquidity are skipped
func EnumerateRoutes(input, output entities.Token, pools []entities.Pool, maxHops int) []*entities.Route {
	if maxHops < 1 || input.Equals(output) {
		return nil
	}

	usable := make([]entities.Pool, 0, len(pools))
	seen := make(map[common.Hash]struct{}, len(pools))
	for _, p := range pools {
		if _, dup := seen[p.Address]; dup {
			continue
		}
		seen[p.Address] = struct{}{}
		if !p.HasLiquidity() {
			continue
		}
		usable = append(usable, p)
	}

	var (
		routes  []*entities.Route
		current = make([]entities.Pool, 0, maxHops)
		used    = make([]bool, len(usable))
		visited = map[common.Hash]bool{input.Address: true}
	)

	var walk func(token entities.Token)
	walk = func(token entities.Token) {
		for i, pool := range usable {
			if used[i] || !pool.InvolvesToken(token) {
				continue
			}
			next, _ := pool.OtherToken(token)

			if next.Equals(output) {
				hops := append(append([]entities.Pool(nil), current...), pool)
				if route, err := entities.NewRoute(hops, input, output); err == nil {
					routes = append(routes, route)
				}
				continue
			}
			if len(current)+1 >= maxHops || visited[next.Address] {
				continue
			}

			used[i] = true
			visited[next.Address] = true
			current = append(current, pool)
			walk(next)
			current = current[:len(current)-1]
			visited[next.Address] = false
			used[i] = false
		}
	}
	walk(input)

	sort.SliceStable(routes, func(i, j int) bool {
		return routes[i].Hops() < routes[j].Hops()
	})
	return routes
}

// routeMemoKey hashes the pair, hop limit and the pool set. A pool's
// liquidity only enters the key as known-empty or not
func routeMemoKey(input, output entities.Token, pools []entities.Pool, maxHops int) common.Hash {
	buf := make([]byte, 0, 2*common.HashLength+8+len(pools)*(common.HashLength+5))
	buf = append(buf, input.Address[:]...)
	buf = append(buf, output.Address[:]...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(maxHops))
	for _, p := range pools {
		buf = append(buf, p.Address[:]...)
		buf = append(buf, p.Token0.Address[:]...)
		buf = append(buf, p.Token1.Address[:]...)
		buf = binary.BigEndian.AppendUint32(buf, p.Fee)
		if p.HasLiquidity() {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	}
	return crypto.Keccak256Hash(buf)
}
