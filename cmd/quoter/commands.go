package main

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/bimakw/swap-quoter/internal/domain/entities"
	"github.com/bimakw/swap-quoter/internal/domain/services"
	"github.com/bimakw/swap-quoter/internal/infrastructure/starknet"
)

var (
	tokenInFlag  string
	tokenOutFlag string
	amountFlag   string
	exactOutFlag bool
	accountFlag  string
	poolsFlag    []string
	slippageFlag uint64
)

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Find the best trade for a token pair",
	Example: `  quoter quote --in ETH --out USDC --amount 1000000000000000000 --account 0x...
  quoter quote --in ETH --out USDC --amount 2500000000 --exact-out`,
	RunE: runQuote,
}

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List candidate routes for a token pair without simulating",
	RunE:  runRoutes,
}

var poolsCmd = &cobra.Command{
	Use:   "pools [address...]",
	Short: "Show pool snapshots by address, or discover pools for --in/--out",
	RunE:  runPools,
}

func init() {
	for _, cmd := range []*cobra.Command{quoteCmd, routesCmd, poolsCmd} {
		cmd.Flags().StringVar(&tokenInFlag, "in", "", "input token symbol or address")
		cmd.Flags().StringVar(&tokenOutFlag, "out", "", "output token symbol or address")
	}
	for _, cmd := range []*cobra.Command{quoteCmd, routesCmd} {
		cmd.Flags().StringSliceVar(&poolsFlag, "pools", nil, "pool addresses to route over (default: static + discovered)")
		_ = cmd.MarkFlagRequired("in")
		_ = cmd.MarkFlagRequired("out")
	}

	quoteCmd.Flags().StringVar(&amountFlag, "amount", "", "raw amount; input for exact-in, output for exact-out")
	quoteCmd.Flags().BoolVar(&exactOutFlag, "exact-out", false, "fix the output amount instead of the input")
	quoteCmd.Flags().StringVar(&accountFlag, "account", "", "account simulating and receiving the swap (default QUOTER_ACCOUNT)")
	quoteCmd.Flags().Uint64Var(&slippageFlag, "slippage", 0, "slippage tolerance in bps (default DEFAULT_SLIPPAGE_BPS)")
	_ = quoteCmd.MarkFlagRequired("amount")
}

type quoteOutput struct {
	State       string            `json:"state"`
	TradeType   string            `json:"tradeType"`
	BlockNumber uint64            `json:"blockNumber,omitempty"`
	Path        string            `json:"path,omitempty"`
	AmountIn    string            `json:"amountIn,omitempty"`
	AmountOut   string            `json:"amountOut,omitempty"`
	Bound       string            `json:"bound,omitempty"`
	FeeEstimate string            `json:"feeEstimate,omitempty"`
	Calls       []starknet.Call   `json:"calls,omitempty"`
	Candidates  []candidateOutput `json:"candidates"`
}

type candidateOutput struct {
	Route  string `json:"route"`
	Amount string `json:"amount,omitempty"`
	Error  string `json:"error,omitempty"`
}

func runQuote(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	tokenIn, tokenOut, err := lookupPair(a.Tokens)
	if err != nil {
		return err
	}
	amount, ok := new(big.Int).SetString(amountFlag, 10)
	if !ok || amount.Sign() <= 0 {
		return fmt.Errorf("invalid amount %q", amountFlag)
	}
	pools, err := parsePools()
	if err != nil {
		return err
	}

	account := a.Config.QuoterAccount
	if accountFlag != "" {
		if account, err = entities.ParseAddress(accountFlag); err != nil {
			return fmt.Errorf("invalid account: %w", err)
		}
	}
	slippage := a.Config.DefaultSlippageBps
	if cmd.Flags().Changed("slippage") {
		slippage = slippageFlag
	}

	tradeType := entities.ExactInput
	if exactOutFlag {
		tradeType = entities.ExactOutput
	}

	result, err := a.Quotes.Quote(cmd.Context(), services.QuoteRequest{
		TradeType:     tradeType,
		TokenIn:       tokenIn,
		TokenOut:      tokenOut,
		Amount:        amount,
		Account:       account,
		PoolAddresses: pools,
	})
	if err != nil {
		return err
	}

	out := quoteOutput{
		State:       result.State.String(),
		TradeType:   tradeType.String(),
		BlockNumber: result.BlockNumber,
		Candidates:  make([]candidateOutput, len(result.Candidates)),
	}
	for i, c := range result.Candidates {
		out.Candidates[i] = candidateOutput{Route: c.Route.String()}
		if c.Amount != nil {
			out.Candidates[i].Amount = c.Amount.String()
		}
		if c.Err != nil {
			out.Candidates[i].Error = c.Err.Error()
		}
	}

	if trade := result.Trade; trade != nil {
		out.Path = trade.Route.String()
		out.AmountIn = trade.InputAmount.Raw.String()
		out.AmountOut = trade.OutputAmount.Raw.String()
		if tradeType == entities.ExactInput {
			out.Bound = trade.MinimumAmountOut(slippage).String()
		} else {
			out.Bound = trade.MaximumAmountIn(slippage).String()
		}
		if trade.FeeEstimate != nil {
			out.FeeEstimate = trade.FeeEstimate.String()
		}
		if out.Calls, err = a.Quotes.SwapCalls(trade, account, slippage); err != nil {
			return err
		}
	}

	if err := printJSON(cmd.OutOrStdout(), out); err != nil {
		return err
	}
	// Exit non-zero when no trade was found
	return result.Err()
}

func runRoutes(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	tokenIn, tokenOut, err := lookupPair(a.Tokens)
	if err != nil {
		return err
	}
	pools, err := parsePools()
	if err != nil {
		return err
	}

	routes, err := a.Quotes.Routes(cmd.Context(), tokenIn, tokenOut, pools)
	if err != nil {
		return err
	}

	out := make([]map[string]string, len(routes))
	for i, r := range routes {
		out[i] = map[string]string{"key": r.Key(), "path": r.String()}
	}
	return printJSON(cmd.OutOrStdout(), out)
}

func runPools(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if len(args) > 0 {
		addrs := make([]common.Hash, len(args))
		for i, arg := range args {
			if addrs[i], err = entities.ParseAddress(arg); err != nil {
				return err
			}
		}
		pools, err := a.Pools.GetPools(cmd.Context(), addrs)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), pools)
	}

	if tokenInFlag == "" || tokenOutFlag == "" {
		return fmt.Errorf("pass pool addresses or both --in and --out")
	}
	tokenIn, tokenOut, err := lookupPair(a.Tokens)
	if err != nil {
		return err
	}
	pools, err := a.Pools.DiscoverPools(cmd.Context(), tokenIn, tokenOut)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), pools)
}

func lookupPair(tokens *entities.TokenRegistry) (entities.Token, entities.Token, error) {
	tokenIn, err := tokens.Lookup(tokenInFlag)
	if err != nil {
		return entities.Token{}, entities.Token{}, fmt.Errorf("--in: %w", err)
	}
	tokenOut, err := tokens.Lookup(tokenOutFlag)
	if err != nil {
		return entities.Token{}, entities.Token{}, fmt.Errorf("--out: %w", err)
	}
	return tokenIn, tokenOut, nil
}

func parsePools() ([]common.Hash, error) {
	var out []common.Hash
	for _, p := range poolsFlag {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		addr, err := entities.ParseAddress(p)
		if err != nil {
			return nil, fmt.Errorf("--pools: %w", err)
		}
		out = append(out, addr)
	}
	return out, nil
}
