package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bimakw/swap-quoter/internal/app"
	"github.com/bimakw/swap-quoter/internal/config"
	"github.com/bimakw/swap-quoter/internal/logger"
)

var (
	rpcURL   string
	logLevel string
	maxHops  int
)

var rootCmd = &cobra.Command{
	Use:   "quoter",
	Short: "Best-route swap quoting against a Starknet node",
	Long: `quoter enumerates routes over JediSwap v2 pools, simulates every candidate
swap against a Starknet node and reports the best trade.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rpcURL, "rpc", "", "Starknet JSON-RPC URL (overrides STARKNET_RPC_URL)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().IntVar(&maxHops, "max-hops", 0, "maximum hops per route (overrides MAX_HOPS)")

	rootCmd.AddCommand(quoteCmd, routesCmd, poolsCmd)
}

// loadConfig applies flag overrides on top of the environment
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if rpcURL != "" {
		cfg.RPCURL = rpcURL
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if maxHops != 0 {
		cfg.MaxHops = maxHops
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	// CLI output goes to stdout; logs stay on stderr in console form
	logger.Init(cfg.LogLevel, "console")
	return cfg, nil
}

func newApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(cmd.Context(), cfg)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
