// sevenms - operator tools for the 7MS trading pipeline
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"sevenms-trading-bot/config"
	"sevenms-trading-bot/internal/approval"
	"sevenms-trading-bot/internal/auth"
	"sevenms-trading-bot/internal/broker"
	"sevenms-trading-bot/internal/events"
	"sevenms-trading-bot/internal/market"
	"sevenms-trading-bot/internal/pipeline"
)

var (
	version  = "1.0.0"
	mockMode bool
	asJSON   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sevenms",
		Short: "7MS multi-timeframe analysis pipeline tools",
		Long: `sevenms runs the 7MS trading pipeline from the command line:
one-shot analysis runs, open position listing, and setup helpers
for the long-running server.`,
	}

	rootCmd.PersistentFlags().BoolVar(&mockMode, "mock", false, "Use simulated market data and a paper execution client")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "Print results as JSON")

	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(positionsCmd())
	rootCmd.AddCommand(hashPasswordCmd())
	rootCmd.AddCommand(sampleConfigCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("sevenms version %s\n", version)
		},
	}
}

func analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze [symbol]",
		Short: "Run one analysis pass and print the proposed trade, if any",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, engine, err := buildEngine()
			if err != nil {
				return err
			}

			symbol := cfg.PipelineConfig.Symbol
			if len(args) > 0 {
				symbol = args[0]
			}

			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			result, err := engine.Analyze(ctx, symbol)
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(result)
			}

			fmt.Printf("Run %s  symbol=%s  status=%s\n", result.RunID, result.Symbol, result.Status)
			if result.Bias != "" {
				fmt.Printf("  bias: %s  price: %.5f\n", result.Bias, result.CurrentPrice)
			}
			if result.Sweep != nil {
				fmt.Printf("  sweep: %s %s level %.5f confirmed %s\n",
					result.Sweep.Direction, result.Sweep.Condition, result.Sweep.SweptLevel,
					result.Sweep.ConfirmationTime.Format(time.RFC3339))
			}
			if result.Shift != nil {
				fmt.Printf("  shift: level %.5f at %s\n", result.Shift.Level, result.Shift.Time.Format(time.RFC3339))
			}
			if result.Request != nil {
				p := result.Request.Proposed
				fmt.Printf("  proposal %s: %s entry %.5f sl %.5f tp %.5f (rr %.2f)\n",
					result.Request.ID, p.Side, p.EntryPrice, p.StopLoss, p.TakeProfit, p.RiskRewardRatio)
				fmt.Println("  awaiting operator decision via the web interface")
			}
			return nil
		},
	}
}

func positionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "positions [symbol]",
		Short: "List open positions at the broker",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			godotenv.Load()
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			var client broker.ExecutionClient
			if mockMode || cfg.BridgeConfig.MockMode {
				client = broker.NewMockClient()
			} else {
				client = broker.NewBridgeClient(cfg.BridgeConfig.BaseURL, cfg.BridgeConfig.AuthToken)
			}

			symbol := ""
			if len(args) > 0 {
				symbol = args[0]
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			positions, err := client.OpenPositions(ctx, symbol)
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(positions)
			}

			if len(positions) == 0 {
				fmt.Println("No open positions.")
				return nil
			}

			fmt.Printf("%-10s %-10s %-5s %8s %12s %12s %12s %10s\n",
				"TICKET", "SYMBOL", "SIDE", "VOLUME", "OPEN", "SL", "TP", "PROFIT")
			for _, p := range positions {
				fmt.Printf("%-10d %-10s %-5s %8.2f %12.5f %12.5f %12.5f %10.2f\n",
					p.Ticket, p.Symbol, p.Side, p.Volume, p.PriceOpen, p.StopLoss, p.TakeProfit, p.Profit)
			}
			return nil
		},
	}
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Generate a bcrypt hash for the operator password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pm := auth.NewPasswordManager(auth.DefaultBcryptCost)
			hash, err := pm.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Println(hash)
			fmt.Fprintln(os.Stderr, "Set this as AUTH_OPERATOR_PASSWORD_HASH.")
			return nil
		},
	}
}

func sampleConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sample-config [file]",
		Short: "Write a sample config.json",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := "config.json"
			if len(args) > 0 {
				filename = args[0]
			}
			if _, err := os.Stat(filename); err == nil {
				return fmt.Errorf("%s already exists, refusing to overwrite", filename)
			}
			if err := config.GenerateSampleConfig(filename); err != nil {
				return err
			}
			fmt.Printf("Sample config written to %s\n", filename)
			return nil
		},
	}
}

// buildEngine assembles a standalone pipeline engine for one-shot runs.
// Approval requests stay in memory, so a proposal printed here must be
// resolved through a running server before it expires with the process.
func buildEngine() (*config.Config, *pipeline.Engine, error) {
	godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	var dataSource market.DataSource
	var execClient broker.ExecutionClient
	if mockMode || cfg.BridgeConfig.MockMode {
		dataSource = market.NewMockSource()
		execClient = broker.NewMockClient()
	} else {
		dataSource = market.NewBridgeClient(cfg.BridgeConfig.BaseURL, cfg.BridgeConfig.AuthToken)
		execClient = broker.NewBridgeClient(cfg.BridgeConfig.BaseURL, cfg.BridgeConfig.AuthToken)
	}

	auditLogger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	gate := approval.NewGate(approval.NewMemoryStore(), auditLogger)
	engine := pipeline.NewEngine(cfg.PipelineConfig, dataSource, execClient, gate, events.NewBus(), nil)
	return cfg, engine, nil
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
