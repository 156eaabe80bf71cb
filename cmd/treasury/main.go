package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/genai"

	"github.com/btc-treasury/internal/audit"
	"github.com/btc-treasury/internal/config"
	"github.com/btc-treasury/internal/db"
	"github.com/btc-treasury/internal/dedupe"
	"github.com/btc-treasury/internal/estimate"
	"github.com/btc-treasury/internal/fetch"
	"github.com/btc-treasury/internal/scrape"
	"github.com/btc-treasury/internal/treasury"
	"github.com/btc-treasury/internal/web"
)

var (
	cfg    *config.Config
	dbConn *db.Connection
	logger *logrus.Logger
)

func main() {
	logger = logrus.New()
	logger.SetLevel(logrus.InfoLevel)

	cfg = config.Load()

	var err error
	dbConn, err = db.NewConnection(cfg)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbConn.DB.Close()

	rootCmd := &cobra.Command{
		Use:   "treasury",
		Short: "Bitcoin treasury data pipeline",
		Long:  `Batch tooling for the bitcoin treasuries dataset: scraping, fetching, deduplication and serving`,
	}

	rootCmd.AddCommand(createDedupeCmd())
	rootCmd.AddCommand(createScrapeCmd())
	rootCmd.AddCommand(createIngestCmd())
	rootCmd.AddCommand(createDividendsCmd())
	rootCmd.AddCommand(createTickersCmd())
	rootCmd.AddCommand(createEstimateCmd())
	rootCmd.AddCommand(createQuoteCmd())
	rootCmd.AddCommand(createServeCmd())
	rootCmd.AddCommand(createPingCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// newPipeline wires a dedup pipeline. The Gemini stage and the audit
// trail degrade to disabled when their backing services are unavailable.
func newPipeline(ctx context.Context) *dedupe.Pipeline {
	var adj dedupe.Adjudicator
	if client, err := genai.NewClient(ctx, nil); err == nil {
		adj = dedupe.NewGeminiAdjudicator(client, cfg.GeminiModel)
	} else {
		logger.Warnf("Gemini client unavailable, LLM stage disabled: %v", err)
	}

	tracker := audit.NewTracker(dbConn.DB)
	if err := tracker.EnsureSchema(); err != nil {
		logger.Warnf("Audit schema unavailable, audit trail disabled: %v", err)
		tracker = nil
	}

	store := treasury.NewStore(dbConn.DB, cfg.CountryTable)
	return dedupe.NewPipeline(dbConn.DB, store, adj, tracker, cfg.TreasuryTable, logger)
}

func createDedupeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dedupe",
		Short: "Run one dedup batch over the treasuries table",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			stats, err := newPipeline(ctx).Run(ctx)
			if err != nil {
				logger.Fatalf("Dedup run failed: %v", err)
			}
			fmt.Printf("Loaded:    %d\n", stats.Loaded)
			fmt.Printf("Removed:   %d\n", stats.Removed)
			fmt.Printf("Deleted:   %d\n", stats.Deleted)
			fmt.Printf("Survivors: %d\n", stats.Survivors)
			fmt.Printf("Relabeled: %d\n", stats.Relabeled)
			fmt.Printf("Duration:  %v\n", stats.Duration)
		},
	}
}

func createScrapeCmd() *cobra.Command {
	scrapeCmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape external listing sites",
	}
	scrapeCmd.AddCommand(createScrapeTreasuriesCmd())
	scrapeCmd.AddCommand(createScrapeYieldMaxCmd())
	return scrapeCmd
}

func createScrapeTreasuriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "treasuries",
		Short: "Scrape the bitcointreasuries.net holdings table",
		Run: func(cmd *cobra.Command, args []string) {
			scraper := scrape.NewTreasuryScraper(dbConn.DB, cfg.TreasuryTable, logger)
			written, err := scraper.Run()
			if err != nil {
				logger.Fatalf("Treasuries scrape failed: %v", err)
			}
			fmt.Printf("Upserted %d companies\n", written)
		},
	}
}

func createScrapeYieldMaxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "yieldmax",
		Short: "Scrape the YieldMax fund listing",
		Run: func(cmd *cobra.Command, args []string) {
			scraper := scrape.NewYieldMaxScraper(dbConn.DB, logger)
			written, err := scraper.Run()
			if err != nil {
				logger.Fatalf("YieldMax scrape failed: %v", err)
			}
			fmt.Printf("Upserted %d funds\n", written)
		},
	}
}

func createIngestCmd() *cobra.Command {
	var country string
	cmd := &cobra.Command{
		Use:   "ingest-etfs",
		Short: "Ingest the FMP ETF universe into usa_etfs",
		Run: func(cmd *cobra.Command, args []string) {
			client := fetch.NewFMPClient(cfg.FMPAPIKey, cfg.FetchTimeout, logger)
			ing := fetch.NewETFIngestor(dbConn.DB, client, logger)
			if err := ing.EnsureSchema(); err != nil {
				logger.Fatalf("Failed to prepare schema: %v", err)
			}
			ingested, err := ing.Run(cmd.Context(), country)
			if err != nil {
				logger.Fatalf("ETF ingest failed: %v", err)
			}
			fmt.Printf("Ingested %d ETFs\n", ingested)
		},
	}
	cmd.Flags().StringVar(&country, "country", "US", "screener country filter")
	return cmd
}

func createDividendsCmd() *cobra.Command {
	var table, csvPath string
	cmd := &cobra.Command{
		Use:   "dividends",
		Short: "Backfill missing dividend rates",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()

			var completer fetch.Completer
			if client, err := genai.NewClient(ctx, nil); err == nil {
				completer = fetch.NewGeminiCompleter(client, cfg.GeminiModel)
			} else {
				logger.Warnf("Gemini client unavailable, LLM fallback disabled: %v", err)
			}

			yahoo := fetch.NewYahooClient(cfg.FetchTimeout, logger)
			fmp := fetch.NewFMPClient(cfg.FMPAPIKey, cfg.FetchTimeout, logger)
			resolver := fetch.NewDividendResolver(yahoo, fmp, completer, logger)

			updated, err := fetch.BackfillDividends(ctx, dbConn.DB, table, resolver, logger)
			if err != nil {
				logger.Fatalf("Dividend backfill failed: %v", err)
			}
			fmt.Printf("Updated %d tickers\n", updated)

			if csvPath != "" {
				if err := fetch.ExportDividendCSV(dbConn.DB, table, csvPath); err != nil {
					logger.Errorf("CSV export failed: %v", err)
				}
			}
		},
	}
	cmd.Flags().StringVar(&table, "table", "high_yield_etfs", "table to backfill")
	cmd.Flags().StringVar(&csvPath, "csv", "", "optional CSV backup path")
	return cmd
}

func createTickersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tickers",
		Short: "Resolve missing tickers via Yahoo Finance search",
		Run: func(cmd *cobra.Command, args []string) {
			yahoo := fetch.NewYahooClient(cfg.FetchTimeout, logger)
			updated, err := fetch.BackfillTickers(cmd.Context(), dbConn.DB, cfg.TreasuryTable, yahoo, logger)
			if err != nil {
				logger.Fatalf("Ticker backfill failed: %v", err)
			}
			fmt.Printf("Resolved %d tickers\n", updated)
		},
	}
}

func createEstimateCmd() *cobra.Command {
	var ticker, assetType, outPath string
	var price float64
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Generate a long-range price-estimate SQL script",
		Run: func(cmd *cobra.Command, args []string) {
			if ticker == "" || price <= 0 {
				logger.Fatal("Both --ticker and a positive --price are required")
			}
			gen := estimate.NewGenerator()
			id, err := gen.WriteScript(ticker, price, assetType, outPath)
			if err != nil {
				logger.Fatalf("Estimate generation failed: %v", err)
			}
			fmt.Printf("SQL script generated: %s (artifact %s)\n", outPath, id)
		},
	}
	cmd.Flags().StringVar(&ticker, "ticker", "", "ticker symbol (e.g. BTC, MSTR)")
	cmd.Flags().Float64Var(&price, "price", 0, "starting price for 2025 in USD")
	cmd.Flags().StringVar(&assetType, "type", "stock", "asset type: crypto, stock or etf")
	cmd.Flags().StringVar(&outPath, "out", "valueEstimate.sql", "output file")
	return cmd
}

func createQuoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quote [symbol...]",
		Short: "Fetch latest quotes from Twelve Data",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			client := fetch.NewTwelveDataClient(cfg.TwelveDataAPIKey, cfg.FetchTimeout, logger)
			for _, symbol := range args {
				q := client.GetQuote(cmd.Context(), symbol)
				if q.Error != "" {
					fmt.Printf("%s: error: %s\n", symbol, q.Error)
					continue
				}
				fmt.Printf("%s: %s\n", q.Symbol, q.Price)
			}
		},
	}
}

func createServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the treasuries API",
		Run: func(cmd *cobra.Command, args []string) {
			pipeline := newPipeline(cmd.Context())
			scraper := scrape.NewTreasuryScraper(dbConn.DB, cfg.TreasuryTable, logger)
			server := web.NewServer(cfg, dbConn.DB, pipeline, scraper, logger)
			if err := server.Start(); err != nil {
				logger.Fatalf("Server failed: %v", err)
			}
		},
	}
}

func createPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Test database connectivity",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("Database connection successful!")

			var count int
			err := dbConn.DB.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %q", cfg.TreasuryTable)).Scan(&count)
			if err != nil {
				logger.Warnf("Error counting %s records: %v", cfg.TreasuryTable, err)
			} else {
				fmt.Printf("Treasury rows loaded: %d\n", count)
			}
		},
	}
}
