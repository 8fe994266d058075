package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"TradeWarden/internal/broker"
	"TradeWarden/internal/calculator"
	"TradeWarden/internal/collector"
	"TradeWarden/internal/config"
	"TradeWarden/internal/engine"
	"TradeWarden/internal/ledger"
	"TradeWarden/internal/recorder"
	"TradeWarden/internal/risk"
	"TradeWarden/internal/strategy"
)

const dateLayout = "2006-01-02"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfgPath := flag.String("config", "configs/config.yaml", "path to config file")
	startStr := flag.String("start", "", "replay start date (2006-01-02)")
	endStr := flag.String("end", "", "replay end date (2006-01-02), defaults to today")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	end := time.Now().UTC()
	if *endStr != "" {
		if end, err = time.Parse(dateLayout, *endStr); err != nil {
			log.Fatalf("[FATAL] parse -end: %v", err)
		}
	}
	start := end.AddDate(0, -6, 0)
	if *startStr != "" {
		if start, err = time.Parse(dateLayout, *startStr); err != nil {
			log.Fatalf("[FATAL] parse -start: %v", err)
		}
	}
	if !start.Before(end) {
		log.Fatalf("[FATAL] -start must be before -end")
	}

	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case "alpaca":
		fetcher = collector.NewAlpacaFetcher(cfg.DataSource.BaseURL, cfg.Broker.KeyID, cfg.Broker.SecretKey, cfg.Proxy)
	case "mock":
		fetcher = &collector.MockFetcher{BasePrice: 100}
	default:
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	log.Printf("[INFO] data source: %s, window %s ~ %s", fetcher.Name(),
		start.Format(dateLayout), end.Format(dateLayout))

	col := collector.NewCollector(fetcher, cfg.Portfolio.Symbols, cfg.Portfolio.Interval)
	barsets, err := col.CollectAll(start, end)
	if err != nil {
		log.Fatalf("[FATAL] collect bars: %v", err)
	}

	// Replays always start from a fresh in-memory risk state.
	gov := risk.New(cfg.Portfolio.StartingBalance, cfg.Risk.DailyLossLimit, cfg.Risk.MaxDrawdownLimit)
	book := ledger.NewBook(cfg.Portfolio.StartingBalance, cfg.Portfolio.Symbols)
	rec := recorder.NewNoopRecorder()
	strat := strategy.NewEngine(strategy.Params{
		StopPct:       cfg.Strategy.StopPct,
		TargetPct:     cfg.Strategy.TargetPct,
		AllocFraction: cfg.Strategy.AllocFraction,
	}, book, broker.NewPaperBroker(false), rec)
	eng := engine.New(calculator.Params{
		FastWindow: cfg.Strategy.FastWindow,
		SlowWindow: cfg.Strategy.SlowWindow,
		LongWindow: cfg.Strategy.LongWindow,
		RSIPeriod:  cfg.Strategy.RSIPeriod,
	}, strat, book, gov, rec, cfg.Portfolio.Interval)

	report, err := eng.Replay(context.Background(), barsets)
	if err != nil {
		log.Fatalf("[FATAL] replay: %v", err)
	}

	printReport(cfg, report)
	if eng.CurrentState() == engine.StateHalted {
		os.Exit(1)
	}
}

func printReport(cfg *config.Config, r *engine.ReplayReport) {
	fmt.Println("==================================================")
	fmt.Printf("  symbols:       %v\n", cfg.Portfolio.Symbols)
	fmt.Printf("  interval:      %s\n", cfg.Portfolio.Interval)
	fmt.Printf("  period:        %s ~ %s (%d steps)\n",
		r.StartTime.Format(dateLayout), r.EndTime.Format(dateLayout), r.Steps)
	fmt.Println("--------------------------------------------------")
	fmt.Printf("  initial:       $%.2f\n", cfg.Portfolio.StartingBalance)
	fmt.Printf("  final equity:  $%.2f\n", r.FinalEquity)
	fmt.Printf("  return:        %+.2f%%\n", r.ReturnPct)
	fmt.Printf("  max drawdown:  %.2f%%\n", r.MaxDrawdownPct)
	if r.MaxDrawdownPct < cfg.Risk.MaxDrawdownLimit*100 {
		fmt.Printf("  risk limit:    ✅ stayed inside %.1f%%\n", cfg.Risk.MaxDrawdownLimit*100)
	} else {
		fmt.Printf("  risk limit:    ❌ breached %.1f%%\n", cfg.Risk.MaxDrawdownLimit*100)
	}
	fmt.Println("==================================================")
}
