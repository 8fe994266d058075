package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"TradeWarden/internal/broker"
	"TradeWarden/internal/calculator"
	"TradeWarden/internal/collector"
	"TradeWarden/internal/config"
	"TradeWarden/internal/engine"
	"TradeWarden/internal/ledger"
	"TradeWarden/internal/notifier"
	"TradeWarden/internal/recorder"
	"TradeWarden/internal/risk"
	"TradeWarden/internal/scheduler"
	"TradeWarden/internal/status"
	"TradeWarden/internal/strategy"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] TradeWarden starting...")

	// Secrets from .env, if present
	if err := godotenv.Load(); err == nil {
		log.Println("[INFO] loaded .env")
	}

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init fetcher
	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case "alpaca":
		fetcher = collector.NewAlpacaFetcher(cfg.DataSource.BaseURL, cfg.Broker.KeyID, cfg.Broker.SecretKey, cfg.Proxy)
	case "mock":
		fetcher = &collector.MockFetcher{BasePrice: 100}
	default:
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	col := collector.NewCollector(fetcher, cfg.Portfolio.Symbols, cfg.Portfolio.Interval)

	// Init broker
	var brk broker.Broker
	if cfg.Broker.Provider == "alpaca" {
		ab := broker.NewAlpacaBroker(cfg.Broker.BaseURL, cfg.Broker.KeyID, cfg.Broker.SecretKey, cfg.Proxy)
		if acct, err := ab.GetAccount(context.Background()); err != nil {
			log.Printf("[WARN] fetch broker account: %v", err)
		} else {
			log.Printf("[INFO] broker account: equity $%.2f, cash $%.2f, buying power $%.2f",
				acct.Equity, acct.Cash, acct.BuyingPower)
			if acct.Equity > 0 && acct.Equity != cfg.Portfolio.StartingBalance {
				log.Printf("[WARN] configured starting balance $%.2f differs from broker equity $%.2f",
					cfg.Portfolio.StartingBalance, acct.Equity)
			}
		}
		brk = ab
	} else {
		brk = broker.NewPaperBroker(true)
	}
	log.Printf("[INFO] broker: %s", brk.Name())

	// Init Telegram notifier
	var tn *notifier.TelegramNotifier
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	} else {
		log.Println("[WARN] telegram not configured, alerts disabled")
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Init risk governor with persisted state
	gov, err := risk.NewPersistent(cfg.Risk.StateFile, cfg.Portfolio.StartingBalance,
		cfg.Risk.DailyLossLimit, cfg.Risk.MaxDrawdownLimit)
	if err != nil {
		log.Fatalf("[FATAL] init risk governor: %v", err)
	}

	// Init ledger, strategy and orchestrator
	book := ledger.NewBook(cfg.Portfolio.StartingBalance, cfg.Portfolio.Symbols)
	strat := strategy.NewEngine(strategy.Params{
		StopPct:       cfg.Strategy.StopPct,
		TargetPct:     cfg.Strategy.TargetPct,
		AllocFraction: cfg.Strategy.AllocFraction,
	}, book, brk, rec)
	eng := engine.New(calculator.Params{
		FastWindow: cfg.Strategy.FastWindow,
		SlowWindow: cfg.Strategy.SlowWindow,
		LongWindow: cfg.Strategy.LongWindow,
		RSIPeriod:  cfg.Strategy.RSIPeriod,
	}, strat, book, gov, rec, cfg.Portfolio.Interval)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, eng, col, tn, rec)
	if err := sched.Register(cfg.Schedule.CycleCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Start status API
	srv := status.NewServer(cfg.Status.ListenAddr, eng, rec)
	srv.Start()
	defer srv.Shutdown()

	// Start Telegram polling
	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	// Optional: run immediately on start
	if cfg.Schedule.RunOnStart || os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing trading cycle now")
		go sched.RunCycleNow()
	}

	log.Println("[INFO] TradeWarden is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] TradeWarden stopped")
}
