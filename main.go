package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fxtrader/internal/api"
	"fxtrader/internal/events"
	"fxtrader/internal/marketdata"
	"fxtrader/internal/monitor"
	"fxtrader/internal/news"
	"fxtrader/internal/notify"
	"fxtrader/internal/order"
	"fxtrader/internal/predictor"
	"fxtrader/internal/risk"
	"fxtrader/internal/state"
	"fxtrader/internal/trader"
	"fxtrader/pkg/broker"
	"fxtrader/pkg/config"
	"fxtrader/pkg/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	log.Printf("starting fxtrader on port %s", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := events.NewBus()

	database, err := db.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	defer database.Close()
	if err := db.ApplyMigrations(database); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}
	journal := database.Journal()

	// Market data: cache plus provider chain, strict-throttled vendor first.
	cache, err := marketdata.NewCache(cfg.CacheDir, cfg.CacheTTL)
	if err != nil {
		log.Fatalf("init bar cache: %v", err)
	}
	var providers []marketdata.Provider
	if cfg.TwelveDataAPIKey != "" {
		providers = append(providers, marketdata.NewTwelveData(cfg.TwelveDataAPIKey))
	}
	if cfg.AlphaVantageAPIKey != "" {
		providers = append(providers, marketdata.NewAlphaVantage(cfg.AlphaVantageAPIKey))
	}
	providers = append(providers, marketdata.NewBinance())
	chain := marketdata.NewChain(cache, cfg.BarWindow, providers...)

	if cfg.UseStreamWarmer {
		warmer := marketdata.NewStreamWarmer(cache, cfg.BarWindow, cfg.StreamSymbols)
		warmer.Start(ctx)
	}

	// Broker selection happens at construction time, never at runtime.
	var client broker.Client
	if cfg.UseMockBroker {
		log.Printf("using mock broker, no real orders will be placed")
		all := append(append([]string{}, cfg.ForexMajors...), cfg.CryptoAssets...)
		client = broker.NewMock(all...)
	} else {
		client = broker.NewRESTClient(cfg.BrokerBaseURL, cfg.BrokerAPIKey)
	}

	riskMgr := risk.NewManager(cfg.StateDir, risk.Config{
		LotMin:        cfg.LotMin,
		LotMax:        cfg.LotMax,
		LotBase:       cfg.LotBase,
		AdjustPercent: cfg.LotAdjustPercent,
	})
	ids := state.NewSignalIDs(cfg.StateDir)
	stats := state.NewDailyStats()

	predCfg, err := predictor.LoadConfig(cfg.PredictorConfigPath)
	if err != nil {
		log.Fatalf("load predictor config: %v", err)
	}
	model, err := predictor.Build(predCfg)
	if err != nil {
		log.Fatalf("build predictor: %v", err)
	}
	log.Printf("predictor: %s", model.Name())

	calc := &order.Calculator{
		StopLossPips:   cfg.StopLossPips,
		RiskFraction:   cfg.RiskFraction,
		RewardMultiple: cfg.RewardMultiple,
		IsStrict:       cfg.IsStrict,
	}
	executor := order.NewExecutor(client, calc, chain, bus)

	// Notifications: telegram when configured, stdout otherwise.
	var sink notify.Sink = notify.NewStdout()
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != 0 {
		tg, err := notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID, cfg.TelegramChannelID)
		if err != nil {
			log.Printf("telegram unavailable, falling back to stdout: %v", err)
		} else {
			sink = notify.Multi{tg, notify.NewStdout()}
		}
	}
	pump := &notify.Pump{Bus: bus, Sink: sink}
	pump.Start(ctx)

	mon := monitor.New(client, bus, cfg.MonitorThresholdP)
	go mon.Run(ctx, cfg.MonitorInterval)

	t := &trader.Trader{
		Chain:        chain,
		Predictor:    model,
		Risk:         riskMgr,
		IDs:          ids,
		Stats:        stats,
		Executor:     executor,
		Broker:       client,
		Journal:      journal,
		Bus:          bus,
		HoldDuration: cfg.HoldDuration,
	}
	if cfg.NewsAPIKey != "" {
		t.NewsScore = news.NewClient(cfg.NewsAPIKey, cfg.NewsTTL).Score
	} else {
		log.Printf("news: no API key configured, sentiment input disabled")
	}
	sched := &trader.Scheduler{
		Trader:      t,
		Stats:       stats,
		Bus:         bus,
		Symbols:     cfg.TodaySymbols,
		Interval:    cfg.TradingInterval,
		MaxParallel: 3,
	}

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: (&api.Server{
			Broker:  client,
			Risk:    riskMgr,
			Stats:   stats,
			Journal: journal,
		}).Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server: %v", err)
		}
	}()

	bus.Publish(events.EventHeartbeat, fmt.Sprintf(
		"fxtrader ONLINE\nTime: %s\nBroker: %s\nPredictor: %s",
		time.Now().UTC().Format("2006-01-02 15:04:05 UTC"), client.Name(), model.Name()))

	done := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(done)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Printf("shutdown signal received")

	cancel()
	<-done // scheduler drains in-flight cycles, closing open positions

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	log.Printf("fxtrader stopped")
}
