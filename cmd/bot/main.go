package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/mkowalczyk/reactions-bot/internal/config"
	"github.com/mkowalczyk/reactions-bot/internal/db"
	"github.com/mkowalczyk/reactions-bot/internal/handler"
	"github.com/mkowalczyk/reactions-bot/internal/model"
	"github.com/mkowalczyk/reactions-bot/internal/repository"
	"github.com/mkowalczyk/reactions-bot/internal/server"
	"github.com/mkowalczyk/reactions-bot/internal/service"
	"github.com/mkowalczyk/reactions-bot/internal/transport/telegram"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	var zlog *zap.Logger
	if cfg.LogMode == "prod" {
		zlog, err = zap.NewProduction()
	} else {
		zlog, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = zlog.Sync() }()
	sugar := zlog.Sugar()

	conn, err := db.Connect(cfg)
	if err != nil {
		sugar.Fatalw("db connect error", "err", err)
	}
	if err := conn.AutoMigrate(&model.Message{}, &model.Reaction{}); err != nil {
		sugar.Fatalw("auto migrate error", "err", err)
	}

	messageRepo := repository.NewMessageRepository(conn)
	reactionRepo := repository.NewReactionRepository(conn)

	adapter, err := telegram.New(cfg.BotToken, sugar)
	if err != nil {
		sugar.Fatalw("telegram init error", "err", err)
	}

	ledger := service.NewLedgerService(reactionRepo, sugar)
	reconciler := service.NewReconcilerService(messageRepo, reactionRepo, adapter, cfg.ShowSummaryButton, sugar)
	reactions := service.NewReactionService(cfg, messageRepo, ledger, reconciler, adapter, sugar)
	reports := service.NewReportService(cfg, messageRepo, reactionRepo, adapter, sugar)

	updates := handler.NewUpdateHandler(cfg, reactions, reports, adapter, sugar)

	srv := server.New(reports)
	go func() {
		addr := ":" + cfg.AdminPort
		sugar.Infow("starting admin server", "addr", addr)
		if err := srv.Start(addr); err != nil {
			sugar.Errorw("admin server stopped", "err", err)
		}
	}()

	sugar.Infow("bot starting")
	if err := adapter.Listen(updates); err != nil {
		sugar.Fatalw("bot stopped", "err", err)
	}
}
