package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"task-tracker/internal/bot"
	"task-tracker/internal/config"
	"task-tracker/internal/repository"
	"task-tracker/internal/service"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "optional config file (yaml, toml, json or env)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := mustMakeLogger(cfg.LogLevel)

	if err := run(cfg, logger); err != nil {
		logger.Error("task tracker failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	db, err := repository.NewDB(cfg.DatabaseURL, log)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	store := repository.NewStore(db)
	activity := service.NewActivityRecorder(store.Activity, log)
	taskSvc := service.NewTaskService(store, activity, log)
	categorySvc := service.NewCategoryService(store.Tasks)
	reminderSvc := service.NewReminderService(taskSvc)
	subscribers := repository.NewSubscriberRepository(db)

	telegramBot, err := bot.New(cfg.TelegramToken, subscribers, taskSvc, categorySvc, reminderSvc, loc, log)
	if err != nil {
		return fmt.Errorf("bot: %w", err)
	}

	scheduler := service.NewSchedulerService(loc, log)
	if interval := cfg.ReportInterval(); interval > 0 {
		if _, err := scheduler.ScheduleInterval(interval, "periodic report", telegramBot.SendDailyReports); err != nil {
			return fmt.Errorf("schedule reports: %w", err)
		}
	}
	if cfg.ReportTime != "" {
		if _, err := scheduler.ScheduleDaily(cfg.ReportTime, "daily report", telegramBot.SendDailyReports); err != nil {
			return fmt.Errorf("schedule daily report: %w", err)
		}
	}
	if scheduler.Len() > 0 {
		scheduler.Start()
		defer scheduler.Stop()
	}

	log.Info("task tracker started", "db", cfg.DatabaseURL, "reports", scheduler.Len())
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("bot stopped: %w", err)
	}
	log.Info("shutdown complete")
	return nil
}

func mustMakeLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
