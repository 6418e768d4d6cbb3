// @title Sales Reconciliation API
// @version 1.0
// @description API сверки декадных продаж: разбор адресов, загрузка отчетов дистрибьюторов, фактические продажи и KPI.

// @license.name Internal Use Only

// @BasePath /
// @schemes http https

package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"salesrecon/database"
	"salesrecon/internal/config"
	"salesrecon/server"
)

func main() {
	log.Println("Запуск сервиса сверки продаж...")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	db, err := database.NewSalesDBWithConfig(cfg.DatabasePath, cfg.DBConfig())
	if err != nil {
		log.Fatalf("Ошибка создания базы данных: %v", err)
	}
	defer db.Close()
	log.Printf("Используется база данных: %s", cfg.DatabasePath)

	srv, err := server.New(cfg, db, logger)
	if err != nil {
		log.Fatalf("Ошибка создания сервера: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Printf("Получен сигнал %v, останавливаем сервер...", sig)
	case err := <-errCh:
		if err != nil {
			log.Printf("Ошибка запуска сервера: %v", err)
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Ошибка при остановке сервера: %v", err)
	}
	log.Println("Сервер остановлен")
}

func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
