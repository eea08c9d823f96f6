package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AFlo59/CompareModelPoc-sub000/pkg/config"
	"github.com/AFlo59/CompareModelPoc-sub000/pkg/di"
	"github.com/AFlo59/CompareModelPoc-sub000/pkg/router"
)

func main() {
	cfg := config.New()

	container, err := di.New()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	r := router.New(container)
	r.SetupRoutes()

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r.Engine,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	go func() {
		container.Logger.Info("server listening", "port", cfg.Server.Port, "env", cfg.Server.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			container.Logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	container.Logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		container.Logger.Error("graceful shutdown failed", "error", err)
	}
}
