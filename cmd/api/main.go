package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/guardias-hospital/shift-manager/backend/internal/app"
	"github.com/guardias-hospital/shift-manager/backend/internal/config"
	"github.com/guardias-hospital/shift-manager/backend/internal/handler"
	"github.com/guardias-hospital/shift-manager/backend/internal/logger"
	"github.com/guardias-hospital/shift-manager/backend/internal/seed"
)

func main() {
	/**********************************************
	 * load config
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	/**********************************************
	 * create logger
	 **********************************************/
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintln(os.Stderr, "create logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	/**********************************************
	 * connect to postgres, rabbitmq and redis
	 **********************************************/
	rt, err := app.Open(cfg, log)
	if err != nil {
		log.Error("initialise runtime", zap.Error(err))
		return
	}
	defer rt.Close()

	/**********************************************
	 * make sure the initial admin exists
	 **********************************************/
	admin, err := seed.EnsureInitialAdmin(context.Background(), rt.Repo, cfg)
	if err != nil {
		log.Error("create initial admin", zap.Error(err))
		return
	}
	log.Info("initial admin ready", zap.String("username", admin.Username))

	/**********************************************
	 * create handler
	 **********************************************/
	h, err := handler.NewHandler(cfg, rt.Repo, rt.Lifecycle, rt.Queue, rt.Cache, log)
	if err != nil {
		log.Error("create handler", zap.Error(err))
		return
	}
	h.RegisterRoutes()

	/**********************************************
	 * start the HTTP server
	 **********************************************/
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      h.Mux,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     zap.NewStdLog(log),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info("starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", zap.Error(err))
			quit <- syscall.SIGTERM
		}
	}()

	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shut down server", zap.Error(err))
	}
	log.Info("server stopped gracefully")
}
