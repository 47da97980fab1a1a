package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/formtide/survey-runtime/app"
	"github.com/formtide/survey-runtime/config"
	"github.com/formtide/survey-runtime/database"
	"github.com/formtide/survey-runtime/httpx"
	"github.com/formtide/survey-runtime/log"
	"github.com/formtide/survey-runtime/progress"
	"github.com/formtide/survey-runtime/routes"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	bearerServer := httpx.NewBearerServer(db, cfg)

	var store progress.Store = progress.NewSQLiteStore(db)
	if cfg.RedisUrl != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisUrl})
		store = progress.NewRedisStore(client, cfg.ProgressRetention)
	}

	app := app.App{
		DB:           db,
		BearerServer: bearerServer,
		Config:       cfg,
		Progress:     store,
	}

	handler := routes.Wire(app)

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
