package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeka7ro/essence-affirmations-sub000/internal/activity"
	"github.com/jeka7ro/essence-affirmations-sub000/internal/auth"
	"github.com/jeka7ro/essence-affirmations-sub000/internal/config"
	"github.com/jeka7ro/essence-affirmations-sub000/internal/db"
	httpx "github.com/jeka7ro/essence-affirmations-sub000/internal/http"
	"github.com/jeka7ro/essence-affirmations-sub000/internal/jobs"
)

func main() {
	cfg, _ := config.Load()

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		log.Fatal(err)
	}

	jwtSvc := auth.NewJWT(cfg.JWTSecret)
	r := httpx.NewRouter(cfg, gdb, jwtSvc)

	// activity dispatch worker
	worker := &jobs.Worker{
		ID:         cfg.WorkerID,
		Repo:       &jobs.Repo{DB: gdb},
		Activities: &activity.Service{DB: gdb},
	}

	ctx, cancel := context.WithCancel(context.Background())
	go worker.Run(ctx)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("listening on %s\n", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
