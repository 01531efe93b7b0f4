package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rocketscienceinc/tilegame-backend/internal/entity"
)

type gameReader interface {
	GetByID(ctx context.Context, id string) (*entity.Game, error)
}

func Start(ctx context.Context, port string, games gameReader) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", pingHandler)
	mux.HandleFunc("/games/", newGameHandler(games))

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
