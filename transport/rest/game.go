package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rocketscienceinc/tilegame-backend/internal/repository"
)

// newGameHandler - read-only diagnostic view of a shared game record.
// The clients drive the game themselves; this endpoint never writes.
func newGameHandler(games gameReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}

		gameID := strings.TrimPrefix(r.URL.Path, "/games/")
		if gameID == "" {
			http.Error(w, "game id is required", http.StatusBadRequest)
			return
		}

		game, err := games.GetByID(r.Context(), gameID)
		if errors.Is(err, repository.ErrGameNotFound) {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}

		if err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err = json.NewEncoder(w).Encode(game); err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}
}
