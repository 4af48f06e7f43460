package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/madetoorder/storefront/app/httpx"
)

// StoreState is the consumer-visible status of one store.
type StoreState interface {
	Name() string
	Loading() bool
	Err() string
	Len() int
}

type storeStateResponse struct {
	Loading bool    `json:"loading"`
	Error   *string `json:"error"`
	Count   int     `json:"count"`
}

// StateHandler reports loading and error state and triggers full reloads.
type StateHandler struct {
	stores []StoreState
	reload func(ctx context.Context) error
	logger *slog.Logger
}

func NewStateHandler(reload func(ctx context.Context) error, logger *slog.Logger, stores ...StoreState) *StateHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StateHandler{stores: stores, reload: reload, logger: logger}
}

func (h *StateHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.snapshot())
}

func (h *StateHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	if err := h.reload(r.Context()); err != nil {
		h.logger.Error("reload failed", "error", err)
		httpx.JSON(w, http.StatusBadGateway, h.snapshot())
		return
	}
	httpx.JSON(w, http.StatusOK, h.snapshot())
}

func (h *StateHandler) snapshot() map[string]storeStateResponse {
	out := make(map[string]storeStateResponse, len(h.stores))
	for _, s := range h.stores {
		state := storeStateResponse{Loading: s.Loading(), Count: s.Len()}
		if msg := s.Err(); msg != "" {
			state.Error = &msg
		}
		out[s.Name()] = state
	}
	return out
}
