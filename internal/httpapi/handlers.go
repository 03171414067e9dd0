package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/grid-tactics-backend/internal/hub"
	"github.com/DoyleJ11/grid-tactics-backend/internal/lobby"
	"github.com/DoyleJ11/grid-tactics-backend/internal/store"
)

const actorTimeout = 2 * time.Second

type createRoomRequest struct {
	MapID string `json:"mapId"`
}

func CreateRoom(h *hub.Hub, maps store.MapSource, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRoomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MapID == "" {
			http.Error(w, "mapId required", http.StatusBadRequest)
			return
		}

		mp, err := maps.GetMap(r.Context(), req.MapID)
		if errors.Is(err, store.ErrMapNotFound) {
			http.Error(w, "map not found", http.StatusNotFound)
			return
		}
		if err != nil {
			log.Error("load map", zap.String("map", req.MapID), zap.Error(err))
			http.Error(w, "failed to load map", http.StatusInternalServerError)
			return
		}

		if err := mp.Validate(); err != nil {
			log.Warn("unplayable map", zap.String("map", req.MapID), zap.Error(err))
			http.Error(w, "map is not playable: "+err.Error(), http.StatusUnprocessableEntity)
			return
		}

		reply := make(chan hub.Created, 1)
		h.Inbox() <- hub.CreateLobby{Map: mp, Reply: reply}
		created := <-reply
		if errors.Is(created.Err, hub.ErrNoRoomCodes) {
			http.Error(w, "no room available, try again later", http.StatusServiceUnavailable)
			return
		}
		if created.Err != nil {
			http.Error(w, "failed to create room", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, struct {
			Code string `json:"code"`
		}{Code: created.Lobby.Code()})
	}
}

func GetRoom(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan *lobby.Lobby, 1)
		h.Inbox() <- hub.GetLobby{Code: chi.URLParam(r, "code"), Reply: reply}
		lb := <-reply
		if lb == nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		views := make(chan lobby.View, 1)
		select {
		case lb.Inbox() <- lobby.GetState{Reply: views}:
		case <-lb.Done():
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		select {
		case v := <-views:
			writeJSON(w, http.StatusOK, v.Room)
		case <-lb.Done():
			http.Error(w, "room not found", http.StatusNotFound)
		case <-time.After(actorTimeout):
			http.Error(w, "room busy", http.StatusServiceUnavailable)
		}
	}
}

func ListMaps(maps store.MapSource, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := maps.ListMaps(r.Context())
		if err != nil {
			log.Error("list maps", zap.Error(err))
			http.Error(w, "failed to list maps", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
