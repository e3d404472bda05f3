// internal/handlers/stats_handler.go
package handlers

import (
	"net/http"

	"magyar_vizsga_trainer/internal/middleware"
	"magyar_vizsga_trainer/internal/model"
	"magyar_vizsga_trainer/internal/service"
	"magyar_vizsga_trainer/internal/webutil"
)

type StatsHandler struct {
	service service.StatsService
}

func NewStatsHandler(s service.StatsService) *StatsHandler {
	return &StatsHandler{service: s}
}

// GetStats は学習統計ダッシュボードのハンドラ
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With("handler", "GetStats")

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", "error", err)
		webutil.HandleError(w, logger, model.NewAppError("UNAUTHORIZED", "Authentication is required.", "", model.ErrUnauthorized))
		return
	}

	stats, err := h.service.GetStats(r.Context(), userID)
	if err != nil {
		logger.Error("Error assembling stats", "error", err)
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, stats)
}

// GetForecast はSRS復習予報のハンドラ
func (h *StatsHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With("handler", "GetForecast")

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", "error", err)
		webutil.HandleError(w, logger, model.NewAppError("UNAUTHORIZED", "Authentication is required.", "", model.ErrUnauthorized))
		return
	}

	forecast, err := h.service.GetForecast(r.Context(), userID)
	if err != nil {
		logger.Error("Error assembling forecast", "error", err)
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, forecast)
}
