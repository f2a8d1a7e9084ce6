package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/username/capgains/backend/src/logger"
	"github.com/username/capgains/backend/src/services"
	"github.com/username/capgains/backend/src/utils"
)

type RateHandler struct {
	rateService services.RateService
}

func NewRateHandler(rateService services.RateService) *RateHandler {
	return &RateHandler{rateService: rateService}
}

// HandleGetRates returns every persisted exchange rate as the
// {"YYYY-MM-DD": rate} interchange table.
func (h *RateHandler) HandleGetRates(w http.ResponseWriter, r *http.Request) {
	table, err := h.rateService.LoadSavedRates()
	if err != nil {
		logger.L.Error("Error loading saved exchange rates", "error", err)
		utils.SendJSONError(w, "Error retrieving exchange rates", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(table); err != nil {
		logger.L.Error("Error encoding exchange rate response", "error", err)
	}
}
