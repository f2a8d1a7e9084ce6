package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/username/capgains/backend/src/config"
	"github.com/username/capgains/backend/src/logger"
	"github.com/username/capgains/backend/src/security/validation"
	"github.com/username/capgains/backend/src/services"
	"github.com/username/capgains/backend/src/utils"
)

type CalculationHandler struct {
	calculationService services.CalculationService
	reportService      services.ReportService
}

func NewCalculationHandler(calculationService services.CalculationService, reportService services.ReportService) *CalculationHandler {
	return &CalculationHandler{
		calculationService: calculationService,
		reportService:      reportService,
	}
}

// Multipart field names for each broker source. All are optional; a
// calculation runs with whatever subset of sources is present.
var sourceFields = []string{"eac", "brokerage", "groww_stocks", "groww_mf", "zerodha", "custom_rates", "email_rates"}

// HandleCalculate accepts a multipart batch of broker exports and runs the
// full calculation over them.
func (h *CalculationHandler) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		logger.L.Warn("Failed to parse multipart form or request too large", "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	input, openFiles, err := h.buildInput(r)
	for _, f := range openFiles {
		defer f.Close()
	}
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	logger.L.Info("Processing calculation request", "sourceCount", len(openFiles), "startDate", utils.FormatISODate(input.StartDate))
	result, err := h.calculationService.Calculate(*input)
	if err != nil {
		logger.L.Error("Internal error running calculation", "error", err)
		utils.SendJSONError(w, "An internal error occurred while running the calculation. Please try again later.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		logger.L.Error("Error encoding JSON response for calculation result", "calculationID", result.ID, "error", err)
	}
}

func (h *CalculationHandler) buildInput(r *http.Request) (*services.CalculationInput, []multipart.File, error) {
	input := &services.CalculationInput{}
	var openFiles []multipart.File

	if v := r.FormValue("start_date"); v != "" {
		startDate, err := time.Parse(utils.ISODateFormat, v)
		if err != nil {
			return nil, openFiles, fmt.Errorf("invalid start_date %q, expected YYYY-MM-DD", v)
		}
		input.StartDate = startDate
	}
	if v := r.FormValue("taxes_paid"); v != "" {
		taxesPaid, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, openFiles, fmt.Errorf("invalid taxes_paid %q", v)
		}
		input.TaxesPaid = taxesPaid
	}
	input.UseRates = r.FormValue("use_rates") != "false"

	readers := map[string]*io.Reader{
		"eac":          &input.EACFile,
		"brokerage":    &input.BrokerageFile,
		"groww_stocks": &input.GrowwStocksFile,
		"groww_mf":     &input.GrowwMFFile,
		"zerodha":      &input.ZerodhaFile,
		"custom_rates": &input.CustomRatesFile,
		"email_rates":  &input.EmailRatesFile,
	}

	sourceCount := 0
	for _, field := range sourceFields {
		file, fileHeader, err := r.FormFile(field)
		if err == http.ErrMissingFile {
			continue
		}
		if err != nil {
			return nil, openFiles, fmt.Errorf("failed to read form field %q: %v", field, err)
		}
		openFiles = append(openFiles, file)

		if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
			return nil, openFiles, fmt.Errorf("file %q too large, max %d MB", field, config.Cfg.MaxUploadSizeBytes/(1024*1024))
		}
		if err := validation.ValidateClientContentType(fileHeader.Header.Get("Content-Type")); err != nil {
			return nil, openFiles, err
		}
		if _, err := validation.ValidateFileContentByMagicBytes(file); err != nil {
			logger.L.Warn("Server-side file content validation failed", "field", field, "filename", fileHeader.Filename, "error", err)
			return nil, openFiles, err
		}

		*readers[field] = file
		sourceCount++
	}

	if sourceCount == 0 {
		return nil, openFiles, errors.New("at least one broker export file is required")
	}
	return input, openFiles, nil
}

// HandleGetCalculation returns a stored calculation result with ETag support.
func (h *CalculationHandler) HandleGetCalculation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	logger.L.Debug("Handling GetCalculation request", "calculationID", id)

	result, err := h.calculationService.GetResult(id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			utils.SendJSONError(w, fmt.Sprintf("Calculation %s not found", id), http.StatusNotFound)
			return
		}
		logger.L.Error("Error retrieving calculation result", "calculationID", id, "error", err)
		utils.SendJSONError(w, "Error retrieving calculation result", http.StatusInternalServerError)
		return
	}

	currentETag, etagErr := utils.GenerateETag(result)
	if etagErr != nil {
		logger.L.Error("Failed to generate ETag for calculation result", "calculationID", id, "error", etagErr)
	}

	w.Header().Set("Cache-Control", "no-cache, private")

	if etagErr == nil && currentETag != "" {
		quotedETag := fmt.Sprintf("\"%s\"", currentETag)
		w.Header().Set("ETag", quotedETag)
		clientETag := r.Header.Get("If-None-Match")
		for _, cETag := range strings.Split(clientETag, ",") {
			if strings.TrimSpace(cETag) == quotedETag {
				logger.L.Debug("ETag match for calculation result", "calculationID", id, "etag", currentETag)
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		logger.L.Error("Error encoding JSON response for calculation result", "calculationID", id, "error", err)
	}
}

// HandleDownloadReport streams a stored calculation as an xlsx workbook.
func (h *CalculationHandler) HandleDownloadReport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	logger.L.Debug("Handling DownloadReport request", "calculationID", id)

	result, err := h.calculationService.GetResult(id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			utils.SendJSONError(w, fmt.Sprintf("Calculation %s not found", id), http.StatusNotFound)
			return
		}
		logger.L.Error("Error retrieving calculation for report", "calculationID", id, "error", err)
		utils.SendJSONError(w, "Error retrieving calculation result", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=tax-report-%s.xlsx", id))
	if err := h.reportService.WriteWorkbook(w, result); err != nil {
		logger.L.Error("Error writing report workbook", "calculationID", id, "error", err)
	}
}
