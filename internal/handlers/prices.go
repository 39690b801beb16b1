package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"carpricewatch/internal/export"
	"carpricewatch/internal/models"
	"carpricewatch/internal/tracker"
	"carpricewatch/internal/util"
	"carpricewatch/internal/validation"
)

type PriceHandler struct {
	tracker *tracker.Tracker
}

func NewPriceHandler(t *tracker.Tracker) *PriceHandler {
	return &PriceHandler{tracker: t}
}

type PricesResponse struct {
	Success bool                    `json:"success"`
	Count   int                     `json:"count"`
	Prices  []models.StoredPriceRow `json:"prices"`
}

type ScrapeResponse struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Summary models.ScrapeSummary `json:"summary"`
}

type ManualEntryResponse struct {
	Success bool                  `json:"success"`
	Entry   models.StoredPriceRow `json:"entry"`
}

type StatusResponse struct {
	Success bool           `json:"success"`
	Status  tracker.Status `json:"status"`
}

// TriggerScrape godoc
// @Summary Scrape every brand now
// @Description Runs all brand fetchers, removes duplicates and stores the result as a new generation. Blocks until the run completes. Subject to a cooldown between successful runs.
// @Tags scrape
// @Produce json
// @Success 200 {object} ScrapeResponse
// @Failure 409 {object} util.ErrorBody "a scrape is already running"
// @Failure 429 {object} util.ErrorBody "cooldown active"
// @Failure 502 {object} ScrapeResponse "no brand returned any prices"
// @Router /api/scrape [post]
func (h *PriceHandler) TriggerScrape(c *gin.Context) {
	// A started run always completes, even if the caller goes away
	ctx := context.WithoutCancel(c.Request.Context())

	summary, err := h.tracker.RunFullScrape(ctx)
	switch {
	case errors.Is(err, tracker.ErrScrapeInProgress):
		util.SafeErrorResponse(c, http.StatusConflict, "A scrape is already in progress", nil)
	case errors.Is(err, tracker.ErrNothingScraped):
		c.JSON(http.StatusBadGateway, ScrapeResponse{
			Success: false,
			Message: "No prices could be scraped, nothing was stored",
			Summary: summary,
		})
	case err != nil:
		util.SafeErrorResponse(c, http.StatusInternalServerError, "Failed to store scraped prices", err)
	default:
		c.JSON(http.StatusOK, ScrapeResponse{
			Success: true,
			Message: fmt.Sprintf("Stored %d prices", summary.Stored),
			Summary: summary,
		})
	}
}

// GetLatest godoc
// @Summary Latest effective prices
// @Description Returns the most recent scraped generation plus every manual entry
// @Tags prices
// @Produce json
// @Success 200 {object} PricesResponse
// @Router /api/prices/latest [get]
func (h *PriceHandler) GetLatest(c *gin.Context) {
	rows, err := h.tracker.Latest()
	if err != nil {
		util.SafeErrorResponse(c, http.StatusInternalServerError, "Failed to load prices", err)
		return
	}
	c.JSON(http.StatusOK, PricesResponse{Success: true, Count: len(rows), Prices: rows})
}

// GetHistory godoc
// @Summary Price history
// @Description Returns rows from every generation ordered by time. brand and model may be repeated or comma separated; omitted means all.
// @Tags prices
// @Produce json
// @Param brand query []string false "Brands" collectionFormat(multi)
// @Param model query []string false "Models" collectionFormat(multi)
// @Success 200 {object} PricesResponse
// @Failure 400 {object} util.ErrorBody "unknown brand"
// @Router /api/prices/history [get]
func (h *PriceHandler) GetHistory(c *gin.Context) {
	var brands []string
	for _, b := range queryList(c, "brand") {
		brand, err := validation.ValidateBrand(b)
		if err != nil {
			util.ValidationErrorResponse(c, http.StatusBadRequest, err)
			return
		}
		brands = append(brands, brand)
	}

	rows, err := h.tracker.History(brands, queryList(c, "model"))
	if err != nil {
		util.SafeErrorResponse(c, http.StatusInternalServerError, "Failed to load price history", err)
		return
	}
	c.JSON(http.StatusOK, PricesResponse{Success: true, Count: len(rows), Prices: rows})
}

// ListManual godoc
// @Summary Manual price entries
// @Description Lists manual entries newest first
// @Tags manual
// @Produce json
// @Success 200 {object} PricesResponse
// @Router /api/prices/manual [get]
func (h *PriceHandler) ListManual(c *gin.Context) {
	rows, err := h.tracker.ManualEntries()
	if err != nil {
		util.SafeErrorResponse(c, http.StatusInternalServerError, "Failed to load manual entries", err)
		return
	}
	c.JSON(http.StatusOK, PricesResponse{Success: true, Count: len(rows), Prices: rows})
}

// AddManual godoc
// @Summary Add a manual price
// @Description Stores a user-supplied price. Give the price in rupees (priceRupees) or lakhs (priceLakhs). The timestamp defaults to now and may be backdated.
// @Tags manual
// @Accept json
// @Produce json
// @Param entry body models.ManualEntryRequest true "Manual entry"
// @Success 201 {object} ManualEntryResponse
// @Failure 400 {object} util.ErrorBody "invalid entry"
// @Router /api/prices/manual [post]
func (h *PriceHandler) AddManual(c *gin.Context) {
	var req models.ManualEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.SafeErrorResponse(c, http.StatusBadRequest, "Invalid request data", err)
		return
	}

	row, err := h.tracker.AddManual(req)
	var verr *tracker.ValidationError
	switch {
	case errors.As(err, &verr):
		util.ValidationErrorResponse(c, http.StatusBadRequest, verr)
		return
	case err != nil:
		util.SafeErrorResponse(c, http.StatusInternalServerError, "Failed to save manual price", err)
		return
	}
	c.JSON(http.StatusCreated, ManualEntryResponse{Success: true, Entry: row})
}

// DeleteManual godoc
// @Summary Delete a manual price
// @Description Deletes a manual entry by id. Scraped rows cannot be deleted and report 404.
// @Tags manual
// @Produce json
// @Param id path int true "Row id"
// @Success 200 {object} map[string]interface{} "success: true"
// @Failure 400 {object} util.ErrorBody "invalid id"
// @Failure 404 {object} util.ErrorBody "no manual entry with that id"
// @Router /api/prices/manual/{id} [delete]
func (h *PriceHandler) DeleteManual(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		util.SafeErrorResponse(c, http.StatusBadRequest, "Invalid id", nil)
		return
	}

	err = h.tracker.DeleteManual(id)
	switch {
	case errors.Is(err, tracker.ErrNotFound):
		util.SafeErrorResponse(c, http.StatusNotFound, "Manual entry not found", nil)
		return
	case err != nil:
		util.SafeErrorResponse(c, http.StatusInternalServerError, "Failed to delete manual price", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": id})
}

// ExportCSV godoc
// @Summary Export prices as CSV
// @Description Downloads the latest effective prices as CSV
// @Tags prices
// @Produce text/csv
// @Success 200 {file} file
// @Router /api/prices/export.csv [get]
func (h *PriceHandler) ExportCSV(c *gin.Context) {
	rows, err := h.tracker.Latest()
	if err != nil {
		util.SafeErrorResponse(c, http.StatusInternalServerError, "Failed to load prices", err)
		return
	}

	filename := fmt.Sprintf("car_prices_%s.csv", time.Now().Format("20060102"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)
	if err := export.WriteCSV(c.Writer, rows); err != nil {
		// Headers are already sent; all that is left is to log it
		c.Error(err)
	}
}

// GetStatus godoc
// @Summary Scrape and store status
// @Description Reports whether a scrape is running, the last run's per-brand results and the stored generations
// @Tags scrape
// @Produce json
// @Success 200 {object} StatusResponse
// @Router /api/status [get]
func (h *PriceHandler) GetStatus(c *gin.Context) {
	status, err := h.tracker.Status()
	if err != nil {
		util.SafeErrorResponse(c, http.StatusInternalServerError, "Failed to read status", err)
		return
	}
	c.JSON(http.StatusOK, StatusResponse{Success: true, Status: status})
}

// queryList collects a repeated and/or comma separated query parameter
func queryList(c *gin.Context, key string) []string {
	var out []string
	for _, v := range c.QueryArray(key) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// RegisterRoutes mounts the price API on api. scrapeGuards run in front of the scrape trigger only.
func (h *PriceHandler) RegisterRoutes(api *gin.RouterGroup, scrapeGuards ...gin.HandlerFunc) {
	api.POST("/scrape", append(scrapeGuards, h.TriggerScrape)...)
	api.GET("/status", h.GetStatus)

	prices := api.Group("/prices")
	{
		prices.GET("/latest", h.GetLatest)
		prices.GET("/history", h.GetHistory)
		prices.GET("/export.csv", h.ExportCSV)
		prices.GET("/manual", h.ListManual)
		prices.POST("/manual", h.AddManual)
		prices.DELETE("/manual/:id", h.DeleteManual)
	}
}
