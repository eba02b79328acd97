package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/demandcast/internal/service"
)

type RecommendationHandler struct {
	service *service.RecommendationService
}

func NewRecommendationHandler(service *service.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{service: service}
}

func parseBranchID(c *gin.Context) int {
	if raw := strings.TrimSpace(c.Query("branch_id")); raw != "" {
		if id, err := strconv.Atoi(raw); err == nil && id > 0 {
			return id
		}
	}
	return 0
}

func parseLimit(c *gin.Context, fallback int) int {
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

// GetLatest returns the newest recommendation set.
func (h *RecommendationHandler) GetLatest(c *gin.Context) {
	recs, err := h.service.GetLatest(c.Request.Context(), parseBranchID(c))
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load recommendations: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": recs, "count": len(recs)})
}

// GetByDate returns the recommendation set for ?date=YYYY-MM-DD.
func (h *RecommendationHandler) GetByDate(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("date"))
	if raw == "" {
		errorResponse(c, http.StatusBadRequest, "missing required query parameter: date")
		return
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD: "+raw)
		return
	}

	recs, err := h.service.GetByDate(c.Request.Context(), date, parseBranchID(c))
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load recommendations: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": recs, "count": len(recs)})
}

// GetTopActions returns recommendations ranked by projected profit.
func (h *RecommendationHandler) GetTopActions(c *gin.Context) {
	recs, err := h.service.TopActions(c.Request.Context(), parseBranchID(c), parseLimit(c, 10))
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to rank recommendations: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": recs, "count": len(recs)})
}

// GetUrgentRestocks returns understocked entities from the newest set.
func (h *RecommendationHandler) GetUrgentRestocks(c *gin.Context) {
	recs, err := h.service.UrgentRestocks(c.Request.Context(), parseBranchID(c), parseLimit(c, 10))
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to rank recommendations: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": recs, "count": len(recs)})
}

// GetPredictions returns the per-day forecast table for ?date=YYYY-MM-DD.
func (h *RecommendationHandler) GetPredictions(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("date"))
	if raw == "" {
		errorResponse(c, http.StatusBadRequest, "missing required query parameter: date")
		return
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD: "+raw)
		return
	}

	predictions, err := h.service.GetPredictions(c.Request.Context(), date)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load predictions: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": predictions, "count": len(predictions)})
}

// GetAvailableDates lists forecast dates with stored recommendations.
func (h *RecommendationHandler) GetAvailableDates(c *gin.Context) {
	dates, err := h.service.GetDates(c.Request.Context())
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load dates: "+err.Error())
		return
	}
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.Format("2006-01-02"))
	}
	c.JSON(http.StatusOK, gin.H{"data": out, "count": len(out)})
}

func errorResponse(c *gin.Context, statusCode int, message string) {
	log.Error().Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
}
