package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/OpenAgentsInc/commander-sub000/internal/api/response"
	"github.com/OpenAgentsInc/commander-sub000/pkg/models"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// HistoryService is the read-only reconstructor surface the handlers use.
type HistoryService interface {
	JobHistory(ctx context.Context, page, pageSize int) ([]models.JobHistoryEntry, int, error)
	JobStatistics(ctx context.Context) (models.JobStatistics, error)
}

// JobHistory handles GET /api/v1/jobs/history?page=&limit=.
func JobHistory(svc HistoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := queryInt(r, "page", 1)
		limit := queryInt(r, "limit", defaultPageSize)
		if page < 1 {
			response.Error(w, http.StatusBadRequest, "INVALID_PAGE", "page must be >= 1", nil)
			return
		}
		if limit < 1 || limit > maxPageSize {
			response.Error(w, http.StatusBadRequest, "INVALID_LIMIT",
				"limit must be between 1 and 100", nil)
			return
		}

		entries, total, err := svc.JobHistory(r.Context(), page, limit)
		if err != nil {
			response.Error(w, http.StatusBadGateway, "RELAY_ERROR",
				"Failed to fetch job history from relays", nil)
			return
		}

		response.Collection(w, entries, response.PaginationMeta{
			Page:    page,
			Limit:   limit,
			Total:   total,
			HasNext: page*limit < total,
		})
	}
}

// JobStatistics handles GET /api/v1/jobs/stats.
func JobStatistics(svc HistoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.JobStatistics(r.Context())
		if err != nil {
			response.Error(w, http.StatusBadGateway, "RELAY_ERROR",
				"Failed to fetch job statistics from relays", nil)
			return
		}
		response.JSON(w, stats)
	}
}

func queryInt(r *http.Request, key string, defaultVal int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return -1
	}
	return i
}
