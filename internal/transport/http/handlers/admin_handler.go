package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Taniishaaa/censor-pro/internal/domain/enums"
	modsvc "github.com/Taniishaaa/censor-pro/internal/services/moderation"
	"github.com/Taniishaaa/censor-pro/internal/transport/http/dto"
	httperrors "github.com/Taniishaaa/censor-pro/internal/transport/http/errors"
)

type AdminHandler struct {
	service *modsvc.Service
}

func NewAdminHandler(service *modsvc.Service) *AdminHandler {
	return &AdminHandler{service: service}
}

// Queue lists pending submissions oldest first with their owners.
func (h *AdminHandler) Queue(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	items, err := h.service.Queue(r.Context())
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
		return
	}

	resp := dto.QueueResponse{Items: make([]dto.QueueItemResponse, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, dto.QueueItemResponse{
			Content:   contentResponse(item.Content, nil),
			UserEmail: item.OwnerEmail,
		})
	}

	httperrors.Write(w, http.StatusOK, resp)
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	stats, err := h.service.Stats(r.Context())
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.StatsResponse{
		Total:       stats.Total,
		Pending:     stats.Pending,
		Done:        stats.Done,
		UnderReview: stats.UnderReview,
		Approved:    stats.Approved,
		Rejected:    stats.Rejected,
	})
}

// Review records an expert decision for one pending submission.
func (h *AdminHandler) Review(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	contentID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || contentID <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid content id")
		return
	}

	var req dto.ReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	decision, ok := enums.ParseDecision(strings.ToLower(strings.TrimSpace(req.Decision)))
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "decision must be approved or rejected")
		return
	}

	updated, err := h.service.Review(r.Context(), contentID, decision, strings.TrimSpace(req.ExpertResponse))
	if err != nil {
		handleModerationError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, contentResponse(updated, nil))
}
