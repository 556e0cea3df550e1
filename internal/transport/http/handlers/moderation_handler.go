package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/Taniishaaa/censor-pro/internal/services/auth"
	modsvc "github.com/Taniishaaa/censor-pro/internal/services/moderation"
	ratesvc "github.com/Taniishaaa/censor-pro/internal/services/rate"
	"github.com/Taniishaaa/censor-pro/internal/transport/http/dto"
	httperrors "github.com/Taniishaaa/censor-pro/internal/transport/http/errors"
)

type ModerationHandler struct {
	service *modsvc.Service
	limiter *ratesvc.Limiter
}

func NewModerationHandler(service *modsvc.Service, limiter *ratesvc.Limiter) *ModerationHandler {
	return &ModerationHandler{
		service: service,
		limiter: limiter,
	}
}

// ModerateText relays one ad-hoc text check and returns the provider's
// response untouched.
func (h *ModerationHandler) ModerateText(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}
	if !h.allow(w, r, identity.UserID) {
		return
	}

	var req dto.ModerateTextRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeBadRequest(w, "VALIDATION_ERROR", "text is required")
		return
	}

	raw, err := h.service.ScoreText(r.Context(), req.Text)
	if err != nil {
		handleModerationError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ModerateTextResponse{Result: raw})
}

// AIResolve runs the automated check for one pending submission.
func (h *ModerationHandler) AIResolve(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	contentID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || contentID <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid content id")
		return
	}

	if !h.allow(w, r, identity.UserID) {
		return
	}

	res, err := h.service.AIResolve(r.Context(), contentID, identity.UserID, identity.Role)
	if err != nil {
		handleModerationError(w, err)
		return
	}

	evidence := make([]dto.CategoryScoreResponse, 0, len(res.Verdict.Evidence))
	for _, cs := range res.Verdict.Evidence {
		evidence = append(evidence, dto.CategoryScoreResponse{Category: cs.Category, Score: cs.Score})
	}

	httperrors.Write(w, http.StatusOK, dto.AIResolveResponse{
		Content: contentResponse(res.Content, nil),
		Verdict: dto.VerdictResponse{
			Label:      string(res.Verdict.Label),
			Confidence: res.Verdict.Confidence,
			Evidence:   evidence,
		},
	})
}

func (h *ModerationHandler) allow(w http.ResponseWriter, r *http.Request, userID int64) bool {
	if h.limiter == nil {
		return true
	}

	retryAfter, allowed, err := h.limiter.AllowModeration(r.Context(), userID)
	if err != nil {
		// A broken limiter store must not take moderation down with it.
		return true
	}
	if !allowed {
		writeRateLimited(w, retryAfter)
		return false
	}
	return true
}

func handleModerationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, modsvc.ErrNotFound):
		writeNotFound(w, "CONTENT_NOT_FOUND", "content not found")
	case errors.Is(err, modsvc.ErrAlreadyResolved):
		writeConflict(w, "ALREADY_RESOLVED", "content is already resolved")
	case errors.Is(err, modsvc.ErrForbidden):
		writeForbidden(w, "FORBIDDEN", "content belongs to another user")
	case errors.Is(err, modsvc.ErrInvalidDecision):
		writeBadRequest(w, "VALIDATION_ERROR", "decision must be approved or rejected")
	case errors.Is(err, modsvc.ErrProvider):
		writeInternal(w, "PROVIDER_ERROR", "moderation provider is unavailable")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
