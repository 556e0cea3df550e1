package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Taniishaaa/censor-pro/internal/domain/enums"
	"github.com/Taniishaaa/censor-pro/internal/domain/model"
	authsvc "github.com/Taniishaaa/censor-pro/internal/services/auth"
	contentsvc "github.com/Taniishaaa/censor-pro/internal/services/content"
	"github.com/Taniishaaa/censor-pro/internal/transport/http/dto"
	httperrors "github.com/Taniishaaa/censor-pro/internal/transport/http/errors"
)

const maxUploadSize = 20 << 20 // 20 MiB

type ContentHandler struct {
	service *contentsvc.Service
}

func NewContentHandler(service *contentsvc.Service) *ContentHandler {
	return &ContentHandler{service: service}
}

// Upload accepts one multipart submission: a text_content field or an
// image file, never both.
func (h *ContentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "CONTENT_SERVICE_UNAVAILABLE", "content service is unavailable")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid multipart form")
		return
	}

	upload := contentsvc.Upload{
		Text: strings.TrimSpace(r.FormValue("text_content")),
	}

	file, header, err := r.FormFile("image")
	if err == nil {
		defer file.Close()
		if header == nil || header.Size <= 0 {
			writeBadRequest(w, "VALIDATION_ERROR", "image file is empty")
			return
		}
		upload.File = file
		upload.FileName = header.Filename
		upload.FileSize = header.Size
		upload.ContentType = header.Header.Get("Content-Type")
	} else if !errors.Is(err, http.ErrMissingFile) {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid image file")
		return
	}

	record, err := h.service.Submit(r.Context(), identity.UserID, upload)
	if err != nil {
		if errors.Is(err, contentsvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "provide exactly one of text_content or image")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
		return
	}

	httperrors.Write(w, http.StatusCreated, contentResponse(record, nil))
}

// MyContent lists the caller's submissions newest first.
func (h *ContentHandler) MyContent(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "CONTENT_SERVICE_UNAVAILABLE", "content service is unavailable")
		return
	}

	items, err := h.service.History(r.Context(), identity.UserID)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
		return
	}

	resp := dto.ContentListResponse{Items: make([]dto.ContentResponse, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, contentResponse(item.Content, item.ImageURL))
	}

	httperrors.Write(w, http.StatusOK, resp)
}

func contentResponse(record model.Content, imageURL *string) dto.ContentResponse {
	resp := dto.ContentResponse{
		ID:          record.ID,
		UserID:      record.UserID,
		TextContent: record.TextContent,
		ImagePath:   record.ImageKey,
		ImageURL:    imageURL,
		Status:      string(record.Status),
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
	if record.Decision != enums.DecisionUnset {
		decision := string(record.Decision)
		resp.Decision = &decision
	}
	resp.ExpertResponse = record.ExpertResponse
	return resp
}
