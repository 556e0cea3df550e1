package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Taniishaaa/censor-pro/internal/domain/model"
)

var ErrValidation = errors.New("validation error")

const (
	signedURLTTL  = 5 * time.Minute
	maxTextLength = 10000
)

// allowedImageTypes limits uploads to formats the image checker can
// evaluate.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Store is the persistence surface the submission workflow needs.
type Store interface {
	Create(ctx context.Context, userID int64, textContent, imageKey *string) (model.Content, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Content, error)
}

type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type Service struct {
	store   Store
	storage ObjectStorage
}

// Item is one submission with its image key exchanged for a short-lived
// URL.
type Item struct {
	Content  model.Content
	ImageURL *string
}

// Upload is one submission payload: exactly one of Text or File must be
// set.
type Upload struct {
	Text        string
	File        io.Reader
	FileName    string
	FileSize    int64
	ContentType string
}

func NewService(store Store, storage ObjectStorage) *Service {
	return &Service{
		store:   store,
		storage: storage,
	}
}

// Submit stores one text or image submission as a pending record. An
// image is written to object storage first; if the record insert fails
// afterwards, the orphaned object is removed.
func (s *Service) Submit(ctx context.Context, userID int64, upload Upload) (model.Content, error) {
	if s.store == nil {
		return model.Content{}, fmt.Errorf("content dependencies are not configured")
	}
	if userID <= 0 {
		return model.Content{}, ErrValidation
	}

	text := strings.TrimSpace(upload.Text)
	hasText := text != ""
	hasFile := upload.File != nil

	if hasText == hasFile {
		return model.Content{}, ErrValidation
	}

	if hasText {
		if len(text) > maxTextLength {
			return model.Content{}, ErrValidation
		}
		return s.store.Create(ctx, userID, &text, nil)
	}

	if s.storage == nil {
		return model.Content{}, fmt.Errorf("content dependencies are not configured")
	}
	if upload.FileSize <= 0 {
		return model.Content{}, ErrValidation
	}
	contentType, ok := imageContentType(upload)
	if !ok {
		return model.Content{}, ErrValidation
	}

	if err := s.storage.EnsureBucket(ctx); err != nil {
		return model.Content{}, fmt.Errorf("ensure bucket: %w", err)
	}

	objectKey := buildObjectKey(userID, upload.FileName)

	if err := s.storage.PutObject(ctx, objectKey, upload.File, upload.FileSize, contentType); err != nil {
		return model.Content{}, fmt.Errorf("put object: %w", err)
	}

	record, err := s.store.Create(ctx, userID, nil, &objectKey)
	if err != nil {
		_ = s.storage.Delete(ctx, objectKey)
		return model.Content{}, fmt.Errorf("create content record: %w", err)
	}

	return record, nil
}

// History lists the caller's submissions newest first, presigning image
// keys so clients never see raw object paths.
func (s *Service) History(ctx context.Context, userID int64) ([]Item, error) {
	if s.store == nil {
		return nil, fmt.Errorf("content dependencies are not configured")
	}
	if userID <= 0 {
		return nil, ErrValidation
	}

	records, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list content records: %w", err)
	}

	items := make([]Item, 0, len(records))
	for _, rec := range records {
		item := Item{Content: rec}
		if rec.IsImage() && s.storage != nil {
			signed, err := s.storage.PresignGet(ctx, *rec.ImageKey, signedURLTTL)
			if err != nil {
				return nil, fmt.Errorf("presign image url: %w", err)
			}
			item.ImageURL = &signed
		}
		items = append(items, item)
	}

	return items, nil
}

// imageContentType resolves the upload's media type, falling back to the
// file extension when the client sent none, and accepts only image
// formats.
func imageContentType(upload Upload) (string, bool) {
	contentType := strings.TrimSpace(upload.ContentType)
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(strings.TrimSpace(upload.FileName)))
	}
	contentType = strings.ToLower(contentType)
	return contentType, allowedImageTypes[contentType]
}

func buildObjectKey(userID int64, fileName string) string {
	ext := strings.ToLower(path.Ext(strings.TrimSpace(fileName)))
	if len(ext) > 10 {
		ext = ""
	}
	return fmt.Sprintf("content/%d/%s%s", userID, uuid.NewString(), ext)
}
