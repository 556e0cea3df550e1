package moderation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Taniishaaa/censor-pro/internal/domain/enums"
	"github.com/Taniishaaa/censor-pro/internal/domain/model"
	pgrepo "github.com/Taniishaaa/censor-pro/internal/repo/postgres"
)

const signedURLTTL = 5 * time.Minute

// expertResponsePrefix marks automated resolutions in the audit column,
// followed by the provider's raw response body.
const expertResponsePrefix = "AI Model Output: "

var (
	ErrNotFound        = errors.New("content not found")
	ErrAlreadyResolved = errors.New("content already resolved")
	ErrForbidden       = errors.New("content belongs to another user")
	ErrInvalidDecision = errors.New("invalid decision")
	ErrProvider        = errors.New("moderation provider unavailable")
)

// TextClassifier answers with both the parsed response and the exact
// body the provider returned.
type TextClassifier interface {
	ClassifyText(ctx context.Context, text string) (ProviderResponse, json.RawMessage, error)
}

// ToxicityScorer serves the raw pass-through check endpoint.
type ToxicityScorer interface {
	ScoreText(ctx context.Context, text string) (ProviderResponse, json.RawMessage, error)
}

// ImageChecker analyzes an image reachable at a URL.
type ImageChecker interface {
	CheckImageURL(ctx context.Context, imageURL string) (ProviderResponse, json.RawMessage, error)
}

// URLSigner turns a stored object key into a short-lived public URL.
type URLSigner interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Store is the persistence surface the review workflow needs.
type Store interface {
	GetByID(ctx context.Context, contentID int64) (model.Content, error)
	ResolvePending(ctx context.Context, contentID int64, decision enums.Decision, expertResponse string) (model.Content, error)
	ListPending(ctx context.Context) ([]pgrepo.PendingItem, error)
	AggregateStats(ctx context.Context) (pgrepo.StatsSnapshot, error)
}

type Service struct {
	store      Store
	texts      TextClassifier
	scorer     ToxicityScorer
	images     ImageChecker
	signer     URLSigner
	normalizer *Normalizer
}

type QueueItem struct {
	Content    model.Content
	OwnerEmail string
}

type Stats struct {
	Total       int
	Pending     int
	Done        int
	UnderReview int
	Approved    int
	Rejected    int
}

// AIResolution couples the updated record with the verdict that
// produced it.
type AIResolution struct {
	Content model.Content
	Verdict Verdict
}

func NewService(store Store, texts TextClassifier, scorer ToxicityScorer, images ImageChecker, signer URLSigner, normalizer *Normalizer) *Service {
	if normalizer == nil {
		normalizer = NewNormalizer(nil)
	}
	return &Service{
		store:      store,
		texts:      texts,
		scorer:     scorer,
		images:     images,
		signer:     signer,
		normalizer: normalizer,
	}
}

// ScoreText relays one ad-hoc text check to the toxicity provider and
// returns its response untouched.
func (s *Service) ScoreText(ctx context.Context, text string) (json.RawMessage, error) {
	if s.scorer == nil {
		return nil, ErrProvider
	}

	_, raw, err := s.scorer.ScoreText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	return raw, nil
}

// AIResolve runs the automated check for one pending record and stores
// the outcome. Only the owner or an admin may trigger it; the losing
// side of a concurrent resolution gets ErrAlreadyResolved.
func (s *Service) AIResolve(ctx context.Context, contentID, actorID int64, actorRole enums.Role) (AIResolution, error) {
	if s.store == nil {
		return AIResolution{}, fmt.Errorf("moderation service dependencies are not configured")
	}

	record, err := s.store.GetByID(ctx, contentID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrContentNotFound) {
			return AIResolution{}, ErrNotFound
		}
		return AIResolution{}, err
	}

	if record.UserID != actorID && actorRole != enums.RoleAdmin {
		return AIResolution{}, ErrForbidden
	}
	if record.Status != enums.StatusPending {
		return AIResolution{}, ErrAlreadyResolved
	}

	var (
		parsed ProviderResponse
		raw    json.RawMessage
	)
	switch {
	case record.IsText():
		parsed, raw, err = s.classifyText(ctx, *record.TextContent)
	case record.IsImage():
		parsed, raw, err = s.checkImage(ctx, *record.ImageKey)
	default:
		return AIResolution{}, fmt.Errorf("content %d has neither text nor image", record.ID)
	}
	if err != nil {
		return AIResolution{}, err
	}

	verdict := s.normalizer.Normalize(parsed)
	decision := enums.DecisionRejected
	if verdict.Safe() {
		decision = enums.DecisionApproved
	}

	updated, err := s.store.ResolvePending(ctx, record.ID, decision, expertResponsePrefix+string(raw))
	if err != nil {
		if errors.Is(err, pgrepo.ErrContentAlreadyResolved) {
			return AIResolution{}, ErrAlreadyResolved
		}
		if errors.Is(err, pgrepo.ErrContentNotFound) {
			return AIResolution{}, ErrNotFound
		}
		return AIResolution{}, err
	}

	return AIResolution{Content: updated, Verdict: verdict}, nil
}

// Review records an expert decision for one pending record.
func (s *Service) Review(ctx context.Context, contentID int64, decision enums.Decision, expertResponse string) (model.Content, error) {
	if s.store == nil {
		return model.Content{}, fmt.Errorf("moderation service dependencies are not configured")
	}
	if decision != enums.DecisionApproved && decision != enums.DecisionRejected {
		return model.Content{}, ErrInvalidDecision
	}

	updated, err := s.store.ResolvePending(ctx, contentID, decision, expertResponse)
	if err != nil {
		if errors.Is(err, pgrepo.ErrContentAlreadyResolved) {
			return model.Content{}, ErrAlreadyResolved
		}
		if errors.Is(err, pgrepo.ErrContentNotFound) {
			return model.Content{}, ErrNotFound
		}
		return model.Content{}, err
	}

	return updated, nil
}

// Queue lists pending records oldest first, so experts work in arrival
// order.
func (s *Service) Queue(ctx context.Context) ([]QueueItem, error) {
	if s.store == nil {
		return nil, fmt.Errorf("moderation service dependencies are not configured")
	}

	pending, err := s.store.ListPending(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]QueueItem, 0, len(pending))
	for _, p := range pending {
		items = append(items, QueueItem{Content: p.Content, OwnerEmail: p.OwnerEmail})
	}
	return items, nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	if s.store == nil {
		return Stats{}, fmt.Errorf("moderation service dependencies are not configured")
	}

	snapshot, err := s.store.AggregateStats(ctx)
	if err != nil {
		return Stats{}, err
	}

	return Stats{
		Total:       snapshot.Total,
		Pending:     snapshot.Pending,
		Done:        snapshot.Done,
		UnderReview: snapshot.UnderReview,
		Approved:    snapshot.Approved,
		Rejected:    snapshot.Rejected,
	}, nil
}

func (s *Service) classifyText(ctx context.Context, text string) (ProviderResponse, json.RawMessage, error) {
	if s.texts == nil {
		return nil, nil, ErrProvider
	}

	parsed, raw, err := s.texts.ClassifyText(ctx, text)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	return parsed, raw, nil
}

func (s *Service) checkImage(ctx context.Context, imageKey string) (ProviderResponse, json.RawMessage, error) {
	if s.images == nil || s.signer == nil {
		return nil, nil, ErrProvider
	}

	imageURL, err := s.signer.PresignGet(ctx, imageKey, signedURLTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("presign image for check: %w", err)
	}

	parsed, raw, err := s.images.CheckImageURL(ctx, imageURL)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	return parsed, raw, nil
}
