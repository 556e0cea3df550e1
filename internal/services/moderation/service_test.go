package moderation

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Taniishaaa/censor-pro/internal/domain/enums"
	"github.com/Taniishaaa/censor-pro/internal/domain/model"
	pgrepo "github.com/Taniishaaa/censor-pro/internal/repo/postgres"
)

type fakeStore struct {
	records map[int64]model.Content
	pending []pgrepo.PendingItem
	stats   pgrepo.StatsSnapshot

	resolveCalls   int
	lastDecision   enums.Decision
	lastExpertNote string
	resolveErr     error
}

func (f *fakeStore) GetByID(_ context.Context, contentID int64) (model.Content, error) {
	record, ok := f.records[contentID]
	if !ok {
		return model.Content{}, pgrepo.ErrContentNotFound
	}
	return record, nil
}

func (f *fakeStore) ResolvePending(_ context.Context, contentID int64, decision enums.Decision, expertResponse string) (model.Content, error) {
	f.resolveCalls++
	f.lastDecision = decision
	f.lastExpertNote = expertResponse
	if f.resolveErr != nil {
		return model.Content{}, f.resolveErr
	}

	record, ok := f.records[contentID]
	if !ok {
		return model.Content{}, pgrepo.ErrContentNotFound
	}
	if record.Status != enums.StatusPending {
		return model.Content{}, pgrepo.ErrContentAlreadyResolved
	}

	record.Status = enums.StatusDone
	record.Decision = decision
	record.ExpertResponse = &expertResponse
	f.records[contentID] = record
	return record, nil
}

func (f *fakeStore) ListPending(_ context.Context) ([]pgrepo.PendingItem, error) {
	return f.pending, nil
}

func (f *fakeStore) AggregateStats(_ context.Context) (pgrepo.StatsSnapshot, error) {
	return f.stats, nil
}

type fakeClassifier struct {
	resp ProviderResponse
	raw  string
	err  error
}

func (f *fakeClassifier) ClassifyText(context.Context, string) (ProviderResponse, json.RawMessage, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.resp, json.RawMessage(f.raw), nil
}

func (f *fakeClassifier) ScoreText(context.Context, string) (ProviderResponse, json.RawMessage, error) {
	return f.ClassifyText(context.Background(), "")
}

type fakeImageChecker struct {
	resp   ProviderResponse
	raw    string
	err    error
	gotURL string
}

func (f *fakeImageChecker) CheckImageURL(_ context.Context, imageURL string) (ProviderResponse, json.RawMessage, error) {
	f.gotURL = imageURL
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.resp, json.RawMessage(f.raw), nil
}

type fakeSigner struct {
	url string
	err error
}

func (f *fakeSigner) PresignGet(context.Context, string, time.Duration) (string, error) {
	return f.url, f.err
}

func strptr(s string) *string { return &s }

func pendingText(id, userID int64, text string) model.Content {
	return model.Content{ID: id, UserID: userID, TextContent: strptr(text), Status: enums.StatusPending}
}

func TestAIResolveApprovesSafeText(t *testing.T) {
	store := &fakeStore{records: map[int64]model.Content{7: pendingText(7, 42, "hello world")}}
	texts := &fakeClassifier{resp: LabelScore{Label: "safe", Score: 0.97}, raw: `[{"label":"safe","score":0.97}]`}
	svc := NewService(store, texts, nil, nil, nil, nil)

	res, err := svc.AIResolve(context.Background(), 7, 42, enums.RoleUser)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Content.Decision != enums.DecisionApproved {
		t.Fatalf("decision = %q, want approved", res.Content.Decision)
	}
	if res.Content.Status != enums.StatusDone {
		t.Fatalf("status = %q, want done", res.Content.Status)
	}
	if !res.Verdict.Safe() {
		t.Fatalf("verdict = %q, want safe", res.Verdict.Label)
	}
	want := `AI Model Output: [{"label":"safe","score":0.97}]`
	if store.lastExpertNote != want {
		t.Fatalf("expert note = %q, want %q", store.lastExpertNote, want)
	}
}

func TestAIResolveRejectsThreateningText(t *testing.T) {
	store := &fakeStore{records: map[int64]model.Content{3: pendingText(3, 42, "I will hurt you")}}
	texts := &fakeClassifier{
		resp: ToxicityScores{Safe: 0.1, Toxic: 0.7, Threat: 0.8},
		raw:  `{"safe":0.1,"toxic":0.7,"threat":0.8}`,
	}
	svc := NewService(store, texts, nil, nil, nil, nil)

	res, err := svc.AIResolve(context.Background(), 3, 42, enums.RoleUser)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Content.Decision != enums.DecisionRejected {
		t.Fatalf("decision = %q, want rejected", res.Content.Decision)
	}
	if len(res.Verdict.Evidence) != 2 || res.Verdict.Evidence[1].Category != CategoryThreat {
		t.Fatalf("evidence = %v, want toxic then threat", res.Verdict.Evidence)
	}
	if !strings.HasPrefix(store.lastExpertNote, "AI Model Output: ") {
		t.Fatalf("expert note missing prefix: %q", store.lastExpertNote)
	}
}

func TestAIResolveChecksImageThroughSignedURL(t *testing.T) {
	store := &fakeStore{records: map[int64]model.Content{
		9: {ID: 9, UserID: 5, ImageKey: strptr("content/5/abc.png"), Status: enums.StatusPending},
	}}
	images := &fakeImageChecker{
		resp: AttributeReport{Nudity: NudityScores{Partial: 0.9}},
		raw:  `{"nudity":{"partial":0.9}}`,
	}
	signer := &fakeSigner{url: "https://cdn.example.com/signed/abc.png"}
	svc := NewService(store, nil, nil, images, signer, nil)

	res, err := svc.AIResolve(context.Background(), 9, 5, enums.RoleUser)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if images.gotURL != signer.url {
		t.Fatalf("checked url = %q, want signed url", images.gotURL)
	}
	if res.Content.Decision != enums.DecisionRejected {
		t.Fatalf("decision = %q, want rejected", res.Content.Decision)
	}
}

func TestAIResolveOwnership(t *testing.T) {
	store := &fakeStore{records: map[int64]model.Content{7: pendingText(7, 42, "hi")}}
	texts := &fakeClassifier{resp: LabelScore{Label: "safe", Score: 1}, raw: `{}`}
	svc := NewService(store, texts, nil, nil, nil, nil)

	if _, err := svc.AIResolve(context.Background(), 7, 99, enums.RoleUser); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	if store.resolveCalls != 0 {
		t.Fatal("resolve must not run for a foreign record")
	}

	if _, err := svc.AIResolve(context.Background(), 7, 99, enums.RoleAdmin); err != nil {
		t.Fatalf("admin resolve failed: %v", err)
	}
}

func TestAIResolveErrors(t *testing.T) {
	t.Run("unknown id", func(t *testing.T) {
		svc := NewService(&fakeStore{records: map[int64]model.Content{}}, nil, nil, nil, nil, nil)
		if _, err := svc.AIResolve(context.Background(), 1, 1, enums.RoleUser); !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("already resolved record", func(t *testing.T) {
		record := pendingText(4, 1, "hi")
		record.Status = enums.StatusDone
		svc := NewService(&fakeStore{records: map[int64]model.Content{4: record}}, nil, nil, nil, nil, nil)
		if _, err := svc.AIResolve(context.Background(), 4, 1, enums.RoleUser); !errors.Is(err, ErrAlreadyResolved) {
			t.Fatalf("err = %v, want ErrAlreadyResolved", err)
		}
	})

	t.Run("lost race at resolve", func(t *testing.T) {
		store := &fakeStore{
			records:    map[int64]model.Content{4: pendingText(4, 1, "hi")},
			resolveErr: pgrepo.ErrContentAlreadyResolved,
		}
		texts := &fakeClassifier{resp: LabelScore{Label: "safe", Score: 1}, raw: `{}`}
		svc := NewService(store, texts, nil, nil, nil, nil)
		if _, err := svc.AIResolve(context.Background(), 4, 1, enums.RoleUser); !errors.Is(err, ErrAlreadyResolved) {
			t.Fatalf("err = %v, want ErrAlreadyResolved", err)
		}
	})

	t.Run("provider failure leaves record pending", func(t *testing.T) {
		store := &fakeStore{records: map[int64]model.Content{4: pendingText(4, 1, "hi")}}
		texts := &fakeClassifier{err: errors.New("upstream 503")}
		svc := NewService(store, texts, nil, nil, nil, nil)
		if _, err := svc.AIResolve(context.Background(), 4, 1, enums.RoleUser); !errors.Is(err, ErrProvider) {
			t.Fatalf("err = %v, want ErrProvider", err)
		}
		if store.resolveCalls != 0 {
			t.Fatal("resolve must not run after a provider failure")
		}
	})
}

func TestReview(t *testing.T) {
	store := &fakeStore{records: map[int64]model.Content{7: pendingText(7, 42, "hi")}}
	svc := NewService(store, nil, nil, nil, nil, nil)

	updated, err := svc.Review(context.Background(), 7, enums.DecisionRejected, "manual: hate speech")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Decision != enums.DecisionRejected || updated.Status != enums.StatusDone {
		t.Fatalf("record = %+v, want rejected/done", updated)
	}

	if _, err := svc.Review(context.Background(), 7, enums.DecisionApproved, ""); !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("second review err = %v, want ErrAlreadyResolved", err)
	}

	if _, err := svc.Review(context.Background(), 7, enums.Decision("maybe"), ""); !errors.Is(err, ErrInvalidDecision) {
		t.Fatalf("err = %v, want ErrInvalidDecision", err)
	}
}

func TestScoreTextPassesRawThrough(t *testing.T) {
	raw := `{"data":[{"safe":0.9,"toxic":0.1}]}`
	scorer := &fakeClassifier{resp: ToxicityScores{Safe: 0.9, Toxic: 0.1}, raw: raw}
	svc := NewService(nil, nil, scorer, nil, nil, nil)

	got, err := svc.ScoreText(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != raw {
		t.Fatalf("raw = %s, want untouched provider body", got)
	}

	svc = NewService(nil, nil, &fakeClassifier{err: errors.New("timeout")}, nil, nil, nil)
	if _, err := svc.ScoreText(context.Background(), "hello"); !errors.Is(err, ErrProvider) {
		t.Fatalf("err = %v, want ErrProvider", err)
	}
}

func TestQueueAndStats(t *testing.T) {
	store := &fakeStore{
		pending: []pgrepo.PendingItem{
			{Content: pendingText(1, 2, "oldest"), OwnerEmail: "a@example.com"},
			{Content: pendingText(2, 3, "newest"), OwnerEmail: "b@example.com"},
		},
		stats: pgrepo.StatsSnapshot{Total: 10, Pending: 2, Done: 8, Approved: 5, Rejected: 3},
	}
	svc := NewService(store, nil, nil, nil, nil, nil)

	queue, err := svc.Queue(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(queue) != 2 || queue[0].Content.ID != 1 || queue[0].OwnerEmail != "a@example.com" {
		t.Fatalf("queue = %+v, want oldest first with owner email", queue)
	}

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Total != 10 || stats.Approved != 5 || stats.Rejected != 3 {
		t.Fatalf("stats = %+v", stats)
	}
}
