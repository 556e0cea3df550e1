package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Taniishaaa/censor-pro/internal/domain/enums"
	"github.com/Taniishaaa/censor-pro/internal/domain/model"
	authsvc "github.com/Taniishaaa/censor-pro/internal/services/auth"
	modsvc "github.com/Taniishaaa/censor-pro/internal/services/moderation"
	ratesvc "github.com/Taniishaaa/censor-pro/internal/services/rate"
	"github.com/Taniishaaa/censor-pro/internal/transport/http/dto"
)

type stubScorer struct {
	raw string
}

func (s *stubScorer) ScoreText(context.Context, string) (modsvc.ProviderResponse, json.RawMessage, error) {
	return modsvc.ToxicityScores{Safe: 0.9}, json.RawMessage(s.raw), nil
}

type stubClassifier struct {
	resp modsvc.ProviderResponse
	raw  string
}

func (s *stubClassifier) ClassifyText(context.Context, string) (modsvc.ProviderResponse, json.RawMessage, error) {
	return s.resp, json.RawMessage(s.raw), nil
}

type stubWindowStore struct {
	count int64
}

func (s *stubWindowStore) IncrementWindow(context.Context, string, time.Duration) (int64, time.Duration, error) {
	s.count++
	return s.count, 10 * time.Second, nil
}

func withIdentity(req *http.Request, userID int64, role enums.Role) *http.Request {
	return req.WithContext(authsvc.WithIdentity(req.Context(), authsvc.Identity{
		UserID: userID,
		Email:  "u@example.com",
		Role:   role,
	}))
}

func TestModerateTextReturnsRawProviderBody(t *testing.T) {
	raw := `{"data":[{"safe":0.9,"toxic":0.1}]}`
	service := modsvc.NewService(nil, nil, &stubScorer{raw: raw}, nil, nil, nil)
	handler := NewModerationHandler(service, nil)

	req := httptest.NewRequest(http.MethodPost, "/content/moderate/text", strings.NewReader(`{"text":"hello"}`))
	req = withIdentity(req, 42, enums.RoleUser)
	rr := httptest.NewRecorder()
	handler.ModerateText(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d body=%s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp dto.ModerateTextResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if string(resp.Result) != raw {
		t.Fatalf("result = %s, want untouched provider body", resp.Result)
	}
}

func TestModerateTextRequiresAuthAndText(t *testing.T) {
	service := modsvc.NewService(nil, nil, &stubScorer{raw: `{}`}, nil, nil, nil)
	handler := NewModerationHandler(service, nil)

	req := httptest.NewRequest(http.MethodPost, "/content/moderate/text", strings.NewReader(`{"text":"hello"}`))
	rr := httptest.NewRecorder()
	handler.ModerateText(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status without identity: got=%d want=%d", rr.Code, http.StatusUnauthorized)
	}

	req = httptest.NewRequest(http.MethodPost, "/content/moderate/text", strings.NewReader(`{"text":"  "}`))
	req = withIdentity(req, 42, enums.RoleUser)
	rr = httptest.NewRecorder()
	handler.ModerateText(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status for blank text: got=%d want=%d", rr.Code, http.StatusBadRequest)
	}
}

func TestModerateTextRateLimited(t *testing.T) {
	service := modsvc.NewService(nil, nil, &stubScorer{raw: `{}`}, nil, nil, nil)
	limiter := ratesvc.NewLimiter(&stubWindowStore{}, 0, 1)
	handler := NewModerationHandler(service, limiter)

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/content/moderate/text", strings.NewReader(`{"text":"hello"}`))
		req = withIdentity(req, 42, enums.RoleUser)
		rr := httptest.NewRecorder()
		handler.ModerateText(rr, req)

		if rr.Code != want {
			t.Fatalf("call #%d: got=%d want=%d", i+1, rr.Code, want)
		}
		if want == http.StatusTooManyRequests {
			var resp struct {
				RetryAfterSec int64 `json:"retry_after_sec"`
			}
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.RetryAfterSec <= 0 {
				t.Fatalf("retry_after_sec = %d, want positive", resp.RetryAfterSec)
			}
		}
	}
}

func TestAIResolveEndpoint(t *testing.T) {
	store := &stubContentStore{records: map[int64]model.Content{
		7: textRecord(7, 42, "I will hurt you", enums.StatusPending),
	}}
	classifier := &stubClassifier{
		resp: modsvc.ToxicityScores{Safe: 0.1, Threat: 0.8},
		raw:  `{"safe":0.1,"threat":0.8}`,
	}
	service := modsvc.NewService(store, classifier, nil, nil, nil, nil)
	handler := NewModerationHandler(service, nil)

	r := chi.NewRouter()
	r.Post("/content/moderate/ai/{id}", handler.AIResolve)

	req := httptest.NewRequest(http.MethodPost, "/content/moderate/ai/7", nil)
	req = withIdentity(req, 42, enums.RoleUser)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d body=%s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp dto.AIResolveResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Verdict.Label != "unsafe" {
		t.Fatalf("verdict = %q, want unsafe", resp.Verdict.Label)
	}
	if resp.Content.Decision == nil || *resp.Content.Decision != "rejected" {
		t.Fatalf("decision = %v, want rejected", resp.Content.Decision)
	}
	if len(resp.Verdict.Evidence) != 1 || resp.Verdict.Evidence[0].Category != "threat" {
		t.Fatalf("evidence = %+v, want threat", resp.Verdict.Evidence)
	}
}

func TestAIResolveForeignContentForbidden(t *testing.T) {
	store := &stubContentStore{records: map[int64]model.Content{
		7: textRecord(7, 1, "hello", enums.StatusPending),
	}}
	classifier := &stubClassifier{resp: modsvc.LabelScore{Label: "safe", Score: 1}, raw: `{}`}
	service := modsvc.NewService(store, classifier, nil, nil, nil, nil)
	handler := NewModerationHandler(service, nil)

	r := chi.NewRouter()
	r.Post("/content/moderate/ai/{id}", handler.AIResolve)

	req := httptest.NewRequest(http.MethodPost, "/content/moderate/ai/7", nil)
	req = withIdentity(req, 99, enums.RoleUser)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("unexpected status: got=%d want=%d", rr.Code, http.StatusForbidden)
	}
}
