package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

const googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// googleEndpoint is spelled out here so the oauth2 package stays the
// only Google dependency.
var googleEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

// GoogleOAuth drives the authorization-code flow against Google and
// exchanges the resulting profile for a local account.
type GoogleOAuth struct {
	config      *oauth2.Config
	userinfoURL string
	store       UserStore
	jwt         *JWTManager
}

type googleUserinfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func NewGoogleOAuth(clientID, clientSecret, redirectURL string, store UserStore, jwt *JWTManager) *GoogleOAuth {
	return &GoogleOAuth{
		config: &oauth2.Config{
			ClientID:     strings.TrimSpace(clientID),
			ClientSecret: strings.TrimSpace(clientSecret),
			RedirectURL:  strings.TrimSpace(redirectURL),
			Scopes:       []string{"profile", "email"},
			Endpoint:     googleEndpoint,
		},
		userinfoURL: googleUserinfoURL,
		store:       store,
		jwt:         jwt,
	}
}

func (g *GoogleOAuth) IsConfigured() bool {
	return g != nil && g.config.ClientID != "" && g.config.ClientSecret != "" && g.config.RedirectURL != ""
}

// AuthCodeURL builds the consent-screen redirect for one login attempt.
func (g *GoogleOAuth) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the callback code for a Google profile and signs the
// matching local account in, creating it on first contact.
func (g *GoogleOAuth) Exchange(ctx context.Context, code string) (AuthResult, error) {
	if !g.IsConfigured() || g.store == nil || g.jwt == nil {
		return AuthResult{}, fmt.Errorf("google oauth is not configured")
	}
	if strings.TrimSpace(code) == "" {
		return AuthResult{}, ErrInvalidInput
	}

	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return AuthResult{}, fmt.Errorf("exchange authorization code: %w", err)
	}

	info, err := g.fetchUserinfo(ctx, token)
	if err != nil {
		return AuthResult{}, err
	}
	if info.ID == "" || info.Email == "" {
		return AuthResult{}, fmt.Errorf("google userinfo is incomplete")
	}

	user, err := g.store.GetOrCreateByGoogleID(ctx, info.ID, info.Email, info.Name)
	if err != nil {
		return AuthResult{}, fmt.Errorf("get or create google user: %w", err)
	}

	svc := &Service{store: g.store, jwt: g.jwt}
	return svc.issue(user)
}

func (g *GoogleOAuth) fetchUserinfo(ctx context.Context, token *oauth2.Token) (googleUserinfo, error) {
	client := g.config.Client(ctx, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userinfoURL, nil)
	if err != nil {
		return googleUserinfo{}, fmt.Errorf("create userinfo request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return googleUserinfo{}, fmt.Errorf("fetch google userinfo: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return googleUserinfo{}, fmt.Errorf("read userinfo response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return googleUserinfo{}, fmt.Errorf("unexpected userinfo status: %d", resp.StatusCode)
	}

	var info googleUserinfo
	if err := json.Unmarshal(body, &info); err != nil {
		return googleUserinfo{}, fmt.Errorf("decode userinfo response: %w", err)
	}
	return info, nil
}
