package calendar

import (
	"context"
	"errors"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/gmail/v1"
)

// ErrNotConnected is returned when no owner token is stored.
var ErrNotConnected = errors.New("google account not connected")

// Auth owns the Google OAuth2 configuration and the stored owner token.
// Refresh is delegated to the oauth2 token source; refreshed tokens are
// persisted so a restart does not force a new consent flow.
type Auth struct {
	cfg   *oauth2.Config
	store *TokenStore
}

func NewAuth(clientID, clientSecret, redirectURL string, store *TokenStore) *Auth {
	return &Auth{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				gcal.CalendarScope,
				gcal.CalendarEventsScope,
				gmail.GmailSendScope,
			},
			Endpoint: google.Endpoint,
		},
		store: store,
	}
}

// Configured reports whether OAuth client credentials are present.
func (a *Auth) Configured() bool {
	return a.cfg.ClientID != "" && a.cfg.ClientSecret != ""
}

// Connected reports whether a usable owner token is stored.
func (a *Auth) Connected() bool {
	tok := a.store.Load()
	return tok != nil && tok.AccessToken != ""
}

// AuthURL builds the consent URL requesting offline access.
func (a *Auth) AuthURL(state string) string {
	return a.cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"))
}

// Exchange trades the callback code for tokens and stores them.
func (a *Auth) Exchange(ctx context.Context, code string) error {
	tok, err := a.cfg.Exchange(ctx, code)
	if err != nil {
		return err
	}
	a.store.Save(tok)
	return nil
}

// Disconnect drops the stored token.
func (a *Auth) Disconnect() {
	a.store.Clear()
}

// TokenSource returns a refreshing token source that writes refreshed
// credentials back to the store.
func (a *Auth) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	tok := a.store.Load()
	if tok == nil || tok.AccessToken == "" {
		return nil, ErrNotConnected
	}
	return &persistingSource{
		base:  a.cfg.TokenSource(ctx, tok),
		store: a.store,
		last:  tok.AccessToken,
	}, nil
}

type persistingSource struct {
	base  oauth2.TokenSource
	store *TokenStore
	last  string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != p.last {
		p.last = tok.AccessToken
		p.store.Save(tok)
	}
	return tok, nil
}
