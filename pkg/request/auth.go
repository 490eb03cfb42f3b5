package request

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Auth decorates outgoing requests with credentials.
type Auth interface {
	Apply(ctx context.Context, req *http.Request) error
}

// BearerAuth sends "Authorization: Bearer <token>".
type BearerAuth struct {
	Token string
}

func (a BearerAuth) Apply(_ context.Context, req *http.Request) error {
	if a.Token == "" {
		return fmt.Errorf("bearer auth: token is empty")
	}
	req.Header.Set("Authorization", "Bearer "+a.Token)
	return nil
}

// BasicAuth sends HTTP Basic credentials.
type BasicAuth struct {
	Username string
	Password string
}

func (a BasicAuth) Apply(_ context.Context, req *http.Request) error {
	if a.Username == "" {
		return fmt.Errorf("basic auth: username is empty")
	}
	req.SetBasicAuth(a.Username, a.Password)
	return nil
}

// ClientCredentialsAuth obtains a token with the OAuth2 client credentials
// flow and reuses it until it expires.
type ClientCredentialsAuth struct {
	Config clientcredentials.Config

	mu    sync.Mutex
	token *oauth2.Token
}

// NewClientCredentialsAuth builds an OAuth2 client credentials authenticator.
// scopes is a space separated list and may be empty.
func NewClientCredentialsAuth(clientID, clientSecret, tokenURL, scopes string) (*ClientCredentialsAuth, error) {
	if clientID == "" || clientSecret == "" || tokenURL == "" {
		return nil, fmt.Errorf("oauth2 requires client_id, client_secret and token_url")
	}
	return &ClientCredentialsAuth{
		Config: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			Scopes:       strings.Fields(scopes),
		},
	}, nil
}

func (a *ClientCredentialsAuth) Apply(ctx context.Context, req *http.Request) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.token.Valid() {
		tok, err := a.Config.Token(ctx)
		if err != nil {
			return fmt.Errorf("failed to retrieve OAuth2 token: %w", err)
		}
		a.token = tok
	}
	a.token.SetAuthHeader(req)
	return nil
}
