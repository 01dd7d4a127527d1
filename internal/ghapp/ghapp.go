// Package ghapp authenticates as a GitHub App: it signs the short-lived app
// assertion and exchanges it for an installation access token.
package ghapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	gh "github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"

	"github.com/garrettladley/checkrun/internal/client/github"
	"github.com/garrettladley/checkrun/internal/secret"
	"github.com/garrettladley/checkrun/internal/xslog"
)

const (
	// backdate absorbs clock drift between us and GitHub
	assertionBackdate = 60 * time.Second
	assertionLifetime = 180 * time.Second
)

var (
	ErrInvalidPrivateKey = errors.New("invalid app private key")
	ErrMissingAppID      = errors.New("missing app id")
	ErrTokenExchange     = errors.New("installation token exchange failed")
)

// TokenExchangeError carries what GitHub said when it refused the exchange.
// StatusCode is 0 when no response was received.
type TokenExchangeError struct {
	InstallationID int64
	StatusCode     int
	Message        string
	Err            error
}

func (e *TokenExchangeError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("installation %d token exchange: %d %s", e.InstallationID, e.StatusCode, msg)
	}
	return fmt.Sprintf("installation %d token exchange: %s", e.InstallationID, msg)
}

func (e *TokenExchangeError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTokenExchange}
	}
	return []error{ErrTokenExchange, e.Err}
}

type Issuer struct {
	client *github.Client
	now    func() time.Time
}

type Option func(*Issuer)

// WithClock replaces time.Now. The clock is read on every call.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

func NewIssuer(client *github.Client, opts ...Option) *Issuer {
	i := &Issuer{client: client, now: time.Now}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// CreateAssertion signs an RS256 JWT with iss set to appID. The token is
// valid from one minute in the past for exactly three minutes.
func (i *Issuer) CreateAssertion(appID string, privateKeyPEM string) (string, error) {
	if appID == "" {
		return "", ErrMissingAppID
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(normalizePEM(privateKeyPEM)))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidPrivateKey, err)
	}

	iat := i.now().Add(-assertionBackdate).Truncate(time.Second)
	claims := jwt.RegisteredClaims{
		Issuer:    appID,
		IssuedAt:  jwt.NewNumericDate(iat),
		ExpiresAt: jwt.NewNumericDate(iat.Add(assertionLifetime)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("failed to sign app assertion: %w", err)
	}
	return signed, nil
}

// ExchangeForInstallationToken trades an app assertion for an access token
// scoped to one installation. It never returns an empty token without an error.
func (i *Issuer) ExchangeForInstallationToken(ctx context.Context, installationID int64, assertion string) (*oauth2.Token, error) {
	resp, err := i.client.Send(ctx, github.Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/app/installations/%d/access_tokens", installationID),
		Token:  oauth2.StaticTokenSource(&oauth2.Token{AccessToken: assertion, TokenType: "Bearer"}),
	})
	if err != nil {
		exchangeErr := &TokenExchangeError{InstallationID: installationID, Err: err}
		var apiErr *github.APIError
		if errors.As(err, &apiErr) {
			exchangeErr.StatusCode = apiErr.StatusCode
			exchangeErr.Message = apiErr.Message
		}
		return nil, exchangeErr
	}

	var body gh.InstallationToken
	if err := resp.Decode(&body); err != nil {
		return nil, &TokenExchangeError{InstallationID: installationID, StatusCode: resp.StatusCode, Err: err}
	}
	if body.GetToken() == "" {
		return nil, &TokenExchangeError{
			InstallationID: installationID,
			StatusCode:     resp.StatusCode,
			Message:        "response carried no token",
		}
	}

	tok := &oauth2.Token{
		AccessToken: body.GetToken(),
		TokenType:   "Bearer",
		Expiry:      body.GetExpiresAt().Time,
	}

	xslog.FromContext(ctx).DebugContext(ctx, "issued installation token",
		xslog.InstallationID(installationID),
		xslog.Expiry(tok.Expiry),
	)
	return tok, nil
}

// InstallationToken mints a fresh assertion from creds and exchanges it.
func (i *Issuer) InstallationToken(ctx context.Context, creds secret.Credentials, installationID int64) (*oauth2.Token, error) {
	assertion, err := i.CreateAssertion(creds.AppID, creds.PrivateKey)
	if err != nil {
		return nil, &TokenExchangeError{InstallationID: installationID, Err: err}
	}
	return i.ExchangeForInstallationToken(ctx, installationID, assertion)
}

// normalizePEM restores newlines in keys stored as a single line with
// literal \n escapes.
func normalizePEM(s string) string {
	if strings.Contains(s, "\n") {
		return s
	}
	return strings.ReplaceAll(s, `\n`, "\n")
}
