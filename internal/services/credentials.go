package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mazeed/internal/models"
	"github.com/desertthunder/mazeed/internal/shared"
	"golang.org/x/oauth2"
)

// CredentialStore is the durable home of the credential.
type CredentialStore interface {
	Load() (*models.Credential, error)
	Save(cred *models.Credential) error
	ClearAll() error
}

// Refresher exchanges a refresh token for a new credential.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*models.Credential, error)
}

// CredentialSourceOpts configures a [CredentialSource].
type CredentialSourceOpts struct {
	Store     CredentialStore
	Refresher Refresher
	// OnFailure runs after the credential is found missing or could not be refreshed.
	// Storage has already been cleared on refresh failure.
	OnFailure func(err error)
	Now       func() time.Time
	Logger    *log.Logger
}

// CredentialSource is an [oauth2.TokenSource] that reads the stored credential for
// every request and refreshes it at most once when it has expired.
type CredentialSource struct {
	mu        sync.Mutex
	ctx       context.Context
	store     CredentialStore
	refresher Refresher
	onFailure func(error)
	now       func() time.Time
	logger    *log.Logger
}

var _ oauth2.TokenSource = (*CredentialSource)(nil)

// NewCredentialSource creates a source. ctx bounds refresh calls.
func NewCredentialSource(ctx context.Context, opts CredentialSourceOpts) *CredentialSource {
	s := &CredentialSource{
		ctx:       ctx,
		store:     opts.Store,
		refresher: opts.Refresher,
		onFailure: opts.OnFailure,
		now:       opts.Now,
		logger:    opts.Logger,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	return s
}

// Token returns a bearer token for the next request.
func (s *CredentialSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, err := s.store.Load()
	if err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) {
			s.fail(err)
		}
		return nil, err
	}

	now := s.now()
	if !cred.Expired(now) {
		return bearer(cred), nil
	}

	s.logger.Debug("access token expired, refreshing", "expires_at", cred.Expiry())
	next, err := s.refresh(cred, now)
	if err != nil {
		if clearErr := s.store.ClearAll(); clearErr != nil {
			s.logger.Warn("failed to clear storage", "error", clearErr)
		}
		err = fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
		s.fail(err)
		return nil, err
	}
	return bearer(next), nil
}

func (s *CredentialSource) refresh(cred *models.Credential, now time.Time) (*models.Credential, error) {
	if cred.RefreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}

	next, err := s.refresher.Refresh(s.ctx, cred.RefreshToken)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return nil, shared.ErrAuthFailed
	}
	next.Merge(cred)

	if next.Expired(now) {
		return nil, shared.ErrTokenExpired
	}
	if err := s.store.Save(next); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *CredentialSource) fail(err error) {
	if s.onFailure != nil {
		s.onFailure(err)
	}
}

func bearer(cred *models.Credential) *oauth2.Token {
	return &oauth2.Token{AccessToken: cred.AccessToken, TokenType: "Bearer", Expiry: cred.Expiry()}
}

// NewAuthorizedClient returns a client that attaches the bearer token from src to every request.
//
// The transport consults src on each request; it is not wrapped in a reusing
// source, so a logout or refresh takes effect on the very next call.
func NewAuthorizedClient(src oauth2.TokenSource, base *http.Client) *http.Client {
	if base == nil {
		base = http.DefaultClient
	}
	return &http.Client{
		Transport:     &oauth2.Transport{Source: src, Base: base.Transport},
		CheckRedirect: base.CheckRedirect,
		Jar:           base.Jar,
		Timeout:       base.Timeout,
	}
}
