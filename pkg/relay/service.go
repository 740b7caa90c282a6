// Package relay implements the correlation-handle protocol that links the
// three phases of a brokered OAuth login: initiation, the provider's
// redirect callback, and the plugin's token poll. The protocol keeps no
// in-process state; every handle lives in the injected store under a TTL,
// and expiry is the only cleanup.
package relay

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"

	"github.com/go-training/oauth-relay/pkg/config"
	"github.com/go-training/oauth-relay/pkg/core"
	"github.com/go-training/oauth-relay/pkg/exchange"
)

const (
	// ticketPrefix namespaces the pending-login tickets: the value under
	// "readKey:{writeKey}" is the readKey the initiating client holds.
	ticketPrefix = "readKey:"
	// tokensPrefix namespaces parked token bundles, keyed by readKey.
	tokensPrefix = "tokens:"

	// ticketTTL bounds how long the provider has to call back.
	ticketTTL = 60 * time.Second
	// tokensTTL bounds how long the plugin has to poll.
	tokensTTL = 300 * time.Second
)

// Exchanger performs a single form-encoded token-endpoint POST and returns
// the raw upstream status and body.
type Exchanger interface {
	Exchange(ctx context.Context, endpoint string, params url.Values) (*exchange.Result, error)
}

// InitiateResult is the JSON payload handed back to the initiating client.
type InitiateResult struct {
	URL     string `json:"url"`
	ReadKey string `json:"readKey"`
}

// Service is the correlation protocol. All methods are stateless apart from
// their store interaction, so a Service is safe for concurrent use.
type Service struct {
	cfg       config.Config
	store     core.Store
	exchanger Exchanger
}

// NewService wires the protocol to its store and exchange client.
func NewService(cfg config.Config, store core.Store, exchanger Exchanger) *Service {
	return &Service{
		cfg:       cfg,
		store:     store,
		exchanger: exchanger,
	}
}

// Initiate starts a login flow: it generates the two correlation handles,
// parks the ticket, and builds the provider authorization URL carrying the
// writeKey as the OAuth state parameter.
func (s *Service) Initiate(ctx context.Context) (*InitiateResult, error) {
	readKey := newHandle()
	writeKey := newHandle()
	recordAttributes(ctx, attribute.String("relay.op", "initiate"))

	conf := oauth2.Config{
		ClientID:    s.cfg.ClientID,
		RedirectURL: s.cfg.RedirectURI,
		Scopes:      strings.Fields(s.cfg.Scope),
		Endpoint: oauth2.Endpoint{
			AuthURL: s.cfg.AuthorizeEndpoint,
		},
	}
	authorizeURL := conf.AuthCodeURL(writeKey)

	if err := s.store.Put(ctx, ticketPrefix+writeKey, readKey, ticketTTL); err != nil {
		return nil, errInfrastructure("store ticket", err)
	}

	core.LoggerFromCtx(ctx).Debug("login flow initiated")
	return &InitiateResult{
		URL:     authorizeURL,
		ReadKey: readKey,
	}, nil
}

// CompleteCallback handles the provider redirect: it resolves the state back
// to a readKey, exchanges the authorization code for tokens, and parks the
// bundle for the poller. The ticket lookup happens before the exchange so an
// invalid state never costs a provider round-trip. The consumed ticket is
// not deleted; it lapses with its own TTL.
func (s *Service) CompleteCallback(ctx context.Context, code, state string) error {
	if code == "" {
		return errMissingParameter("code")
	}
	if state == "" {
		return errMissingParameter("state")
	}
	recordAttributes(ctx, attribute.String("relay.op", "callback"))

	readKey, err := s.store.Get(ctx, ticketPrefix+state)
	if err != nil {
		if errors.Is(err, core.ErrKeyNotFound) {
			return errUnknownState()
		}
		return errInfrastructure("lookup ticket", err)
	}

	result, err := s.exchanger.Exchange(ctx, s.cfg.TokenEndpoint, url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {s.cfg.ClientID},
		"client_secret": {s.cfg.ClientSecret},
		"redirect_uri":  {s.cfg.RedirectURI},
	})
	if err != nil {
		return errInfrastructure("token exchange", err)
	}
	if !result.OK() {
		core.LoggerFromCtx(ctx).Warn("token exchange rejected upstream",
			slog.Int("status", result.Status))
		return errUpstream(result.Status, result.Body)
	}

	if err := s.store.Put(ctx, tokensPrefix+readKey, string(result.Body), tokensTTL); err != nil {
		return errInfrastructure("store token bundle", err)
	}

	core.LoggerFromCtx(ctx).Info("token bundle parked for poll")
	return nil
}

// Poll delivers a parked token bundle at most once: it fetches
// tokens:{readKey} and deletes the key before returning the value. Absence
// is the expected outcome while the login is still in flight and maps to
// KindNotFound. Concurrent polls for one readKey are outside the usage
// contract; no lock guards the fetch-then-delete pair.
func (s *Service) Poll(ctx context.Context, readKey string) ([]byte, error) {
	if readKey == "" {
		return nil, errMissingParameter("readKey")
	}
	recordAttributes(ctx, attribute.String("relay.op", "poll"))

	bundle, err := s.store.Get(ctx, tokensPrefix+readKey)
	if err != nil {
		if errors.Is(err, core.ErrKeyNotFound) {
			return nil, errNotFound()
		}
		return nil, errInfrastructure("fetch token bundle", err)
	}

	if err := s.store.Delete(ctx, tokensPrefix+readKey); err != nil && !errors.Is(err, core.ErrKeyNotFound) {
		return nil, errInfrastructure("consume token bundle", err)
	}

	core.LoggerFromCtx(ctx).Info("token bundle delivered")
	return []byte(bundle), nil
}

// RefreshTokens exchanges a refresh token for a fresh bundle. The operation
// is stateless: nothing is read from or written to the store.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) ([]byte, error) {
	if refreshToken == "" {
		return nil, errMissingParameter("code")
	}
	recordAttributes(ctx, attribute.String("relay.op", "refresh"))

	result, err := s.exchanger.Exchange(ctx, s.cfg.TokenEndpoint, url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {s.cfg.ClientID},
		"client_secret": {s.cfg.ClientSecret},
		"redirect_uri":  {s.cfg.RedirectURI},
	})
	if err != nil {
		return nil, errInfrastructure("token refresh", err)
	}
	if !result.OK() {
		return nil, errUpstream(result.Status, result.Body)
	}

	return result.Body, nil
}
