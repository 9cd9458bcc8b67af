package listing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"resale/monitor/internal/config"
	"resale/monitor/internal/domain"
	"resale/monitor/internal/secrets"

	"github.com/benbjohnson/clock"
	log "github.com/sirupsen/logrus"
	"resty.dev/v3"
)

// TokenProvider yields a bearer access token for one destination-side user
// account.
type TokenProvider interface {
	AccessToken(ctx context.Context, appKeyParam, userTokenParam string, sandbox bool) (string, error)
}

type appKey struct {
	ClientID     string `json:"Client ID"`
	ClientSecret string `json:"Client Secret"`
}

type accessToken struct {
	Value     string `json:"value"`
	ExpiresAt int64  `json:"expiresAt"` // unix milliseconds
}

type tokenBundle struct {
	RefreshToken string      `json:"refreshToken"`
	AccessToken  accessToken `json:"accessToken"`
}

// TokenSource caches app credentials for the process lifetime and refreshes
// user access tokens through the OAuth refresh flow when their remaining
// lifetime drops under the safety margin. The refresh token itself is read
// fresh from the secret store on every call since it may rotate.
type TokenSource struct {
	secrets         secrets.Store
	httpClient      *resty.Client
	clock           clock.Clock
	margin          time.Duration
	tokenURL        string
	sandboxTokenURL string

	// Populated once per parameter name, never invalidated within a run.
	// The task loop is the only caller, so a plain map suffices.
	appKeys map[string]string
}

func NewTokenSource(store secrets.Store, cfg config.ListingConfig, clk clock.Clock) *TokenSource {
	return &TokenSource{
		secrets:         store,
		httpClient:      resty.New().SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second),
		clock:           clk,
		margin:          cfg.TokenMargin(),
		tokenURL:        cfg.TokenURL,
		sandboxTokenURL: cfg.SandboxTokenURL,
		appKeys:         make(map[string]string),
	}
}

func (t *TokenSource) AccessToken(ctx context.Context, appKeyParam, userTokenParam string, sandbox bool) (string, error) {
	key, err := t.appKeyValue(ctx, appKeyParam)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrAuthFailed, err)
	}

	raw, err := t.secrets.GetParameter(ctx, userTokenParam)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrAuthFailed, err)
	}

	var bundle tokenBundle
	if err := json.Unmarshal([]byte(raw), &bundle); err != nil {
		return "", fmt.Errorf("%w: malformed token bundle %s: %v", domain.ErrAuthFailed, userTokenParam, err)
	}

	now := t.clock.Now()
	if time.UnixMilli(bundle.AccessToken.ExpiresAt).After(now.Add(t.margin)) {
		return bundle.AccessToken.Value, nil
	}

	log.Info("Access token expired or expiring soon, refreshing")
	minted, err := t.mint(ctx, key, bundle.RefreshToken, sandbox)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrAuthFailed, err)
	}

	expiresIn := minted.ExpiresIn
	if expiresIn == 0 {
		expiresIn = 7200
	}
	refreshed := tokenBundle{
		RefreshToken: bundle.RefreshToken,
		AccessToken: accessToken{
			Value:     minted.AccessToken,
			ExpiresAt: now.Add(time.Duration(expiresIn) * time.Second).UnixMilli(),
		},
	}

	// Best effort: the minted token is used either way.
	go t.persistBundle(userTokenParam, refreshed)

	return minted.AccessToken, nil
}

func (t *TokenSource) appKeyValue(ctx context.Context, name string) (appKey, error) {
	raw, ok := t.appKeys[name]
	if !ok {
		value, err := t.secrets.GetParameter(ctx, name)
		if err != nil {
			return appKey{}, err
		}
		t.appKeys[name] = value
		raw = value
	}

	var key appKey
	if err := json.Unmarshal([]byte(raw), &key); err != nil {
		return appKey{}, fmt.Errorf("malformed app key %s: %w", name, err)
	}
	return key, nil
}

type mintedToken struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (t *TokenSource) mint(ctx context.Context, key appKey, refreshToken string, sandbox bool) (*mintedToken, error) {
	endpoint := t.tokenURL
	if sandbox {
		endpoint = t.sandboxTokenURL
	}

	var result mintedToken
	resp, err := t.httpClient.R().
		SetContext(ctx).
		SetBasicAuth(key.ClientID, key.ClientSecret).
		SetFormData(map[string]string{
			"grant_type":    "refresh_token",
			"refresh_token": refreshToken,
		}).
		SetResult(&result).
		Post(endpoint)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode(), resp.String())
	}
	if result.AccessToken == "" {
		return nil, fmt.Errorf("token endpoint returned no access token")
	}

	return &result, nil
}

func (t *TokenSource) persistBundle(name string, bundle tokenBundle) {
	raw, err := json.Marshal(bundle)
	if err != nil {
		log.Errorf("Failed to serialize refreshed token %s: %v", name, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := t.secrets.PutParameter(ctx, name, string(raw)); err != nil {
		log.Errorf("Failed to persist refreshed token %s: %v", name, err)
	}
}
