package oauth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"briefly/config"
	"briefly/internal/domain/entity"
	domainerrors "briefly/internal/domain/errors"
	"briefly/internal/domain/service"
	"briefly/internal/errors"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleDriveScopes is the exact grant the storage connection requests:
// read-only Drive access plus the account email for display. Anything beyond
// this set on a stored token is a scope violation.
var GoogleDriveScopes = []string{
	"https://www.googleapis.com/auth/drive.readonly",
	"https://www.googleapis.com/auth/userinfo.email",
}

const googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type googleClient struct {
	oauth      *oauth2.Config
	httpClient *http.Client
}

// NewGoogleClient creates the Google Drive storage-connection OAuth client.
func NewGoogleClient(cfg *config.Config) (service.ProviderClient, error) {
	pc := cfg.GoogleDrive
	if pc == nil || pc.ClientID == "" || pc.ClientSecret == "" {
		return nil, errors.New("google drive oauth client is not configured")
	}

	return &googleClient{
		oauth: &oauth2.Config{
			ClientID:     pc.ClientID,
			ClientSecret: pc.ClientSecret,
			RedirectURL:  pc.RedirectURI,
			Scopes:       GoogleDriveScopes,
			Endpoint:     google.Endpoint,
		},
		httpClient: providerHTTPClient(pc.HTTPTimeout),
	}, nil
}

func (c *googleClient) Provider() entity.ProviderType {
	return entity.ProviderGoogle
}

// AuthCodeURL builds the consent URL. access_type=offline plus
// prompt=consent makes Google return a refresh token on every connect, not
// just the first.
func (c *googleClient) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Exchange trades the authorization code for tokens and resolves the Google
// account email.
func (c *googleClient) Exchange(ctx context.Context, code string) (*service.TokenGrant, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, "google code exchange failed")
	}

	email, err := c.fetchAccountEmail(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	scope, _ := token.Extra("scope").(string)
	if scope == "" {
		// Providers are allowed to omit the scope echo; the grant is then
		// exactly what was requested.
		scope = strings.Join(c.oauth.Scopes, " ")
	}
	tokenType := token.TokenType
	if tokenType == "" {
		tokenType = entity.DefaultTokenType
	}

	return &service.TokenGrant{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Scope:        scope,
		TokenType:    tokenType,
		AccountEmail: email,
		ExpiresAt:    token.Expiry,
	}, nil
}

// Refresh exchanges the stored refresh token via grant_type=refresh_token.
func (c *googleClient) Refresh(ctx context.Context, refreshToken string) (*service.TokenGrant, error) {
	form := url.Values{
		"client_id":     {c.oauth.ClientID},
		"client_secret": {c.oauth.ClientSecret},
		"refresh_token": {refreshToken},
		"grant_type":    {"refresh_token"},
	}

	return refreshGrant(ctx, c.httpClient, entity.ProviderGoogle, c.oauth.Endpoint.TokenURL, form)
}

func (c *googleClient) fetchAccountEmail(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleUserinfoURL, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to build userinfo request")
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", domainerrors.NewTokenError(entity.ErrKindNetworkError, entity.ProviderGoogle, "userinfo endpoint unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))

		return "", errors.Errorf("userinfo request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var userinfo struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&userinfo); err != nil {
		return "", errors.Wrap(err, "malformed userinfo response")
	}

	return userinfo.Email, nil
}
