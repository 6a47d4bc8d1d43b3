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
	"golang.org/x/oauth2/microsoft"
)

// MicrosoftGraphScopes is the exact grant the storage connection requests:
// read access to all drive files plus the signed-in user's profile, with
// offline_access so Graph issues a refresh token.
var MicrosoftGraphScopes = []string{
	"offline_access",
	"https://graph.microsoft.com/Files.Read.All",
	"https://graph.microsoft.com/User.Read",
}

const (
	graphMeURL    = "https://graph.microsoft.com/v1.0/me"
	defaultTenant = "common"
)

type microsoftClient struct {
	oauth      *oauth2.Config
	httpClient *http.Client
}

// NewMicrosoftClient creates the Microsoft OneDrive storage-connection OAuth
// client against the Graph API.
func NewMicrosoftClient(cfg *config.Config) (service.ProviderClient, error) {
	pc := cfg.MicrosoftGraph
	if pc == nil || pc.ClientID == "" || pc.ClientSecret == "" {
		return nil, errors.New("microsoft graph oauth client is not configured")
	}

	tenant := pc.Tenant
	if tenant == "" {
		tenant = defaultTenant
	}

	return &microsoftClient{
		oauth: &oauth2.Config{
			ClientID:     pc.ClientID,
			ClientSecret: pc.ClientSecret,
			RedirectURL:  pc.RedirectURI,
			Scopes:       MicrosoftGraphScopes,
			Endpoint:     microsoft.AzureADEndpoint(tenant),
		},
		httpClient: providerHTTPClient(pc.HTTPTimeout),
	}, nil
}

func (c *microsoftClient) Provider() entity.ProviderType {
	return entity.ProviderMicrosoft
}

// AuthCodeURL builds the consent URL. offline_access in the scope set is what
// makes Azure AD return a refresh token.
func (c *microsoftClient) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// Exchange trades the authorization code for tokens and resolves the account
// email from the Graph /me profile.
func (c *microsoftClient) Exchange(ctx context.Context, code string) (*service.TokenGrant, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, "microsoft code exchange failed")
	}

	email, err := c.fetchAccountEmail(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	scope, _ := token.Extra("scope").(string)
	if scope == "" {
		scope = strings.Join(MicrosoftGraphScopes, " ")
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
// Azure AD wants the scope repeated on refresh.
func (c *microsoftClient) Refresh(ctx context.Context, refreshToken string) (*service.TokenGrant, error) {
	form := url.Values{
		"client_id":     {c.oauth.ClientID},
		"client_secret": {c.oauth.ClientSecret},
		"refresh_token": {refreshToken},
		"grant_type":    {"refresh_token"},
		"scope":         {strings.Join(MicrosoftGraphScopes, " ")},
	}

	return refreshGrant(ctx, c.httpClient, entity.ProviderMicrosoft, c.oauth.Endpoint.TokenURL, form)
}

func (c *microsoftClient) fetchAccountEmail(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, graphMeURL, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to build profile request")
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", domainerrors.NewTokenError(entity.ErrKindNetworkError, entity.ProviderMicrosoft, "graph profile endpoint unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))

		return "", errors.Errorf("graph profile request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var profile struct {
		Mail              string `json:"mail"`
		UserPrincipalName string `json:"userPrincipalName"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return "", errors.Wrap(err, "malformed graph profile response")
	}

	// Personal accounts often carry no mail attribute.
	if profile.Mail != "" {
		return profile.Mail, nil
	}

	return profile.UserPrincipalName, nil
}
