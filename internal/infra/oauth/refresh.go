// Package oauth implements the storage-connection OAuth clients for the
// supported cloud-storage providers. These clients use a dedicated client
// registration and scope set, disjoint from the main-login OAuth flow.
package oauth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"briefly/internal/domain/entity"
	domainerrors "briefly/internal/domain/errors"
	"briefly/internal/domain/service"
)

const defaultHTTPTimeout = 15 * time.Second

// tokenEndpointResponse is the wire shape shared by both providers' token
// endpoints (RFC 6749 §5.1).
type tokenEndpointResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// tokenEndpointError is the wire shape of a token endpoint failure (RFC 6749 §5.2).
type tokenEndpointError struct {
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

// refreshGrant performs a grant_type=refresh_token exchange against the
// provider's token endpoint and classifies every failure mode. The provider
// may omit refresh_token (keep the stored one) and scope (grant unchanged);
// both come back empty here and the caller decides what to retain.
func refreshGrant(ctx context.Context, client *http.Client, provider entity.ProviderType, tokenURL string, form url.Values) (*service.TokenGrant, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, domainerrors.NewTokenError(entity.ErrKindTokenRefreshFailed, provider, "failed to build refresh request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return nil, domainerrors.NewTokenError(entity.ErrKindNetworkError, provider, "token endpoint unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, domainerrors.NewTokenError(entity.ErrKindNetworkError, provider, "failed to read token endpoint response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyRefreshFailure(provider, resp.StatusCode, body)
	}

	var grant tokenEndpointResponse
	if err := json.Unmarshal(body, &grant); err != nil {
		return nil, domainerrors.NewTokenError(entity.ErrKindTokenRefreshFailed, provider, "malformed token endpoint response", err)
	}
	if grant.AccessToken == "" {
		return nil, domainerrors.NewTokenError(entity.ErrKindTokenRefreshFailed, provider, "token endpoint returned no access token", nil)
	}

	tokenType := grant.TokenType
	if tokenType == "" {
		tokenType = entity.DefaultTokenType
	}

	return &service.TokenGrant{
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		Scope:        grant.Scope,
		TokenType:    tokenType,
		ExpiresAt:    time.Now().Add(time.Duration(grant.ExpiresIn) * time.Second),
	}, nil
}

// classifyRefreshFailure maps a non-200 token endpoint response onto an error
// kind. 400-class responses mean the stored refresh token (or the client
// registration) is dead and retrying is pointless; everything else is
// transient.
func classifyRefreshFailure(provider entity.ProviderType, status int, body []byte) *domainerrors.TokenError {
	var oauthErr tokenEndpointError
	_ = json.Unmarshal(body, &oauthErr)

	technical := oauthErr.Code
	if oauthErr.Description != "" {
		technical = oauthErr.Code + ": " + oauthErr.Description
	}

	switch {
	case oauthErr.Code == "invalid_client" || oauthErr.Code == "unauthorized_client":
		return domainerrors.NewTokenError(entity.ErrKindInvalidCredentials, provider, technical, nil)
	case status == http.StatusBadRequest || status == http.StatusUnauthorized:
		// invalid_grant and friends: the refresh token is expired or revoked.
		return domainerrors.NewTokenError(entity.ErrKindRefreshTokenExpired, provider, technical, nil)
	case status == http.StatusTooManyRequests:
		return domainerrors.NewTokenError(entity.ErrKindQuotaExceeded, provider, technical, nil)
	case status >= http.StatusInternalServerError:
		return domainerrors.NewTokenError(entity.ErrKindServiceUnavailable, provider, technical, nil)
	default:
		return domainerrors.NewTokenError(entity.ErrKindTokenRefreshFailed, provider, technical, nil)
	}
}

func providerHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	return &http.Client{Timeout: timeout}
}
