package services

import (
	"context"
	"net/url"
	"strings"

	"oauthd/internal/models"
)

// AuthorizationCodeGrant implements the authorization code flow: the
// authorization step issues a short-lived single-use code, the token step
// exchanges it for an access token.
type AuthorizationCodeGrant struct {
	tokenSvc TokenService
}

// NewAuthorizationCodeGrant creates the authorization_code grant handler
func NewAuthorizationCodeGrant(tokenSvc TokenService) *AuthorizationCodeGrant {
	return &AuthorizationCodeGrant{tokenSvc: tokenSvc}
}

func (g *AuthorizationCodeGrant) Name() string {
	return "authorization_code"
}

func (g *AuthorizationCodeGrant) HandleAuthorizationRequest(ctx context.Context, req *AuthorizationRequest) (string, error) {
	code, err := g.tokenSvc.IssueAuthorizationCode(ctx, req.Client, req.UserID, req.Scopes, req.RedirectURI)
	if err != nil {
		return "", models.NewOAuthError(models.ErrServerError, "unable to issue authorization code", err)
	}

	redirect, err := url.Parse(req.RedirectURI)
	if err != nil {
		return "", models.NewOAuthError(models.ErrServerError, "registered redirect URI is malformed", err)
	}

	query := redirect.Query()
	query.Set("code", code.Secret)
	if req.State != "" {
		query.Set("state", req.State)
	}
	redirect.RawQuery = query.Encode()

	return redirect.String(), nil
}

func (g *AuthorizationCodeGrant) HandleTokenRequest(ctx context.Context, client *models.Client, params url.Values) (*models.TokenResponse, error) {
	code := strings.TrimSpace(params.Get("code"))
	if code == "" {
		return nil, models.NewOAuthError(models.ErrInvalidRequest, "code is required", nil)
	}

	redirectURI := strings.TrimSpace(params.Get("redirect_uri"))
	if redirectURI == "" {
		return nil, models.NewOAuthError(models.ErrInvalidRequest, "redirect_uri is required", nil)
	}

	access, err := g.tokenSvc.RedeemAuthorizationCode(ctx, code, client, redirectURI)
	if err != nil {
		return nil, err
	}

	return &models.TokenResponse{
		AccessToken: access.Secret,
		TokenType:   "bearer",
		ExpiresIn:   int(g.tokenSvc.AccessTTL().Seconds()),
		Scope:       strings.Join(access.Scopes, " "),
	}, nil
}
