package services

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"oauthd/internal/models"
)

// ImplicitGrant implements the implicit flow: the access token is issued
// directly at the authorization step and returned in the redirect URI
// fragment, so the redirect target's server logs never see it. There is no
// token endpoint step.
type ImplicitGrant struct {
	tokenSvc TokenService
}

// NewImplicitGrant creates the implicit grant handler
func NewImplicitGrant(tokenSvc TokenService) *ImplicitGrant {
	return &ImplicitGrant{tokenSvc: tokenSvc}
}

func (g *ImplicitGrant) Name() string {
	return "implicit"
}

func (g *ImplicitGrant) HandleAuthorizationRequest(ctx context.Context, req *AuthorizationRequest) (string, error) {
	access, err := g.tokenSvc.IssueAccessToken(ctx, req.Client.ID, req.UserID, req.Scopes)
	if err != nil {
		return "", models.NewOAuthError(models.ErrServerError, "unable to issue access token", err)
	}

	redirect, err := url.Parse(req.RedirectURI)
	if err != nil {
		return "", models.NewOAuthError(models.ErrServerError, "registered redirect URI is malformed", err)
	}

	fragment := url.Values{}
	fragment.Set("access_token", access.Secret)
	fragment.Set("token_type", "bearer")
	fragment.Set("expires_in", strconv.Itoa(int(g.tokenSvc.AccessTTL().Seconds())))
	if len(req.Scopes) > 0 {
		fragment.Set("scope", strings.Join(req.Scopes, " "))
	}
	if req.State != "" {
		fragment.Set("state", req.State)
	}
	redirect.Fragment = ""
	redirect.RawFragment = ""

	// url.URL escapes Fragment contents when String() runs; the fragment here
	// is already form-encoded, so append it verbatim.
	return redirect.String() + "#" + fragment.Encode(), nil
}

func (g *ImplicitGrant) HandleTokenRequest(ctx context.Context, client *models.Client, params url.Values) (*models.TokenResponse, error) {
	return nil, models.NewOAuthError(models.ErrUnsupportedGrantType, "the implicit grant issues tokens at the authorization endpoint", nil)
}
