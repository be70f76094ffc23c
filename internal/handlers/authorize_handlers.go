package handlers

import (
	"errors"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"oauthd/internal/models"
	"oauthd/internal/services"
	"oauthd/internal/session"
)

// AuthorizeHandlers drives the browser-facing authorization endpoint: request
// validation, the consent page, and dispatch into the grant type handlers.
type AuthorizeHandlers struct {
	clientSvc services.ClientService
	scopeReg  *services.ScopeRegistry
	grants    *services.GrantRegistry
	users     session.CurrentUserProvider
	loginURL  string
}

// NewAuthorizeHandlers creates a new authorization endpoint handlers instance
func NewAuthorizeHandlers(clientSvc services.ClientService, scopeReg *services.ScopeRegistry,
	grants *services.GrantRegistry, users session.CurrentUserProvider, loginURL string) *AuthorizeHandlers {
	return &AuthorizeHandlers{
		clientSvc: clientSvc,
		scopeReg:  scopeReg,
		grants:    grants,
		users:     users,
		loginURL:  loginURL,
	}
}

// authorizeRequest is an authorization request that survived validation far
// enough to have a verified client and redirect URI. Errors from this point
// on are reported to the client application via redirect.
type authorizeRequest struct {
	Client       *models.Client
	RedirectURI  string
	ResponseType string
	Grant        services.GrantType
	Scopes       []string
	RawScope     string
	State        string
}

var consentTemplate = template.Must(template.New("consent").Parse(`<!DOCTYPE html>
<html>
<head><title>Authorize {{.ClientName}}</title></head>
<body>
<h1>Authorize {{.ClientName}}?</h1>
<p>{{.ClientName}} would like to access your account with the following permissions:</p>
<ul>
{{range .Scopes}}<li><strong>{{.Name}}</strong> &mdash; {{.Description}}</li>
{{end}}</ul>
<form method="post">
<input type="hidden" name="response_type" value="{{.ResponseType}}">
<input type="hidden" name="client_id" value="{{.ClientID}}">
<input type="hidden" name="redirect_uri" value="{{.RedirectURI}}">
<input type="hidden" name="scope" value="{{.RawScope}}">
<input type="hidden" name="state" value="{{.State}}">
<button type="submit" name="authorize" value="approve">Approve</button>
<button type="submit" name="authorize" value="deny">Deny</button>
</form>
</body>
</html>
`))

var errorTemplate = template.Must(template.New("autherror").Parse(`<!DOCTYPE html>
<html>
<head><title>Authorization error</title></head>
<body>
<h1>Authorization error</h1>
<p>{{.Message}}</p>
</body>
</html>
`))

// validate checks the request parameters in the order the protocol demands:
// client and redirect URI first, because until both are verified no error may
// be forwarded to the redirect target.
func (h *AuthorizeHandlers) validate(c echo.Context) (*authorizeRequest, error) {
	ctx := c.Request().Context()

	clientID := strings.TrimSpace(c.FormValue("client_id"))
	if clientID == "" {
		return nil, h.renderError(c, "client_id is required")
	}

	client, err := h.clientSvc.GetByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, services.ErrClientNotFound) {
			return nil, h.renderError(c, "unknown client_id")
		}
		log.Printf("Failed to load client %s: %v", clientID, err)
		return nil, h.renderError(c, "unable to process the request")
	}

	redirectURI := strings.TrimSpace(c.FormValue("redirect_uri"))
	if redirectURI == "" && len(client.RedirectURIs) == 1 {
		redirectURI = client.RedirectURIs[0]
	}
	if !h.clientSvc.VerifyRedirectURI(client, redirectURI) {
		// An unverified redirect target must never receive the user; report
		// directly instead of redirecting.
		return nil, h.renderError(c, "redirect_uri is not registered for this client")
	}

	req := &authorizeRequest{
		Client:       client,
		RedirectURI:  redirectURI,
		ResponseType: strings.TrimSpace(c.FormValue("response_type")),
		RawScope:     strings.TrimSpace(c.FormValue("scope")),
		State:        c.FormValue("state"),
	}

	if req.ResponseType == "" {
		return nil, h.redirectError(c, req,
			models.NewOAuthError(models.ErrInvalidRequest, "response_type is required", nil))
	}

	grant, ok := h.grants.ByResponseType(req.ResponseType)
	if !ok {
		return nil, h.redirectError(c, req,
			models.NewOAuthError(models.ErrUnsupportedResponseType, "unsupported response_type: "+req.ResponseType, nil))
	}
	req.Grant = grant

	scopes, err := h.scopeReg.ValidateForClient(client, req.RawScope)
	if err != nil {
		return nil, h.redirectOAuthError(c, req, err)
	}
	req.Scopes = scopes

	return req, nil
}

// Authorize handles GET /oauth/authorize: it validates the request, sends
// unauthenticated users to the login page, and renders the consent form.
func (h *AuthorizeHandlers) Authorize(c echo.Context) error {
	req, err := h.validate(c)
	if err != nil {
		return err
	}

	if _, err := h.users.CurrentUser(c); err != nil {
		if errors.Is(err, session.ErrNotAuthenticated) {
			return h.redirectToLogin(c)
		}
		log.Printf("Failed to resolve current user: %v", err)
		return h.redirectError(c, req,
			models.NewOAuthError(models.ErrServerError, "unable to resolve the current user", err))
	}

	scopeDetails := make([]models.Scope, 0, len(req.Scopes))
	for _, name := range req.Scopes {
		if s, ok := h.scopeReg.Get(name); ok {
			scopeDetails = append(scopeDetails, s)
		}
	}

	var page strings.Builder
	err = consentTemplate.Execute(&page, map[string]any{
		"ClientName":   req.Client.Name,
		"ClientID":     req.Client.ClientID,
		"RedirectURI":  req.RedirectURI,
		"ResponseType": req.ResponseType,
		"RawScope":     req.RawScope,
		"State":        req.State,
		"Scopes":       scopeDetails,
	})
	if err != nil {
		log.Printf("Failed to render consent page: %v", err)
		return h.redirectError(c, req,
			models.NewOAuthError(models.ErrServerError, "unable to render the consent page", err))
	}

	return c.HTML(http.StatusOK, page.String())
}

// Decide handles POST /oauth/authorize: the resource owner's approve or deny
// decision, dispatched into the grant type handler on approval.
func (h *AuthorizeHandlers) Decide(c echo.Context) error {
	req, err := h.validate(c)
	if err != nil {
		return err
	}

	user, err := h.users.CurrentUser(c)
	if err != nil {
		if errors.Is(err, session.ErrNotAuthenticated) {
			return h.redirectToLogin(c)
		}
		log.Printf("Failed to resolve current user: %v", err)
		return h.redirectError(c, req,
			models.NewOAuthError(models.ErrServerError, "unable to resolve the current user", err))
	}

	if c.FormValue("authorize") != "approve" {
		return h.redirectError(c, req,
			models.NewOAuthError(models.ErrAccessDenied, "the resource owner denied the request", nil))
	}

	target, err := req.Grant.HandleAuthorizationRequest(c.Request().Context(), &services.AuthorizationRequest{
		Client:      req.Client,
		RedirectURI: req.RedirectURI,
		Scopes:      req.Scopes,
		State:       req.State,
		UserID:      user.ID,
	})
	if err != nil {
		return h.redirectOAuthError(c, req, err)
	}

	return c.Redirect(http.StatusFound, target)
}

// renderError reports a failure directly to the user. Used only before the
// client and redirect URI have been verified.
func (h *AuthorizeHandlers) renderError(c echo.Context, message string) error {
	var page strings.Builder
	if err := errorTemplate.Execute(&page, map[string]string{"Message": message}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "unable to render error page")
	}
	return c.HTML(http.StatusBadRequest, page.String())
}

// redirectError forwards a protocol error to the verified redirect target
// with error and error_description query parameters.
func (h *AuthorizeHandlers) redirectError(c echo.Context, req *authorizeRequest, oauthErr *models.OAuthError) error {
	redirect, err := url.Parse(req.RedirectURI)
	if err != nil {
		return h.renderError(c, "redirect_uri is malformed")
	}

	query := redirect.Query()
	query.Set("error", oauthErr.Code)
	if oauthErr.Description != "" {
		query.Set("error_description", oauthErr.Description)
	}
	if req.State != "" {
		query.Set("state", req.State)
	}
	redirect.RawQuery = query.Encode()

	return c.Redirect(http.StatusFound, redirect.String())
}

func (h *AuthorizeHandlers) redirectOAuthError(c echo.Context, req *authorizeRequest, err error) error {
	var oauthErr *models.OAuthError
	if !errors.As(err, &oauthErr) {
		oauthErr = models.NewOAuthError(models.ErrServerError, "unexpected error", err)
	}
	if oauthErr.Code == models.ErrServerError {
		log.Printf("Authorization request failed for client %s: %v", req.Client.ClientID, err)
	}
	return h.redirectError(c, req, oauthErr)
}

func (h *AuthorizeHandlers) redirectToLogin(c echo.Context) error {
	login, err := url.Parse(h.loginURL)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "login URL misconfigured")
	}
	query := login.Query()
	query.Set("redirect_to", c.Request().URL.String())
	login.RawQuery = query.Encode()
	return c.Redirect(http.StatusFound, login.String())
}
