package services

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"sync"

	"github.com/google/uuid"

	"oauthd/internal/models"
)

// AuthorizationRequest carries a validated, user-approved authorization
// request into a grant type handler. By the time a handler sees it, the
// client, redirect URI and scope set have all been verified.
type AuthorizationRequest struct {
	Client      *models.Client
	RedirectURI string
	Scopes      []string
	State       string
	UserID      uuid.UUID
}

// GrantType is the strategy interface for OAuth2 flows. Implementations are
// stateless; both built-in flows and external extensions register in a
// GrantRegistry before it is frozen at startup.
type GrantType interface {
	// Name returns the grant_type identifier used at the token endpoint.
	Name() string
	// HandleAuthorizationRequest runs after the resource owner has approved
	// the request and returns the URL the user-agent is redirected to.
	HandleAuthorizationRequest(ctx context.Context, req *AuthorizationRequest) (string, error)
	// HandleTokenRequest exchanges grant-specific parameters for an access
	// token. Flows that issue their token at the authorization step reject
	// this call with unsupported_grant_type.
	HandleTokenRequest(ctx context.Context, client *models.Client, params url.Values) (*models.TokenResponse, error)
}

// GrantRegistry maps grant type names (token endpoint) and response types
// (authorization endpoint) to their handlers. Registration happens during an
// initialization phase; Freeze makes the registry read-only for the rest of
// the process lifetime.
type GrantRegistry struct {
	mu             sync.RWMutex
	frozen         bool
	byName         map[string]GrantType
	byResponseType map[string]GrantType
}

// NewGrantRegistry creates an empty grant type registry
func NewGrantRegistry() *GrantRegistry {
	return &GrantRegistry{
		byName:         make(map[string]GrantType),
		byResponseType: make(map[string]GrantType),
	}
}

// Register adds a grant type, optionally binding it to one or more
// response_type values for authorization endpoint dispatch. Registering after
// Freeze, or registering a duplicate, is a startup error.
func (r *GrantRegistry) Register(grant GrantType, responseTypes ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return fmt.Errorf("grant registry is frozen; register %q during initialization", grant.Name())
	}
	if _, exists := r.byName[grant.Name()]; exists {
		return fmt.Errorf("grant type %q already registered", grant.Name())
	}
	for _, rt := range responseTypes {
		if _, exists := r.byResponseType[rt]; exists {
			return fmt.Errorf("response type %q already registered", rt)
		}
	}

	r.byName[grant.Name()] = grant
	for _, rt := range responseTypes {
		r.byResponseType[rt] = grant
	}
	return nil
}

// Freeze ends the registration phase.
func (r *GrantRegistry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// ByName resolves a grant_type parameter to its handler.
func (r *GrantRegistry) ByName(name string) (GrantType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	grant, ok := r.byName[name]
	return grant, ok
}

// ByResponseType resolves a response_type parameter to its handler.
func (r *GrantRegistry) ByResponseType(responseType string) (GrantType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	grant, ok := r.byResponseType[responseType]
	return grant, ok
}

// Names lists the registered grant types, sorted, for the discovery document.
func (r *GrantRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
