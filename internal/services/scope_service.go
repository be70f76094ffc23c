package services

import (
	"strings"

	"oauthd/internal/models"
)

// ScopeRegistry enumerates the scopes this server can grant and validates
// requested scope strings against them. The registered set is process-wide
// configuration and does not change after startup.
type ScopeRegistry struct {
	scopes   map[string]models.Scope
	ordered  []models.Scope
	defaults []string
}

// NewScopeRegistry creates a new scope registry
func NewScopeRegistry(scopes []models.Scope) *ScopeRegistry {
	reg := &ScopeRegistry{
		scopes: make(map[string]models.Scope, len(scopes)),
	}
	for _, s := range scopes {
		if _, exists := reg.scopes[s.Name]; exists {
			continue
		}
		reg.scopes[s.Name] = s
		reg.ordered = append(reg.ordered, s)
		if s.Default {
			reg.defaults = append(reg.defaults, s.Name)
		}
	}
	return reg
}

// All returns every registered scope in registration order.
func (r *ScopeRegistry) All() []models.Scope {
	return append([]models.Scope(nil), r.ordered...)
}

// Get returns a registered scope by name.
func (r *ScopeRegistry) Get(name string) (models.Scope, bool) {
	s, ok := r.scopes[name]
	return s, ok
}

// ValidateRequested parses a space-delimited scope string. Unknown names are
// rejected with invalid_scope; an empty request falls back to the configured
// default set.
func (r *ScopeRegistry) ValidateRequested(requested string) ([]string, error) {
	names := strings.Fields(requested)
	if len(names) == 0 {
		return append([]string(nil), r.defaults...), nil
	}

	seen := make(map[string]bool, len(names))
	valid := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := r.scopes[name]; !ok {
			return nil, models.NewOAuthError(models.ErrInvalidScope, "unknown scope: "+name, nil)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		valid = append(valid, name)
	}
	return valid, nil
}

// ValidateForClient validates a requested scope string and additionally
// rejects scopes the client is not permitted to request, so an issued token's
// scope set never exceeds the client's allowance.
func (r *ScopeRegistry) ValidateForClient(client *models.Client, requested string) ([]string, error) {
	scopes, err := r.ValidateRequested(requested)
	if err != nil {
		return nil, err
	}
	for _, name := range scopes {
		if !client.AllowsScope(name) {
			return nil, models.NewOAuthError(models.ErrInvalidScope, "scope not permitted for this client: "+name, nil)
		}
	}
	return scopes, nil
}
