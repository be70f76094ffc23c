package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"oauthd/internal/services"
)

// DiscoveryHandlers exposes the endpoint URLs and supported grant types so
// clients can discover how to talk to this server.
type DiscoveryHandlers struct {
	grants  *services.GrantRegistry
	baseURL string
}

// NewDiscoveryHandlers creates a new discovery handlers instance
func NewDiscoveryHandlers(grants *services.GrantRegistry, baseURL string) *DiscoveryHandlers {
	return &DiscoveryHandlers{
		grants:  grants,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// discoveryEndpoints lists the two protocol endpoints.
type discoveryEndpoints struct {
	Authorization string `json:"authorization"`
	Token         string `json:"token"`
}

type discoveryDocument struct {
	Endpoints  discoveryEndpoints `json:"endpoints"`
	GrantTypes []string           `json:"grant_types"`
}

// Index handles GET /oauth.
func (h *DiscoveryHandlers) Index(c echo.Context) error {
	return c.JSON(http.StatusOK, discoveryDocument{
		Endpoints: discoveryEndpoints{
			Authorization: h.baseURL + "/oauth/authorize",
			Token:         h.baseURL + "/oauth/token",
		},
		GrantTypes: h.grants.Names(),
	})
}
