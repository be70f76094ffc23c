package services

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"oauthd/internal/models"
	"oauthd/internal/repositories"
)

// ErrClientNotFound mirrors the repository sentinel so callers do not need to
// import the repositories package.
var ErrClientNotFound = repositories.ErrClientNotFound

// ClientService is the read-only client registry the token core consults.
// Registration and editing of clients is an administrative concern outside
// this core; the one mutation exposed here is the cascade delete.
type ClientService interface {
	GetByClientID(ctx context.Context, clientID string) (*models.Client, error)
	VerifySecret(client *models.Client, providedSecret string) bool
	VerifyRedirectURI(client *models.Client, uri string) bool
	// Delete removes a client and revokes every token issued to it.
	Delete(ctx context.Context, id uuid.UUID) error
}

type clientService struct {
	clientRepo repositories.ClientRepository
}

// NewClientService creates a new client registry service
func NewClientService(clientRepo repositories.ClientRepository) ClientService {
	return &clientService{clientRepo: clientRepo}
}

func (s *clientService) GetByClientID(ctx context.Context, clientID string) (*models.Client, error) {
	if clientID == "" {
		return nil, ErrClientNotFound
	}
	return s.clientRepo.GetByClientID(ctx, clientID)
}

// VerifySecret compares the presented secret against the stored bcrypt hash.
// bcrypt's comparison is constant-time over the digest.
func (s *clientService) VerifySecret(client *models.Client, providedSecret string) bool {
	if client.ClientSecretHash == "" || providedSecret == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(client.ClientSecretHash), []byte(providedSecret))
	if err != nil && !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		log.Printf("Failed to compare client secret for %s: %v", client.ClientID, err)
	}
	return err == nil
}

// VerifyRedirectURI accepts only an exact match against one of the client's
// registered redirect URIs.
func (s *clientService) VerifyRedirectURI(client *models.Client, uri string) bool {
	if uri == "" {
		return false
	}
	for _, registered := range client.RedirectURIs {
		if registered == uri {
			return true
		}
	}
	return false
}

func (s *clientService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.clientRepo.Delete(ctx, id)
}
