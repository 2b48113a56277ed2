package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"task-tracker/logging"
	"task-tracker/models"

	"github.com/sony/gobreaker"
)

var errCredentialRejected = errors.New("credential rejected")

// RemoteVerifier asks an identity service to resolve bearer tokens:
// GET {baseURL}/verify with the token in the Authorization header, answered
// with 200 and {"id","username","role"}, or 401/403 for a rejected token.
type RemoteVerifier struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

func NewRemoteVerifier(baseURL string, client *http.Client, breaker *gobreaker.CircuitBreaker) *RemoteVerifier {
	return &RemoteVerifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		breaker: breaker,
	}
}

// Verify never returns an error: an unreachable service, an open breaker and
// a rejected token all resolve to no identity.
func (v *RemoteVerifier) Verify(ctx context.Context, credential string) (models.Identity, bool) {
	result, err := v.breaker.Execute(func() (interface{}, error) {
		identity, err := v.fetchIdentity(ctx, credential)
		if errors.Is(err, errCredentialRejected) {
			// A rejected token says nothing about the health of the service.
			return nil, nil
		}
		if err != nil && ctx.Err() != nil {
			// The caller gave up; the service may well be healthy.
			logging.Logger.Debugf("Event ID: IDENTITY_VERIFY_CANCELLED, Description: Verification abandoned by caller: %v", ctx.Err())
			return nil, nil
		}
		return identity, err
	})
	if err != nil {
		logging.Logger.Warnf("Event ID: IDENTITY_SERVICE_UNAVAILABLE, Description: Identity verification failed: %v", err)
		return models.Identity{}, false
	}

	identity, ok := result.(*models.Identity)
	if !ok || identity == nil {
		return models.Identity{}, false
	}
	return *identity, true
}

func (v *RemoteVerifier) fetchIdentity(ctx context.Context, credential string) (*models.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/verify", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+credential)

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity service request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, errCredentialRejected
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("identity service returned %s", resp.Status)
	}

	var identity models.Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, fmt.Errorf("failed to decode identity: %w", err)
	}
	if identity.ID == "" || identity.Username == "" || !identity.Role.Valid() {
		return nil, errCredentialRejected
	}
	return &identity, nil
}
