package repositories

import (
	"errors"
	"fmt"

	"github.com/desertthunder/mazeed/internal/models"
	"github.com/desertthunder/mazeed/internal/shared"
)

// CredentialStore reads and writes the [models.Credential] kept under [KeyToken].
//
// Every call goes to the underlying store so a refreshed credential is visible immediately.
type CredentialStore struct {
	store KeyValueStore
}

// NewCredentialStore creates a CredentialStore backed by store.
func NewCredentialStore(store KeyValueStore) *CredentialStore {
	return &CredentialStore{store: store}
}

// Load returns the stored credential or [shared.ErrNotAuthenticated] if there is none.
func (c *CredentialStore) Load() (*models.Credential, error) {
	var cred models.Credential
	ok, err := GetJSON(c.store, KeyToken, &cred)
	if err != nil {
		return nil, err
	}
	if !ok || cred.AccessToken == "" {
		return nil, shared.ErrNotAuthenticated
	}
	return &cred, nil
}

// Save replaces the stored credential.
func (c *CredentialStore) Save(cred *models.Credential) error {
	if cred == nil || cred.AccessToken == "" {
		return fmt.Errorf("%w: credential has no access token", shared.ErrInvalidInput)
	}
	return SetJSON(c.store, KeyToken, cred)
}

// Delete removes only the credential.
func (c *CredentialStore) Delete() error {
	return c.store.Remove(KeyToken)
}

// ClearAll wipes every stored key, used when a session cannot be recovered.
func (c *CredentialStore) ClearAll() error {
	return c.store.Clear()
}

func isNotFound(err error) bool {
	return errors.Is(err, shared.ErrKeyNotFound)
}
