package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// Service name under which secrets are filed in the OS credential store.
	credentialService = "rulesmith"
	// Key for the GitHub Personal Access Token.
	githubTokenKey = "github_pat"
)

// GitHub hands out typed tokens: ghp_ classic, github_pat_ fine-grained,
// gho_/ghu_/ghs_ OAuth and app tokens.
var patPrefixes = []string{"ghp_", "github_pat_", "gho_", "ghu_", "ghs_"}

// CredentialManager stores and retrieves the GitHub Personal Access Token
// through the OS credential store (Keychain, Secret Service, Credential
// Manager). Tokens never touch the config file.
type CredentialManager struct {
	service string
}

// NewCredentialManager returns a manager bound to the app's service name.
func NewCredentialManager() *CredentialManager {
	return &CredentialManager{service: credentialService}
}

// StoreGitHubToken validates token and files it in the credential store,
// trimmed of surrounding whitespace.
func (cm *CredentialManager) StoreGitHubToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}
	if err := ValidateTokenFormat(token); err != nil {
		return fmt.Errorf("invalid token format: %w", err)
	}
	if err := keyring.Set(cm.service, githubTokenKey, token); err != nil {
		return fmt.Errorf("failed to store token in credential store: %w", err)
	}
	return nil
}

// GetGitHubToken retrieves the stored token.
func (cm *CredentialManager) GetGitHubToken() (string, error) {
	token, err := keyring.Get(cm.service, githubTokenKey)
	switch {
	case errors.Is(err, keyring.ErrNotFound):
		return "", fmt.Errorf("no GitHub token stored - run 'rulesmith templates auth' to configure one")
	case err != nil:
		return "", fmt.Errorf("failed to read token from credential store: %w", err)
	case strings.TrimSpace(token) == "":
		return "", fmt.Errorf("stored token is empty - run 'rulesmith templates auth' to replace it")
	}
	return token, nil
}

// DeleteGitHubToken removes the stored token. Deleting an absent token is
// not an error.
func (cm *CredentialManager) DeleteGitHubToken() error {
	switch err := keyring.Delete(cm.service, githubTokenKey); {
	case err == nil, errors.Is(err, keyring.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("failed to delete token from credential store: %w", err)
	}
}

// HasGitHubToken reports whether a token is stored, without returning it.
func (cm *CredentialManager) HasGitHubToken() bool {
	_, err := keyring.Get(cm.service, githubTokenKey)
	return err == nil
}

// ValidateTokenFormat checks that a token looks like a GitHub PAT.
func ValidateTokenFormat(token string) error {
	token = strings.TrimSpace(token)

	if len(token) < 20 {
		return fmt.Errorf("token too short (minimum 20 characters)")
	}
	for _, prefix := range patPrefixes {
		if strings.HasPrefix(token, prefix) {
			return nil
		}
	}
	return fmt.Errorf("token does not match the GitHub PAT format (expected a ghp_ or github_pat_ prefix)")
}
