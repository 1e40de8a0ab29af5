package repository

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"rulesmith/internal/logging"
	"rulesmith/pkg/fileops"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/transport/http"
)

var errNotGitRepo = errors.New("not a git repository")

// DirectoryStatus describes what occupies a clone destination.
type DirectoryStatus int

const (
	// DirectoryStatusEmpty means the directory is absent or empty, safe to clone into.
	DirectoryStatusEmpty DirectoryStatus = iota
	// DirectoryStatusSameRepo means the directory already holds a checkout of the
	// expected remote, safe to fetch.
	DirectoryStatusSameRepo
	// DirectoryStatusDifferentRepo means the directory holds a checkout of some
	// other remote.
	DirectoryStatusDifferentRepo
	// DirectoryStatusConflict means the directory holds non-git content.
	DirectoryStatusConflict
	// DirectoryStatusError means the directory could not be examined.
	DirectoryStatusError
)

func (ds DirectoryStatus) String() string {
	switch ds {
	case DirectoryStatusEmpty:
		return "empty or missing"
	case DirectoryStatusSameRepo:
		return "checkout of the expected remote"
	case DirectoryStatusDifferentRepo:
		return "checkout of another remote"
	case DirectoryStatusConflict:
		return "non-git content"
	case DirectoryStatusError:
		return "inspection failure"
	default:
		return "unknown"
	}
}

// GitSource is a Git-hosted template source. Prepare clones the repository on
// first use and fetches afterwards; both operations try anonymous access
// first and fall back to the stored PAT when the remote demands auth.
type GitSource struct {
	RemoteURL string
	Branch    *string
	Path      string
}

// NewGitSource returns a GitSource. SSH URLs are accepted and normalized to
// HTTPS during Prepare; a nil branch follows the remote's default branch.
func NewGitSource(remoteURL string, branch *string, localPath string) GitSource {
	return GitSource{RemoteURL: remoteURL, Branch: branch, Path: localPath}
}

// Prepare clones or refreshes the checkout and returns its absolute path.
// Conflicting directory content (a foreign checkout, non-git files) is never
// overwritten; the caller has to resolve it manually.
func (gs GitSource) Prepare(logger *logging.AppLogger) (string, error) {
	if strings.TrimSpace(gs.RemoteURL) == "" {
		return "", fmt.Errorf("remote URL cannot be empty")
	}
	if strings.TrimSpace(gs.Path) == "" {
		return "", fmt.Errorf("local path cannot be empty")
	}

	info, err := ParseGitURL(gs.RemoteURL)
	if err != nil {
		return "", fmt.Errorf("invalid remote URL: %w", err)
	}
	remoteURL := info.HTTPS()

	clean := filepath.Clean(fileops.ExpandPath(gs.Path))
	if err := fileops.ValidatePathSecurity(clean); err != nil {
		return "", fmt.Errorf("invalid local path: %w", err)
	}
	abs, err := filepath.Abs(clean)
	if err != nil {
		return "", fmt.Errorf("cannot resolve absolute path: %w", err)
	}

	status, err := validateCloneDirectory(abs, remoteURL)
	switch status {
	case DirectoryStatusEmpty:
		if err := gs.cloneWithAuthFallback(abs, remoteURL, logger); err != nil {
			return "", err
		}
	case DirectoryStatusSameRepo:
		if err := gs.fetchWithAuthFallback(abs, logger); err != nil {
			return "", err
		}
	case DirectoryStatusDifferentRepo, DirectoryStatusConflict:
		return "", fmt.Errorf("directory conflict at %s (%s): remove or relocate the existing content first",
			abs, status)
	default:
		return "", fmt.Errorf("cannot examine clone directory: %w", err)
	}

	if logger != nil {
		logger.Debug("git template source prepared", "path", abs)
	}
	return abs, nil
}

// FetchUpdates refreshes an existing checkout without cloning. A dirty
// working tree is left alone.
func (gs GitSource) FetchUpdates(logger *logging.AppLogger) error {
	if _, err := os.Stat(gs.Path); os.IsNotExist(err) {
		return fmt.Errorf("repository does not exist at %s - cannot fetch updates", gs.Path)
	}
	return gs.fetchWithAuthFallback(gs.Path, logger)
}

// WorktreeIsDirty reports whether the checkout at repoPath has uncommitted
// changes, including untracked files.
func WorktreeIsDirty(repoPath string) (bool, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return false, fmt.Errorf("failed to open repository: %w", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("failed to get working tree: %w", err)
	}
	status, err := worktree.Status()
	if err != nil {
		return false, fmt.Errorf("failed to get repository status: %w", err)
	}
	return !status.IsClean(), nil
}

// cloneWithAuthFallback tries an anonymous clone first and retries with the
// stored PAT only when the remote rejected the anonymous attempt. Errors are
// translated here, after the fallback decision, so the raw transport message
// stays available for the auth check.
func (gs GitSource) cloneWithAuthFallback(localPath, remoteURL string, logger *logging.AppLogger) error {
	err := gs.clone(localPath, remoteURL, nil, logger)
	if err == nil {
		return nil
	}
	if !isAuthError(err) {
		return gs.translateCloneError(err)
	}

	auth, authErr := gs.authentication(logger)
	if authErr != nil {
		return fmt.Errorf("GitHub authentication failed: %w", authErr)
	}
	if auth == nil {
		return fmt.Errorf("GitHub authentication required - configure a Personal Access Token with 'rulesmith templates auth'")
	}
	if err := gs.clone(localPath, remoteURL, auth, logger); err != nil {
		return gs.translateCloneError(err)
	}
	return nil
}

func (gs GitSource) clone(localPath, remoteURL string, auth *http.BasicAuth, logger *logging.AppLogger) error {
	if logger != nil {
		logger.Info("cloning template repository", "remote", remoteURL, "path", localPath)
	}

	parent := filepath.Dir(localPath)
	if err := fileops.ValidatePathSecurity(parent); err != nil {
		return fmt.Errorf("parent directory failed security validation: %w", err)
	}
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	opts := &git.CloneOptions{
		URL:   remoteURL,
		Depth: 1,
	}
	if auth != nil {
		opts.Auth = auth
	}
	if branch := gs.branchName(); branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(branch)
		opts.SingleBranch = true
	}

	if _, err := git.PlainClone(localPath, opts); err != nil {
		return err
	}
	return nil
}

// fetchWithAuthFallback mirrors the clone strategy for fetches, so a
// repository that turned private keeps working once a PAT is stored.
func (gs GitSource) fetchWithAuthFallback(localPath string, logger *logging.AppLogger) error {
	err := gs.fetch(localPath, nil, logger)
	if err == nil {
		return nil
	}
	if !isAuthError(err) {
		return gs.translateFetchError(err)
	}

	auth, authErr := gs.authentication(logger)
	if authErr != nil {
		return fmt.Errorf("GitHub authentication failed: %w", authErr)
	}
	if auth == nil {
		return fmt.Errorf("GitHub authentication required - configure a Personal Access Token with 'rulesmith templates auth'")
	}
	if err := gs.fetch(localPath, auth, logger); err != nil {
		return gs.translateFetchError(err)
	}
	return nil
}

func (gs GitSource) fetch(localPath string, auth *http.BasicAuth, logger *logging.AppLogger) error {
	repo, err := git.PlainOpen(localPath)
	if err != nil {
		return fmt.Errorf("failed to open existing repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get working tree: %w", err)
	}
	status, err := worktree.Status()
	if err != nil {
		return fmt.Errorf("failed to get working tree status: %w", err)
	}
	if !status.IsClean() {
		// Never discard local edits; the sync surfaces this as a skip.
		if logger != nil {
			logger.Warn("working tree has uncommitted changes, skipping sync", "path", localPath)
		}
		return nil
	}

	remote, err := repo.Remote("origin")
	if err != nil {
		return fmt.Errorf("failed to get origin remote: %w", err)
	}

	err = remote.Fetch(&git.FetchOptions{Auth: auth, Force: true})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return err
	}

	if logger != nil {
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			logger.Debug("repository already up to date", "path", localPath)
		} else {
			logger.Info("repository updated", "path", localPath)
		}
	}

	if branch := gs.branchName(); branch != "" {
		if err := gs.checkoutBranch(repo, worktree, branch, logger); err != nil {
			// A bad branch config should not make the checkout unusable.
			if logger != nil {
				logger.Warn("failed to checkout configured branch", "branch", branch, "error", err)
			}
		}
	}

	return nil
}

func (gs GitSource) branchName() string {
	if gs.Branch != nil {
		return strings.TrimSpace(*gs.Branch)
	}
	return ""
}

// authentication returns the stored PAT as BasicAuth, or nil when no token
// is stored (anonymous access).
func (gs GitSource) authentication(logger *logging.AppLogger) (*http.BasicAuth, error) {
	credMgr := NewCredentialManager()
	if !credMgr.HasGitHubToken() {
		return nil, nil
	}
	token, err := credMgr.GetGitHubToken()
	if err != nil {
		return nil, err
	}
	if logger != nil {
		logger.Debug("using stored GitHub token for authentication")
	}
	// GitHub PAT auth uses "token" as the username.
	return &http.BasicAuth{Username: "token", Password: token}, nil
}

// checkoutBranch switches the worktree to branchName, creating the local
// branch from origin's copy when it does not exist yet.
func (gs GitSource) checkoutBranch(repo *git.Repository, worktree *git.Worktree, branchName string, logger *logging.AppLogger) error {
	head, err := repo.Head()
	if err != nil && !errors.Is(err, plumbing.ErrReferenceNotFound) {
		return fmt.Errorf("failed to get current branch: %w", err)
	}
	if head != nil && head.Name().Short() == branchName {
		return nil
	}

	localRef := plumbing.NewBranchReferenceName(branchName)
	remoteRef := plumbing.NewRemoteReferenceName("origin", branchName)

	remoteBranch, err := repo.Reference(remoteRef, true)
	if err != nil {
		return fmt.Errorf("branch %q does not exist on remote 'origin'", branchName)
	}

	_, err = repo.Reference(localRef, true)
	switch {
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		newRef := plumbing.NewHashReference(localRef, remoteBranch.Hash())
		if err := repo.Storer.SetReference(newRef); err != nil {
			return fmt.Errorf("failed to create local branch: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to get local branch reference: %w", err)
	}

	if err := worktree.Checkout(&git.CheckoutOptions{Branch: localRef}); err != nil {
		return fmt.Errorf("failed to checkout branch: %w", err)
	}

	if logger != nil {
		logger.Debug("checked out branch", "branch", branchName)
	}
	return nil
}

// validateCloneDirectory classifies what occupies the clone destination so
// Prepare never clobbers foreign content.
func validateCloneDirectory(clonePath, expectedRemoteURL string) (DirectoryStatus, error) {
	info, err := os.Stat(clonePath)
	if os.IsNotExist(err) {
		return DirectoryStatusEmpty, nil
	}
	if err != nil {
		return DirectoryStatusError, fmt.Errorf("cannot access directory %s: %w", clonePath, err)
	}
	if !info.IsDir() {
		return DirectoryStatusError, fmt.Errorf("path exists but is not a directory: %s", clonePath)
	}

	entries, err := os.ReadDir(clonePath)
	if err != nil {
		return DirectoryStatusError, fmt.Errorf("cannot read directory: %w", err)
	}
	if len(entries) == 0 {
		return DirectoryStatusEmpty, nil
	}

	currentRemote, err := remoteURLOf(clonePath)
	if err != nil {
		if errors.Is(err, errNotGitRepo) {
			return DirectoryStatusConflict, fmt.Errorf("directory contains non-git content: %s", clonePath)
		}
		return DirectoryStatusError, fmt.Errorf("cannot read git remote URL: %w", err)
	}

	if sameRemote(currentRemote, expectedRemoteURL) {
		return DirectoryStatusSameRepo, nil
	}
	return DirectoryStatusDifferentRepo, fmt.Errorf("directory holds a different repository (current: %s, expected: %s)",
		currentRemote, expectedRemoteURL)
}

// remoteURLOf returns the origin remote URL of the checkout at repoPath.
func remoteURLOf(repoPath string) (string, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return "", fmt.Errorf("%w: %s", errNotGitRepo, repoPath)
		}
		return "", fmt.Errorf("cannot open git repository: %w", err)
	}

	remote, err := repo.Remote("origin")
	if err != nil {
		return "", fmt.Errorf("cannot get origin remote: %w", err)
	}

	cfg := remote.Config()
	if cfg == nil || len(cfg.URLs) == 0 {
		return "", fmt.Errorf("no URLs configured for origin remote")
	}
	return cfg.URLs[0], nil
}

// The HTTP status words Git transports put in their error strings; there is
// no typed error to test for.
var authErrorMarkers = []string{"authentication required", "401", "unauthorized", "403", "forbidden"}

func isAuthError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range authErrorMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func (gs GitSource) translateCloneError(err error) error {
	msg := strings.ToLower(err.Error())

	if isAuthError(err) {
		if strings.Contains(msg, "403") || strings.Contains(msg, "forbidden") {
			return fmt.Errorf("GitHub token lacks required permissions - the 'repo' scope is needed for private repositories")
		}
		return fmt.Errorf("GitHub authentication failed - update the token with 'rulesmith templates auth'")
	}
	if strings.Contains(msg, "404") || strings.Contains(msg, "not found") {
		return fmt.Errorf("repository not found - check the URL or your access: %s", gs.RemoteURL)
	}
	if strings.Contains(msg, "network") || strings.Contains(msg, "connection") || strings.Contains(msg, "timeout") {
		return fmt.Errorf("network error during clone: %w", err)
	}
	return fmt.Errorf("failed to clone repository: %w", err)
}

func (gs GitSource) translateFetchError(err error) error {
	msg := strings.ToLower(err.Error())

	if isAuthError(err) {
		return fmt.Errorf("GitHub token has expired or is invalid - update it with 'rulesmith templates auth'")
	}
	if strings.Contains(msg, "network") || strings.Contains(msg, "connection") || strings.Contains(msg, "timeout") {
		return fmt.Errorf("network error during fetch - the cached checkout stays in use: %w", err)
	}
	return fmt.Errorf("failed to fetch repository updates: %w", err)
}
