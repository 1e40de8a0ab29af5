package repository

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// GitURLInfo holds the parsed components of a Git repository URL.
type GitURLInfo struct {
	Host  string
	Owner string
	Repo  string
}

var (
	sshURLPattern  = regexp.MustCompile(`^git@([^:]+):([^/]+)/(.+?)(?:\.git)?$`)
	sshHostPattern = regexp.MustCompile(`^git@([^:]+):(.+)$`)
)

// ParseGitURL parses an SSH (git@host:owner/repo.git) or HTTP(S)
// (https://host/owner/repo.git) repository URL into its components. The .git
// suffix is optional.
func ParseGitURL(gitURL string) (GitURLInfo, error) {
	gitURL = strings.TrimSpace(gitURL)

	if matches := sshURLPattern.FindStringSubmatch(gitURL); matches != nil {
		return GitURLInfo{Host: matches[1], Owner: matches[2], Repo: matches[3]}, nil
	}

	parsed, err := url.Parse(gitURL)
	if err != nil {
		return GitURLInfo{}, fmt.Errorf("invalid URL format: %w", err)
	}
	if parsed.Host == "" {
		return GitURLInfo{}, fmt.Errorf("URL missing host component")
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) < 2 {
		return GitURLInfo{}, fmt.Errorf("URL path should contain owner/repo: %s", parsed.Path)
	}

	owner := parts[0]
	repo := strings.TrimSuffix(parts[1], ".git")
	if owner == "" || repo == "" {
		return GitURLInfo{}, fmt.Errorf("could not extract owner/repo from URL path: %s", parsed.Path)
	}

	return GitURLInfo{Host: parsed.Host, Owner: owner, Repo: repo}, nil
}

// HTTPS reconstructs the canonical HTTPS clone URL with a .git suffix.
func (info GitURLInfo) HTTPS() string {
	return fmt.Sprintf("https://%s/%s/%s.git", info.Host, info.Owner, info.Repo)
}

// sameRemote reports whether two remote URLs point at the same repository,
// treating SSH and HTTPS forms of one repository as equivalent.
func sameRemote(a, b string) bool {
	return normalizeRemote(a) == normalizeRemote(b)
}

// normalizeRemote reduces a remote URL to host/owner/repo form for comparison.
func normalizeRemote(gitURL string) string {
	gitURL = strings.TrimSpace(gitURL)
	gitURL = strings.TrimSuffix(gitURL, ".git")

	if matches := sshHostPattern.FindStringSubmatch(gitURL); matches != nil {
		return matches[1] + "/" + matches[2]
	}

	if after, found := strings.CutPrefix(gitURL, "https://"); found {
		return after
	}
	if after, found := strings.CutPrefix(gitURL, "http://"); found {
		return after
	}

	return gitURL
}
