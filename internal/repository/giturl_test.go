package repository

import (
	"strings"
	"testing"
)

func TestParseGitURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    GitURLInfo
		wantErr string
	}{
		{
			name: "ssh with .git",
			url:  "git@github.com:org/rules.git",
			want: GitURLInfo{Host: "github.com", Owner: "org", Repo: "rules"},
		},
		{
			name: "ssh without .git",
			url:  "git@github.com:org/rules",
			want: GitURLInfo{Host: "github.com", Owner: "org", Repo: "rules"},
		},
		{
			name: "https with .git",
			url:  "https://github.com/org/rules.git",
			want: GitURLInfo{Host: "github.com", Owner: "org", Repo: "rules"},
		},
		{
			name: "https without .git",
			url:  "https://github.com/org/rules",
			want: GitURLInfo{Host: "github.com", Owner: "org", Repo: "rules"},
		},
		{
			name: "http enterprise host",
			url:  "http://git.corp.example/team/rules.git",
			want: GitURLInfo{Host: "git.corp.example", Owner: "team", Repo: "rules"},
		},
		{
			name: "surrounding whitespace trimmed",
			url:  "  https://github.com/org/rules.git  ",
			want: GitURLInfo{Host: "github.com", Owner: "org", Repo: "rules"},
		},
		{
			name:    "missing host",
			url:     "/org/rules.git",
			wantErr: "missing host",
		},
		{
			name:    "path without owner and repo",
			url:     "https://github.com",
			wantErr: "owner/repo",
		},
		{
			name:    "path with only owner",
			url:     "https://github.com/org",
			wantErr: "owner/repo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGitURL(tt.url)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("ParseGitURL(%q) = %+v, want error containing %q", tt.url, got, tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("ParseGitURL(%q) error = %q, want substring %q", tt.url, err.Error(), tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseGitURL(%q) unexpected error: %v", tt.url, err)
			}
			if got != tt.want {
				t.Errorf("ParseGitURL(%q) = %+v, want %+v", tt.url, got, tt.want)
			}
		})
	}
}

func TestGitURLInfoHTTPS(t *testing.T) {
	info := GitURLInfo{Host: "github.com", Owner: "org", Repo: "rules"}
	if got := info.HTTPS(); got != "https://github.com/org/rules.git" {
		t.Errorf("HTTPS() = %q", got)
	}
}

func TestSameRemote(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{"identical https", "https://github.com/org/rules.git", "https://github.com/org/rules.git", true},
		{"ssh vs https", "git@github.com:org/rules.git", "https://github.com/org/rules.git", true},
		{"missing .git suffix", "https://github.com/org/rules", "https://github.com/org/rules.git", true},
		{"http vs https", "http://github.com/org/rules", "https://github.com/org/rules", true},
		{"different repo", "https://github.com/org/rules", "https://github.com/org/other", false},
		{"different owner", "https://github.com/org/rules", "https://github.com/fork/rules", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sameRemote(tt.a, tt.b); got != tt.want {
				t.Errorf("sameRemote(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
