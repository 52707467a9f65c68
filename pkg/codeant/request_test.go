package codeant

import "testing"

func TestValidateScanRequest(t *testing.T) {
	cases := []struct {
		name    string
		input   *ScanRequest
		wantErr bool
	}{
		{
			name: "OK",
			input: &ScanRequest{
				Repo:        "org/repo",
				Service:     ServiceGitHub,
				CommitID:    "abc123",
				AccessToken: "token",
			},
		},
		{
			name: "OK with optional fields",
			input: &ScanRequest{
				Repo:          "org/repo",
				Service:       ServiceGitLab,
				CommitID:      "abc123",
				AccessToken:   "token",
				Branch:        "main",
				IncludeFiles:  "src/**",
				ExcludeFiles:  "vendor/**",
				GitlabBaseURL: "https://gitlab.example.com",
			},
		},
		{
			name: "NG missing repo",
			input: &ScanRequest{
				Service:     ServiceGitHub,
				CommitID:    "abc123",
				AccessToken: "token",
			},
			wantErr: true,
		},
		{
			name: "NG missing commit",
			input: &ScanRequest{
				Repo:        "org/repo",
				Service:     ServiceGitHub,
				AccessToken: "token",
			},
			wantErr: true,
		},
		{
			name: "NG missing token",
			input: &ScanRequest{
				Repo:     "org/repo",
				Service:  ServiceGitHub,
				CommitID: "abc123",
			},
			wantErr: true,
		},
		{
			name: "NG unsupported service",
			input: &ScanRequest{
				Repo:        "org/repo",
				Service:     "sourceforge",
				CommitID:    "abc123",
				AccessToken: "token",
			},
			wantErr: true,
		},
		{
			name: "NG empty service",
			input: &ScanRequest{
				Repo:        "org/repo",
				CommitID:    "abc123",
				AccessToken: "token",
			},
			wantErr: true,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.input.Validate()
			if c.wantErr && err == nil {
				t.Fatal("Unexpected no error")
			}
			if !c.wantErr && err != nil {
				t.Fatalf("Unexpected error occured, err=%+v", err)
			}
		})
	}
}

func TestValidateCoverageRequest(t *testing.T) {
	cases := []struct {
		name    string
		input   *CoverageRequest
		wantErr bool
	}{
		{
			name: "OK",
			input: &CoverageRequest{
				Repo:        "org/repo",
				Platform:    ServiceBitbucket,
				CommitID:    "abc123",
				AccessToken: "token",
			},
		},
		{
			name: "NG missing repo",
			input: &CoverageRequest{
				Platform:    ServiceGitHub,
				CommitID:    "abc123",
				AccessToken: "token",
			},
			wantErr: true,
		},
		{
			name: "NG unsupported platform",
			input: &CoverageRequest{
				Repo:        "org/repo",
				Platform:    "svn",
				CommitID:    "abc123",
				AccessToken: "token",
			},
			wantErr: true,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.input.Validate()
			if c.wantErr && err == nil {
				t.Fatal("Unexpected no error")
			}
			if !c.wantErr && err != nil {
				t.Fatalf("Unexpected error occured, err=%+v", err)
			}
		})
	}
}
