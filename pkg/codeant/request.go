package codeant

import (
	"fmt"

	"github.com/vikyd/zero"
)

// Supported repository hosting services.
const (
	ServiceGitHub      = "github"
	ServiceGitLab      = "gitlab"
	ServiceBitbucket   = "bitbucket"
	ServiceAzureDevops = "azuredevops"
)

var supportedServices = map[string]bool{
	ServiceGitHub:      true,
	ServiceGitLab:      true,
	ServiceBitbucket:   true,
	ServiceAzureDevops: true,
}

// ScanRequest is the JSON payload shared by the scan trigger and the result
// endpoints. AccessToken is a secret and must never appear in log output.
type ScanRequest struct {
	Repo        string `json:"repo"`
	Service     string `json:"service"`
	CommitID    string `json:"commit_id"`
	AccessToken string `json:"access_token"`

	Branch       string `json:"branch,omitempty"`
	IncludeFiles string `json:"include_files,omitempty"`
	ExcludeFiles string `json:"exclude_files,omitempty"`
	Module       string `json:"module,omitempty"`

	// Base URL overrides for self-hosted installations.
	GithubBaseURL      string `json:"github_base_url,omitempty"`
	GitlabBaseURL      string `json:"gitlab_base_url,omitempty"`
	BitbucketBaseURL   string `json:"bitbucket_base_url,omitempty"`
	AzureDevopsBaseURL string `json:"azuredevops_base_url,omitempty"`
}

// Validate checks required fields before any network call is made.
func (r *ScanRequest) Validate() error {
	if zero.IsZeroVal(r.Repo) {
		return fmt.Errorf("required: repo")
	}
	if zero.IsZeroVal(r.CommitID) {
		return fmt.Errorf("required: commit_id")
	}
	if zero.IsZeroVal(r.AccessToken) {
		return fmt.Errorf("required: access_token")
	}
	if !supportedServices[r.Service] {
		return fmt.Errorf("unsupported service: %s", r.Service)
	}
	return nil
}

// CoverageRequest identifies the scan that a coverage report belongs to. It
// is sent on both the presign and the completion call.
type CoverageRequest struct {
	Repo        string `json:"repo"`
	Platform    string `json:"platform"`
	CommitID    string `json:"commit_id"`
	AccessToken string `json:"access_token"`
	Module      string `json:"module,omitempty"`
}

func (r *CoverageRequest) Validate() error {
	if zero.IsZeroVal(r.Repo) {
		return fmt.Errorf("required: repo")
	}
	if zero.IsZeroVal(r.CommitID) {
		return fmt.Errorf("required: commit_id")
	}
	if zero.IsZeroVal(r.AccessToken) {
		return fmt.Errorf("required: access_token")
	}
	if !supportedServices[r.Platform] {
		return fmt.Errorf("unsupported platform: %s", r.Platform)
	}
	return nil
}
