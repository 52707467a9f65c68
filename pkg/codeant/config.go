package codeant

import (
	"fmt"

	"github.com/spf13/viper"
)

// FileConfig is an optional config file for settings that rarely change per
// run: base URL overrides for self-hosted installations, default file globs
// and poll tuning. Any format viper understands (YAML, TOML, JSON) works.
type FileConfig struct {
	GithubBaseURL      string `mapstructure:"github_base_url"`
	GitlabBaseURL      string `mapstructure:"gitlab_base_url"`
	BitbucketBaseURL   string `mapstructure:"bitbucket_base_url"`
	AzureDevopsBaseURL string `mapstructure:"azuredevops_base_url"`

	IncludeFiles string `mapstructure:"include_files"`
	ExcludeFiles string `mapstructure:"exclude_files"`

	TimeoutSeconds      int `mapstructure:"timeout_seconds"`
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds"`
}

func LoadFileConfig(path string) (*FileConfig, error) {
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var conf FileConfig
	if err := viper.Unmarshal(&conf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
	}
	return &conf, nil
}

// ApplyTo fills request fields that were not set on the command line.
func (c *FileConfig) ApplyTo(req *ScanRequest) {
	if req.GithubBaseURL == "" {
		req.GithubBaseURL = c.GithubBaseURL
	}
	if req.GitlabBaseURL == "" {
		req.GitlabBaseURL = c.GitlabBaseURL
	}
	if req.BitbucketBaseURL == "" {
		req.BitbucketBaseURL = c.BitbucketBaseURL
	}
	if req.AzureDevopsBaseURL == "" {
		req.AzureDevopsBaseURL = c.AzureDevopsBaseURL
	}
	if req.IncludeFiles == "" {
		req.IncludeFiles = c.IncludeFiles
	}
	if req.ExcludeFiles == "" {
		req.ExcludeFiles = c.ExcludeFiles
	}
}
