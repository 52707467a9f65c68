package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/CodeAnt-AI/codeant-scripts/pkg/codeant"
	"github.com/CodeAnt-AI/codeant-scripts/pkg/coverage"
	"github.com/ca-risken/common/pkg/logging"
	"github.com/gassara-kys/envconfig"
)

var appLogger = logging.NewLogger()

type AppConfig struct {
	Debug string `default:"false"`

	APIBaseURL  string `envconfig:"codeant_api_base_url" default:"https://api.codeant.ai"`
	AccessToken string `envconfig:"codeant_access_token" required:"true"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	file := flag.String("file", "", "coverage report file to upload")
	repo := flag.String("repo", "", "repository in owner/name form")
	platform := flag.String("platform", codeant.ServiceGitHub, "hosting platform: github|gitlab|bitbucket|azuredevops")
	commit := flag.String("commit", "", "commit SHA the coverage belongs to")
	module := flag.String("module", "", "module name for multi-module repositories (optional)")
	flag.Parse()

	var conf AppConfig
	if err := envconfig.Process("", &conf); err != nil {
		appLogger.Fatal(ctx, err.Error())
	}
	if conf.Debug == "true" {
		appLogger.Level(logging.DebugLevel)
	}

	req := &codeant.CoverageRequest{
		Repo:        *repo,
		Platform:    *platform,
		CommitID:    *commit,
		AccessToken: conf.AccessToken,
		Module:      *module,
	}
	if err := req.Validate(); err != nil {
		appLogger.Fatalf(ctx, "Invalid coverage request: err=%+v", err)
	}
	if *file == "" {
		appLogger.Errorf(ctx, "Coverage file is required (-file)")
		os.Exit(coverage.ExitMissingFile)
	}

	client := codeant.NewClient(ctx, conf.APIBaseURL, conf.AccessToken, appLogger)
	uploader := coverage.NewUploader(client, appLogger)

	appLogger.Infof(ctx, "Uploading coverage: repo=%s, platform=%s, commit=%s, file=%s", req.Repo, req.Platform, req.CommitID, *file)
	if err := uploader.Upload(ctx, req, *file); err != nil {
		appLogger.Errorf(ctx, "Coverage upload failed: err=%+v", err)
		var exitErr *coverage.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
