package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CodeAnt-AI/codeant-scripts/pkg/codeant"
	"github.com/CodeAnt-AI/codeant-scripts/pkg/report"
	"github.com/CodeAnt-AI/codeant-scripts/pkg/scan"
	"github.com/ca-risken/common/pkg/logging"
	"github.com/gassara-kys/envconfig"
)

var appLogger = logging.NewLogger()

type AppConfig struct {
	Debug string `default:"false"`

	APIBaseURL  string `envconfig:"codeant_api_base_url" default:"https://api.codeant.ai"`
	AccessToken string `envconfig:"codeant_access_token" required:"true"`

	TimeoutSeconds      int    `split_words:"true" default:"600"`
	PollIntervalSeconds int    `split_words:"true" default:"10"`
	ResultsFile         string `split_words:"true" default:"codeant_scan_results.json"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo := flag.String("repo", "", "repository in owner/name form")
	service := flag.String("service", codeant.ServiceGitHub, "hosting service: github|gitlab|bitbucket|azuredevops")
	commit := flag.String("commit", "", "commit SHA to scan")
	branch := flag.String("branch", "", "branch name (optional)")
	include := flag.String("include", "", "include file glob (optional)")
	exclude := flag.String("exclude", "", "exclude file glob (optional)")
	module := flag.String("module", "", "module name for multi-module repositories (optional)")
	configPath := flag.String("config", "", "optional config file with base URL overrides and poll tuning")
	noWait := flag.Bool("no-wait", false, "trigger the scan and exit without polling results")
	output := flag.String("output", "", "results file path (overrides RESULTS_FILE)")
	timeout := flag.Int("timeout", 0, "poll timeout in seconds (overrides TIMEOUT_SECONDS)")
	interval := flag.Int("interval", 0, "poll interval in seconds (overrides POLL_INTERVAL_SECONDS)")
	flag.Parse()

	var conf AppConfig
	if err := envconfig.Process("", &conf); err != nil {
		appLogger.Fatal(ctx, err.Error())
	}
	if conf.Debug == "true" {
		appLogger.Level(logging.DebugLevel)
	}
	if *output != "" {
		conf.ResultsFile = *output
	}
	if *timeout > 0 {
		conf.TimeoutSeconds = *timeout
	}
	if *interval > 0 {
		conf.PollIntervalSeconds = *interval
	}

	req := &codeant.ScanRequest{
		Repo:         *repo,
		Service:      *service,
		CommitID:     *commit,
		AccessToken:  conf.AccessToken,
		Branch:       *branch,
		IncludeFiles: *include,
		ExcludeFiles: *exclude,
		Module:       *module,
	}
	if *configPath != "" {
		fileConf, err := codeant.LoadFileConfig(*configPath)
		if err != nil {
			appLogger.Fatalf(ctx, "Failed to load config file %s: err=%+v", *configPath, err)
		}
		fileConf.ApplyTo(req)
		if *timeout == 0 && fileConf.TimeoutSeconds > 0 {
			conf.TimeoutSeconds = fileConf.TimeoutSeconds
		}
		if *interval == 0 && fileConf.PollIntervalSeconds > 0 {
			conf.PollIntervalSeconds = fileConf.PollIntervalSeconds
		}
	}
	if err := req.Validate(); err != nil {
		appLogger.Fatalf(ctx, "Invalid scan request: err=%+v", err)
	}

	client := codeant.NewClient(ctx, conf.APIBaseURL, conf.AccessToken, appLogger)

	appLogger.Infof(ctx, "Triggering scan: repo=%s, service=%s, commit=%s", req.Repo, req.Service, req.CommitID)
	trigger, err := client.StartScan(ctx, req)
	if err != nil {
		appLogger.Fatalf(ctx, "Failed to trigger scan: err=%+v", err)
	}
	if !trigger.Success {
		appLogger.Fatalf(ctx, "Scan trigger rejected: %s", trigger.Error)
	}

	if *noWait {
		result := scan.NewTriggeredResult(trigger.Response)
		finish(ctx, result, conf.ResultsFile)
		return
	}

	poller := scan.NewPoller(
		client,
		time.Duration(conf.TimeoutSeconds)*time.Second,
		time.Duration(conf.PollIntervalSeconds)*time.Second,
		appLogger,
	)
	state, err := poller.Poll(ctx, req)
	if err != nil {
		appLogger.Fatalf(ctx, "Polling aborted: err=%+v", err)
	}

	result := scan.BuildFinalResult(state)
	finish(ctx, result, conf.ResultsFile)
	os.Exit(result.ExitCode())
}

// finish prints the final JSON blob to stdout and persists it to the results
// file so calling automation can inspect it after process exit.
func finish(ctx context.Context, result *scan.FinalResult, path string) {
	blob, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		appLogger.Fatalf(ctx, "Failed to marshal final result: err=%+v", err)
	}
	fmt.Println(string(blob))
	if err := report.Write(path, result); err != nil {
		appLogger.Errorf(ctx, "Failed to write results file: err=%+v", err)
	}
	appLogger.Infof(ctx, "Scan finished: status=%s, results_file=%s", result.Status, path)
}
