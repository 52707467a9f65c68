package scan

import "github.com/CodeAnt-AI/codeant-scripts/pkg/codeant"

// Final scan statuses.
const (
	StatusSuccess   = "success"
	StatusPartial   = "partial"
	StatusFailed    = "failed"
	StatusTriggered = "triggered"
)

// FinalResult is the summary produced once at loop exit. It is printed to
// stdout and written to the results file so calling automation can inspect
// it after the process exits.
type FinalResult struct {
	Status                  string  `json:"status"`
	SecurityFound           bool    `json:"security_found"`
	ScaFound                bool    `json:"sca_found"`
	SecurityIssues          []any   `json:"security_issues"`
	ScaVulnerabilities      []any   `json:"sca_vulnerabilities"`
	SecurityIssuesCount     int     `json:"security_issues_count"`
	ScaVulnerabilitiesCount int     `json:"sca_vulnerabilities_count"`
	Attempts                int     `json:"attempts,omitempty"`
	ElapsedSeconds          float64 `json:"elapsed_seconds,omitempty"`
	TriggerResponse         any     `json:"trigger_response,omitempty"`
}

// BuildFinalResult maps the accumulated poll state to the final summary.
// Issue lists are extracted only for kinds whose found-flag is set; a
// pending snapshot alone does not count as a result.
func BuildFinalResult(state *AggregateState) *FinalResult {
	securityFound := state.Found(codeant.KindSecurity)
	scaFound := state.Found(codeant.KindSCA)

	status := StatusFailed
	switch {
	case securityFound && scaFound:
		status = StatusSuccess
	case securityFound || scaFound:
		status = StatusPartial
	}

	securityIssues := []any{}
	if securityFound {
		securityIssues = ExtractIssues(state.Data(codeant.KindSecurity), codeant.KindSecurity.ListField())
	}
	scaVulnerabilities := []any{}
	if scaFound {
		scaVulnerabilities = ExtractIssues(state.Data(codeant.KindSCA), codeant.KindSCA.ListField())
	}

	return &FinalResult{
		Status:                  status,
		SecurityFound:           securityFound,
		ScaFound:                scaFound,
		SecurityIssues:          securityIssues,
		ScaVulnerabilities:      scaVulnerabilities,
		SecurityIssuesCount:     len(securityIssues),
		ScaVulnerabilitiesCount: len(scaVulnerabilities),
		Attempts:                state.Attempts,
		ElapsedSeconds:          state.Elapsed.Seconds(),
	}
}

// NewTriggeredResult is the no-wait mode summary: the scan was started but
// results were not polled.
func NewTriggeredResult(triggerResponse any) *FinalResult {
	return &FinalResult{
		Status:             StatusTriggered,
		SecurityIssues:     []any{},
		ScaVulnerabilities: []any{},
		TriggerResponse:    triggerResponse,
	}
}

// ExitCode maps the final status to the process exit code. Partial results
// still exit 0, matching the existing script behavior.
func (r *FinalResult) ExitCode() int {
	if r.Status == StatusFailed {
		return 1
	}
	return 0
}
