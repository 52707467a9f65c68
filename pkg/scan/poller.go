package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/CodeAnt-AI/codeant-scripts/pkg/codeant"
	"github.com/ca-risken/common/pkg/logging"
)

// pollKinds is the fixed fetch order within one iteration. Kinds never block
// each other: a kind that is already found stops being polled while the
// other continues.
var pollKinds = []codeant.ResultKind{codeant.KindSecurity, codeant.KindSCA}

// resultFetcher is implemented by codeant.Client.
type resultFetcher interface {
	FetchResult(ctx context.Context, req *codeant.ScanRequest, kind codeant.ResultKind) (*codeant.FetchResult, error)
}

type kindState struct {
	found bool
	data  any
}

// AggregateState accumulates per-kind results across poll iterations. Found
// flags are monotonic: once a kind is found its data is frozen, while a
// still-pending kind may have its snapshot overwritten by later fetches.
type AggregateState struct {
	kinds    map[codeant.ResultKind]*kindState
	Attempts int
	Elapsed  time.Duration
}

func newAggregateState() *AggregateState {
	kinds := make(map[codeant.ResultKind]*kindState, len(pollKinds))
	for _, k := range pollKinds {
		kinds[k] = &kindState{}
	}
	return &AggregateState{kinds: kinds}
}

func (s *AggregateState) Found(kind codeant.ResultKind) bool {
	return s.kinds[kind].found
}

func (s *AggregateState) Data(kind codeant.ResultKind) any {
	return s.kinds[kind].data
}

func (s *AggregateState) setReady(kind codeant.ResultKind, data any) {
	ks := s.kinds[kind]
	if ks.found {
		return
	}
	ks.found = true
	ks.data = data
}

func (s *AggregateState) setSnapshot(kind codeant.ResultKind, data any) {
	ks := s.kinds[kind]
	if ks.found || data == nil {
		return
	}
	ks.data = data
}

func (s *AggregateState) allFound() bool {
	for _, ks := range s.kinds {
		if !ks.found {
			return false
		}
	}
	return true
}

func (s *AggregateState) anyFound() bool {
	for _, ks := range s.kinds {
		if ks.found {
			return true
		}
	}
	return false
}

// Poller drives the result-fetch loop: each iteration fetches every not yet
// found kind sequentially, then sleeps for the configured interval. The
// deadline is measured from a fixed start timestamp and checked at the top
// of every iteration.
type Poller struct {
	fetcher  resultFetcher
	timeout  time.Duration
	interval time.Duration
	logger   logging.Logger
}

func NewPoller(fetcher resultFetcher, timeout, interval time.Duration, l logging.Logger) *Poller {
	return &Poller{
		fetcher:  fetcher,
		timeout:  timeout,
		interval: interval,
		logger:   l,
	}
}

// Poll blocks until every kind is ready, the deadline passes, or a fatal
// condition occurs. The accumulated state is always returned; err is non-nil
// only for authentication failure or context cancellation, both of which
// abort immediately regardless of remaining timeout budget.
func (p *Poller) Poll(ctx context.Context, req *codeant.ScanRequest) (*AggregateState, error) {
	start := time.Now()
	state := newAggregateState()
	for {
		if elapsed := time.Since(start); elapsed >= p.timeout {
			state.Elapsed = elapsed
			if state.anyFound() {
				p.logger.Warnf(ctx, "Polling timed out with partial results: elapsed=%.1fs, attempts=%d", elapsed.Seconds(), state.Attempts)
			} else {
				p.logger.Errorf(ctx, "Polling timed out with no results: elapsed=%.1fs, attempts=%d", elapsed.Seconds(), state.Attempts)
			}
			return state, nil
		}

		state.Attempts++
		for _, kind := range pollKinds {
			if state.Found(kind) {
				continue
			}
			res, err := p.fetcher.FetchResult(ctx, req, kind)
			if err != nil {
				if errors.Is(err, codeant.ErrAuthentication) {
					state.Elapsed = time.Since(start)
					return state, fmt.Errorf("polling aborted: %w", err)
				}
				p.logger.Warnf(ctx, "Failed to fetch %s results, will keep polling: err=%+v", kind, err)
				continue
			}
			switch res.Outcome {
			case codeant.OutcomeReady:
				state.setReady(kind, res.Data)
				p.logger.Infof(ctx, "Got %s results: attempts=%d, elapsed=%.1fs", kind, state.Attempts, time.Since(start).Seconds())
			case codeant.OutcomePending:
				state.setSnapshot(kind, res.Data)
				p.logger.Infof(ctx, "%s results still pending: attempts=%d", kind, state.Attempts)
			case codeant.OutcomeNotFound:
				p.logger.Debugf(ctx, "%s results not available yet: attempts=%d", kind, state.Attempts)
			case codeant.OutcomeError:
				p.logger.Warnf(ctx, "Error fetching %s results, will keep polling: %s", kind, res.Message)
			}
		}

		if state.allFound() {
			state.Elapsed = time.Since(start)
			p.logger.Infof(ctx, "All results retrieved: attempts=%d, elapsed=%.1fs", state.Attempts, state.Elapsed.Seconds())
			return state, nil
		}

		if err := sleepContext(ctx, p.interval); err != nil {
			state.Elapsed = time.Since(start)
			return state, err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
