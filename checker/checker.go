// Package checker probes a list of URLs with a bounded worker pool and
// aggregates the outcomes into a status-code report. Results are collected by
// input position, so the report is identical to a sequential run regardless
// of how many workers are used.
package checker

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lukemcguire/sitemapcheck/progress"
	"github.com/lukemcguire/sitemapcheck/result"
)

// Checker coordinates URL checks across a worker pool.
type Checker struct {
	cfg     Config
	client  *http.Client
	limiter *AdaptiveLimiter
	events  chan<- progress.Event
}

// New creates a Checker. The events channel is optional; pass nil to disable
// progress events.
func New(cfg Config, events chan<- progress.Event) *Checker {
	defaults := DefaultConfig()
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaults.Concurrency
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaults.RequestTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaults.UserAgent
	}

	return &Checker{
		cfg:     cfg,
		client:  &http.Client{},
		limiter: newLimiter(cfg),
		events:  events,
	}
}

// Analyze checks every URL and builds the report. It returns
// result.ErrNoURLs for empty input and the context error if the run was
// cancelled before every URL was checked.
func (c *Checker) Analyze(ctx context.Context, urls []string) (*result.Report, error) {
	if len(urls) == 0 {
		return nil, result.ErrNoURLs
	}
	start := time.Now()

	progress.Send(ctx, c.events, progress.Event{Kind: progress.CheckStarted, Total: len(urls)})

	workers := min(c.cfg.Concurrency, len(urls))
	jobs := make(chan int, workers*3)
	outcomes := make(chan Outcome, workers*3)

	errGroup, groupCtx := errgroup.WithContext(ctx)

	errGroup.Go(func() error {
		defer close(jobs)
		for i := range urls {
			select {
			case jobs <- i:
			case <-groupCtx.Done():
				return nil
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		errGroup.Go(func() error {
			for i := range jobs {
				outcomes <- c.checkOne(groupCtx, i, urls[i])
			}
			return nil
		})
	}

	// Close outcomes once every worker has returned.
	done := make(chan error, 1)
	go func() {
		done <- errGroup.Wait()
		close(outcomes)
	}()

	slots := make([]*Outcome, len(urls))
	checked, failed := 0, 0
	for out := range outcomes {
		out := out // per-iteration copy (Go 1.22 loop semantics); slots keeps &out
		slots[out.Index] = &out
		checked++
		if out.Unreachable() || out.StatusCode != http.StatusOK {
			failed++
		}

		evt := progress.Event{
			Kind:       progress.URLChecked,
			URL:        out.URL,
			StatusCode: out.StatusCode,
			Checked:    checked,
			Total:      len(urls),
			Failed:     failed,
		}
		if out.Err != nil {
			evt.Error = out.Err.Error()
		}
		progress.Send(ctx, c.events, evt)
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("wait for workers: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	report := &result.Report{
		Total: len(urls),
		Tally: result.NewTally(),
	}
	for _, out := range slots {
		if out.Unreachable() {
			report.Tally.AddUnreachable()
			report.Unreachable = append(report.Unreachable, result.Failure{
				URL:           out.URL,
				Error:         out.Err.Error(),
				ErrorCategory: out.Category,
			})
			continue
		}
		report.Tally.Add(out.StatusCode)
		if out.StatusCode != http.StatusOK {
			report.Errors = append(report.Errors, result.ErrorRecord{URL: out.URL, StatusCode: out.StatusCode})
		}
	}
	report.Duration = time.Since(start)

	return report, nil
}

func (c *Checker) checkOne(ctx context.Context, index int, rawURL string) Outcome {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Outcome{
				Index:    index,
				URL:      rawURL,
				Err:      fmt.Errorf("rate limiter wait: %w", err),
				Category: result.ClassifyError(err),
			}
		}
	}

	out := CheckWithRetry(ctx, c.client, rawURL, c.cfg, c.cfg.RetryPolicy)
	out.Index = index

	if c.limiter != nil && !out.Unreachable() {
		c.limiter.ObserveRTT(out.Duration)
	}
	return out
}
