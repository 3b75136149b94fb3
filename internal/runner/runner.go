// Package runner executes suite checks against browser sessions, one at a
// time, and collects their outcomes into a Summary.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kuitang/landingcheck/internal/artifacts"
	"github.com/kuitang/landingcheck/internal/config"
	"github.com/kuitang/landingcheck/internal/errs"
	"github.com/kuitang/landingcheck/internal/harness"
	"github.com/kuitang/landingcheck/internal/obs"
	"github.com/kuitang/landingcheck/internal/suite"
	"github.com/kuitang/landingcheck/internal/viewport"
)

// Status is the outcome of one check under one project.
type Status string

const (
	StatusPassed   Status = "passed"
	StatusFailed   Status = "failed"
	StatusTimedOut Status = "timed_out"
	StatusVacuous  Status = "vacuous"
	StatusNotRun   Status = "not_run"
)

// Statuses lists every status in report order.
func Statuses() []Status {
	return []Status{StatusPassed, StatusVacuous, StatusFailed, StatusTimedOut, StatusNotRun}
}

// IsFailure reports whether the status counts toward the failure limit.
func (s Status) IsFailure() bool {
	return s == StatusFailed || s == StatusTimedOut
}

// captureGrace bounds screenshot capture and check teardown after a timeout.
const captureGrace = 5 * time.Second

// Opener creates isolated page sessions. *harness.Browser satisfies it.
type Opener interface {
	NewSession(ctx context.Context, project config.Project, vp *viewport.Viewport) (*harness.Session, error)
}

// Result is one check's outcome.
type Result struct {
	CheckID  string
	Name     string
	Group    string
	Project  string
	Viewport string
	Status   Status
	Code     errs.Code
	Message  string
	Duration time.Duration
	Artifact string
}

// Summary is the outcome of a whole run.
type Summary struct {
	RunID     string
	BaseURL   string
	Projects  []string
	StartedAt time.Time
	Duration  time.Duration
	Results   []Result
}

// Failed returns failed and timed-out results in execution order.
func (s *Summary) Failed() []Result {
	var out []Result
	for _, r := range s.Results {
		if r.Status.IsFailure() {
			out = append(out, r)
		}
	}
	return out
}

// Counts tallies results by status. Every status has an entry.
func (s *Summary) Counts() map[Status]int {
	counts := make(map[Status]int, len(Statuses()))
	for _, st := range Statuses() {
		counts[st] = 0
	}
	for _, r := range s.Results {
		counts[r.Status]++
	}
	return counts
}

// OK reports a clean run: at least one result and nothing failed, timed
// out or skipped for lack of budget.
func (s *Summary) OK() bool {
	if len(s.Results) == 0 {
		return false
	}
	c := s.Counts()
	return c[StatusFailed] == 0 && c[StatusTimedOut] == 0 && c[StatusNotRun] == 0
}

// Runner runs checks serially.
type Runner struct {
	cfg     *config.Config
	browser Opener
	store   artifacts.Store
	log     *slog.Logger
	capture func(*harness.Session) ([]byte, error)
}

// New returns a runner. store may be nil, which disables screenshots.
func New(cfg *config.Config, browser Opener, store artifacts.Store) *Runner {
	return &Runner{
		cfg:     cfg,
		browser: browser,
		store:   store,
		log:     obs.Pkg("runner"),
		capture: (*harness.Session).Screenshot,
	}
}

// Run executes every check once per configured project, project by
// project. Once MaxFailures failures have been recorded, or ctx is
// cancelled, the remaining checks are reported as not_run.
func (r *Runner) Run(ctx context.Context, checks []suite.Check) (*Summary, error) {
	if len(checks) == 0 {
		return nil, errs.New(errs.InvalidArgument, "no checks selected")
	}
	if len(r.cfg.Projects) == 0 {
		return nil, errs.New(errs.InvalidArgument, "no projects configured")
	}

	summary := &Summary{
		RunID:     uuid.NewString(),
		BaseURL:   r.cfg.BaseURL,
		StartedAt: time.Now(),
	}
	ctx = obs.WithRun(ctx, summary.RunID)
	log := r.log.With("run_id", summary.RunID)
	log.Info("run_started",
		"checks", len(checks),
		"projects", len(r.cfg.Projects),
		"max_failures", r.cfg.MaxFailures,
	)

	failures := 0
	for _, project := range r.cfg.Projects {
		summary.Projects = append(summary.Projects, project.Name)
		for _, check := range checks {
			var res Result
			switch {
			case ctx.Err() != nil:
				res = notRun(check, project, "run cancelled")
			case r.cfg.MaxFailures > 0 && failures >= r.cfg.MaxFailures:
				res = notRun(check, project, fmt.Sprintf("stopped after %d failure(s)", failures))
			default:
				res = r.runOne(ctx, summary.RunID, project, check)
			}
			if res.Status.IsFailure() {
				failures++
			}
			summary.Results = append(summary.Results, res)
		}
	}

	summary.Duration = time.Since(summary.StartedAt)
	counts := summary.Counts()
	log.Info("run_finished",
		"duration_ms", summary.Duration.Milliseconds(),
		"passed", counts[StatusPassed],
		"vacuous", counts[StatusVacuous],
		"failed", counts[StatusFailed],
		"timed_out", counts[StatusTimedOut],
		"not_run", counts[StatusNotRun],
	)
	return summary, nil
}

func notRun(check suite.Check, project config.Project, why string) Result {
	return Result{
		CheckID:  check.ID,
		Name:     check.Name,
		Group:    check.Group,
		Project:  project.Name,
		Viewport: viewportKey(check.Viewport),
		Status:   StatusNotRun,
		Message:  why,
	}
}

func viewportKey(vp *viewport.Viewport) string {
	if vp == nil {
		return ""
	}
	return vp.Key
}

func (r *Runner) runOne(parent context.Context, runID string, project config.Project, check suite.Check) Result {
	start := time.Now()
	res := Result{
		CheckID:  check.ID,
		Name:     check.Name,
		Group:    check.Group,
		Project:  project.Name,
		Viewport: viewportKey(check.Viewport),
	}

	ctx, cancel := context.WithTimeout(parent, r.cfg.TestTimeout)
	defer cancel()
	ctx = obs.WithCheck(ctx, check.ID, project.Name, res.Viewport)
	log := obs.From(ctx).With("pkg", "runner")

	sess, err := r.browser.NewSession(ctx, project, check.Viewport)
	if err != nil {
		res.Status = StatusFailed
		res.Code = errs.Classify(err)
		res.Message = err.Error()
		res.Duration = time.Since(start)
		log.Error("session_failed", "error", err)
		return res
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			log.Debug("session_close_failed", "error", cerr)
		}
	}()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- errs.Newf(errs.Internal, "check panicked: %v", p)
			}
		}()
		done <- check.Run(ctx, sess)
	}()

	var runErr error
	timedOut, cancelled, closed := false, false, false
	select {
	case runErr = <-done:
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			timedOut = true
			res.Artifact = r.screenshot(parent, runID, project, check, sess, StatusTimedOut)
		}
		// Closing the context unblocks in-flight page calls.
		_ = sess.Close()
		closed = true
		select {
		case runErr = <-done:
		case <-time.After(captureGrace):
			log.Warn("check_did_not_stop", "grace", captureGrace.String())
		}
	}
	if runErr != nil || closed {
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			timedOut = true
			runErr = errs.Wrap(errs.Timeout, fmt.Sprintf("test timeout of %s exceeded", r.cfg.TestTimeout), ctx.Err())
		case parent.Err() != nil:
			cancelled = true
		}
	}

	res.Duration = time.Since(start)
	switch {
	case cancelled:
		res.Status = StatusNotRun
		res.Message = "run cancelled"
	case runErr == nil:
		res.Status = StatusPassed
	case timedOut:
		res.Status = StatusTimedOut
		res.Code = errs.Timeout
		res.Message = runErr.Error()
	case errs.IsSkip(runErr) && check.Absence == suite.AllowAbsent:
		res.Status = StatusVacuous
		res.Code = errs.PreconditionUnmet
		res.Message = errs.MessageOf(runErr)
	default:
		res.Status = StatusFailed
		res.Code = errs.Classify(runErr)
		res.Message = runErr.Error()
	}

	if res.Artifact == "" && !closed {
		res.Artifact = r.screenshot(parent, runID, project, check, sess, res.Status)
	}

	attrs := []any{"status", string(res.Status), "duration_ms", res.Duration.Milliseconds()}
	if res.Code != "" {
		attrs = append(attrs, "code", string(res.Code))
	}
	if res.Status.IsFailure() {
		log.Warn("check_finished", append(attrs, "message", res.Message)...)
	} else {
		log.Info("check_finished", attrs...)
	}
	return res
}

func (r *Runner) wantsScreenshot(st Status) bool {
	if r.store == nil {
		return false
	}
	switch r.cfg.Screenshot {
	case config.ScreenshotOn:
		return st != StatusNotRun
	case config.ScreenshotOnlyOnFailure:
		return st.IsFailure()
	default:
		return false
	}
}

// screenshot captures the page and uploads it, returning the artifact
// location or "" when either step fails.
func (r *Runner) screenshot(ctx context.Context, runID string, project config.Project, check suite.Check, sess *harness.Session, st Status) string {
	if !r.wantsScreenshot(st) {
		return ""
	}
	log := obs.From(ctx).With("pkg", "runner", "check", check.ID, "project", project.Name)

	type shot struct {
		png []byte
		err error
	}
	ch := make(chan shot, 1)
	go func() {
		png, err := r.capture(sess)
		ch <- shot{png, err}
	}()

	var got shot
	select {
	case got = <-ch:
	case <-time.After(captureGrace):
		log.Warn("screenshot_timed_out")
		return ""
	}
	if got.err != nil {
		log.Warn("screenshot_failed", "error", got.err)
		return ""
	}

	key := artifacts.Key(runID, project.Name, check.ID+".png")
	loc, err := r.store.Put(ctx, key, got.png, "image/png")
	if err != nil {
		log.Warn("screenshot_upload_failed", "key", key, "error", err)
		return ""
	}
	log.Info("screenshot_saved", "location", loc)
	return loc
}
