package runner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/kuitang/landingcheck/internal/config"
	"github.com/kuitang/landingcheck/internal/errs"
	"github.com/kuitang/landingcheck/internal/harness"
	"github.com/kuitang/landingcheck/internal/suite"
	"github.com/kuitang/landingcheck/internal/viewport"
)

type fakeOpener struct {
	mu    sync.Mutex
	opens []string
	err   error
}

func (f *fakeOpener) NewSession(_ context.Context, project config.Project, vp *viewport.Viewport) (*harness.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := project.Name
	if vp != nil {
		key += "@" + vp.Key
	}
	f.opens = append(f.opens, key)
	if f.err != nil {
		return nil, f.err
	}
	return &harness.Session{}, nil
}

type fakeStore struct {
	mu   sync.Mutex
	keys []string
}

func (f *fakeStore) Put(_ context.Context, key string, data []byte, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	return "mem://" + key, nil
}

func testConfig(maxFailures int) *config.Config {
	cfg := config.Default()
	cfg.MaxFailures = maxFailures
	cfg.TestTimeout = 2 * time.Second
	cfg.Screenshot = config.ScreenshotOnlyOnFailure
	return cfg
}

func newTestRunner(cfg *config.Config, opener Opener, store *fakeStore) *Runner {
	var r *Runner
	if store == nil {
		r = New(cfg, opener, nil)
	} else {
		r = New(cfg, opener, store)
	}
	r.capture = func(*harness.Session) ([]byte, error) { return []byte("png"), nil }
	return r
}

func check(id string, absence suite.AbsencePolicy, run func(context.Context, *harness.Session) error) suite.Check {
	return suite.Check{ID: id, Name: id, Group: "fake", Absence: absence, Run: run}
}

func pass(context.Context, *harness.Session) error { return nil }

func fail(context.Context, *harness.Session) error { return errs.Assertf("hero not visible") }

func absent(context.Context, *harness.Session) error { return suite.Absent("FAQ item") }

func TestRun_StatusAccounting(t *testing.T) {
	cfg := testConfig(0)
	cfg.Projects = []config.Project{{Name: "chromium", Device: "Desktop Chrome"}}
	store := &fakeStore{}
	r := newTestRunner(cfg, &fakeOpener{}, store)

	summary, err := r.Run(context.Background(), []suite.Check{
		check("a/pass", suite.RequirePresent, pass),
		check("a/fail", suite.RequirePresent, fail),
		check("a/optional", suite.AllowAbsent, absent),
		check("a/required", suite.RequirePresent, absent),
	})
	require.NoError(t, err)
	require.NotEmpty(t, summary.RunID)
	require.Equal(t, []string{"chromium"}, summary.Projects)
	require.Len(t, summary.Results, 4)

	byID := map[string]Result{}
	for _, res := range summary.Results {
		byID[res.CheckID] = res
	}
	require.Equal(t, StatusPassed, byID["a/pass"].Status)
	require.Equal(t, StatusFailed, byID["a/fail"].Status)
	require.Equal(t, errs.AssertionFailed, byID["a/fail"].Code)
	require.Contains(t, byID["a/fail"].Message, "hero not visible")
	require.Equal(t, StatusVacuous, byID["a/optional"].Status)
	require.Equal(t, StatusFailed, byID["a/required"].Status)
	require.Equal(t, errs.PreconditionUnmet, byID["a/required"].Code)

	counts := summary.Counts()
	require.Equal(t, 1, counts[StatusPassed])
	require.Equal(t, 1, counts[StatusVacuous])
	require.Equal(t, 2, counts[StatusFailed])
	require.Equal(t, 0, counts[StatusNotRun])
	require.Len(t, summary.Failed(), 2)
	require.False(t, summary.OK())

	// Only failures get screenshots in only-on-failure mode.
	require.Len(t, store.keys, 2)
	for _, key := range store.keys {
		require.True(t, strings.HasPrefix(key, summary.RunID+"/chromium/"), key)
		require.True(t, strings.HasSuffix(key, ".png"), key)
	}
	require.Equal(t, "mem://"+store.keys[0], byID["a/fail"].Artifact)
}

func TestRun_MaxFailuresStopsTheRun(t *testing.T) {
	cfg := testConfig(1)
	opener := &fakeOpener{}
	r := newTestRunner(cfg, opener, nil)

	summary, err := r.Run(context.Background(), []suite.Check{
		check("a/pass", suite.RequirePresent, pass),
		check("a/fail", suite.RequirePresent, fail),
		check("a/later", suite.RequirePresent, pass),
	})
	require.NoError(t, err)
	require.Len(t, summary.Results, 3*len(cfg.Projects))

	counts := summary.Counts()
	require.Equal(t, 1, counts[StatusPassed])
	require.Equal(t, 1, counts[StatusFailed])
	require.Equal(t, len(summary.Results)-2, counts[StatusNotRun])
	require.Len(t, opener.opens, 2, "no sessions after the failure budget is spent")
	require.Contains(t, summary.Results[2].Message, "stopped after 1 failure")
}

func TestRun_UnlimitedFailuresRunsEverything(t *testing.T) {
	cfg := testConfig(0)
	r := newTestRunner(cfg, &fakeOpener{}, nil)

	summary, err := r.Run(context.Background(), []suite.Check{
		check("a/fail", suite.RequirePresent, fail),
		check("a/fail2", suite.RequirePresent, fail),
	})
	require.NoError(t, err)
	require.Equal(t, 2*len(cfg.Projects), summary.Counts()[StatusFailed])
	require.Zero(t, summary.Counts()[StatusNotRun])
}

func TestRun_PinnedViewportOverridesProject(t *testing.T) {
	cfg := testConfig(0)
	cfg.Projects = []config.Project{{Name: "chromium", Device: "Desktop Chrome"}}
	opener := &fakeOpener{}
	r := newTestRunner(cfg, opener, nil)

	pinned := check("matrix/hero/mobile_small", suite.RequirePresent, pass)
	vp := viewport.MobileSmall
	pinned.Viewport = &vp

	summary, err := r.Run(context.Background(), []suite.Check{pinned, check("a/pass", suite.RequirePresent, pass)})
	require.NoError(t, err)
	require.Equal(t, []string{"chromium@mobile_small", "chromium"}, opener.opens)
	require.Equal(t, "mobile_small", summary.Results[0].Viewport)
	require.True(t, summary.OK())
}

func TestRun_TestTimeout(t *testing.T) {
	cfg := testConfig(0)
	cfg.TestTimeout = 50 * time.Millisecond
	cfg.Projects = cfg.Projects[:1]
	store := &fakeStore{}
	r := newTestRunner(cfg, &fakeOpener{}, store)

	summary, err := r.Run(context.Background(), []suite.Check{
		check("a/hang", suite.RequirePresent, func(ctx context.Context, _ *harness.Session) error {
			<-ctx.Done()
			return ctx.Err()
		}),
		check("a/pass", suite.RequirePresent, pass),
	})
	require.NoError(t, err)
	require.Equal(t, StatusTimedOut, summary.Results[0].Status)
	require.Equal(t, errs.Timeout, summary.Results[0].Code)
	require.Contains(t, summary.Results[0].Message, "test timeout of 50ms exceeded")
	require.NotEmpty(t, summary.Results[0].Artifact)
	require.Equal(t, StatusPassed, summary.Results[1].Status)
}

func TestRun_PanicIsAFailure(t *testing.T) {
	cfg := testConfig(0)
	cfg.Projects = cfg.Projects[:1]
	r := newTestRunner(cfg, &fakeOpener{}, nil)

	summary, err := r.Run(context.Background(), []suite.Check{
		check("a/panic", suite.RequirePresent, func(context.Context, *harness.Session) error { panic("boom") }),
	})
	require.NoError(t, err)
	require.Equal(t, StatusFailed, summary.Results[0].Status)
	require.Equal(t, errs.Internal, summary.Results[0].Code)
	require.Contains(t, summary.Results[0].Message, "boom")
}

func TestRun_SessionErrorFailsCheck(t *testing.T) {
	cfg := testConfig(0)
	cfg.Projects = cfg.Projects[:1]
	r := newTestRunner(cfg, &fakeOpener{err: errs.New(errs.Unavailable, "browser closed")}, nil)

	summary, err := r.Run(context.Background(), []suite.Check{check("a/pass", suite.RequirePresent, pass)})
	require.NoError(t, err)
	require.Equal(t, StatusFailed, summary.Results[0].Status)
	require.Equal(t, errs.Unavailable, summary.Results[0].Code)
}

func TestRun_CancelledContextMarksNotRun(t *testing.T) {
	cfg := testConfig(0)
	r := newTestRunner(cfg, &fakeOpener{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := r.Run(ctx, []suite.Check{check("a/pass", suite.RequirePresent, pass)})
	require.NoError(t, err)
	for _, res := range summary.Results {
		require.Equal(t, StatusNotRun, res.Status)
	}
	require.False(t, summary.OK())
}

func TestRun_ScreenshotModes(t *testing.T) {
	for _, tc := range []struct {
		mode string
		want int
	}{
		{config.ScreenshotOff, 0},
		{config.ScreenshotOnlyOnFailure, 1},
		{config.ScreenshotOn, 2},
	} {
		t.Run(tc.mode, func(t *testing.T) {
			cfg := testConfig(0)
			cfg.Projects = cfg.Projects[:1]
			cfg.Screenshot = tc.mode
			store := &fakeStore{}
			r := newTestRunner(cfg, &fakeOpener{}, store)
			_, err := r.Run(context.Background(), []suite.Check{
				check("a/pass", suite.RequirePresent, pass),
				check("a/fail", suite.RequirePresent, fail),
			})
			require.NoError(t, err)
			require.Len(t, store.keys, tc.want)
		})
	}
}

func TestRun_ScreenshotFailureDoesNotFailCheck(t *testing.T) {
	cfg := testConfig(0)
	cfg.Projects = cfg.Projects[:1]
	cfg.Screenshot = config.ScreenshotOn
	r := newTestRunner(cfg, &fakeOpener{}, &fakeStore{})
	r.capture = func(*harness.Session) ([]byte, error) { return nil, errors.New("no page") }

	summary, err := r.Run(context.Background(), []suite.Check{check("a/pass", suite.RequirePresent, pass)})
	require.NoError(t, err)
	require.Equal(t, StatusPassed, summary.Results[0].Status)
	require.Empty(t, summary.Results[0].Artifact)
}

func TestRun_RejectsEmptyInput(t *testing.T) {
	cfg := testConfig(0)
	r := newTestRunner(cfg, &fakeOpener{}, nil)
	_, err := r.Run(context.Background(), nil)
	require.Equal(t, errs.InvalidArgument, errs.CodeOf(err))

	cfg.Projects = nil
	_, err = r.Run(context.Background(), []suite.Check{check("a/pass", suite.RequirePresent, pass)})
	require.Equal(t, errs.InvalidArgument, errs.CodeOf(err))
}

func testRun_FailureBudget(t *rapid.T) {
	maxFailures := rapid.IntRange(0, 4).Draw(t, "maxFailures")
	outcomes := rapid.SliceOfN(rapid.Bool(), 1, 12).Draw(t, "passes")
	projects := rapid.IntRange(1, 2).Draw(t, "projects")

	cfg := testConfig(maxFailures)
	cfg.Projects = config.DefaultProjects()[:projects]
	r := newTestRunner(cfg, &fakeOpener{}, nil)

	var checks []suite.Check
	for i, ok := range outcomes {
		run := fail
		if ok {
			run = pass
		}
		checks = append(checks, check("c/"+string(rune('a'+i)), suite.RequirePresent, run))
	}

	summary, err := r.Run(context.Background(), checks)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(summary.Results) != len(checks)*projects {
		t.Fatalf("got %d results, want %d", len(summary.Results), len(checks)*projects)
	}

	failures := 0
	for _, res := range summary.Results {
		budgetSpent := maxFailures > 0 && failures >= maxFailures
		if budgetSpent != (res.Status == StatusNotRun) {
			t.Fatalf("%s/%s status %s with %d failures (max %d)", res.Project, res.CheckID, res.Status, failures, maxFailures)
		}
		if res.Status.IsFailure() {
			failures++
		}
	}
	if maxFailures > 0 && failures > maxFailures {
		t.Fatalf("recorded %d failures, max %d", failures, maxFailures)
	}
}

func TestRun_FailureBudget(t *testing.T) {
	rapid.Check(t, testRun_FailureBudget)
}
