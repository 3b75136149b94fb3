package staticserver

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/kuitang/landingcheck/internal/config"
	"github.com/kuitang/landingcheck/internal/errs"
	"github.com/kuitang/landingcheck/internal/obs"
	"github.com/kuitang/landingcheck/internal/urlutil"
)

const pollInterval = 100 * time.Millisecond

// LogCapture collects subprocess output line by line.
type LogCapture struct {
	mu    sync.RWMutex
	lines []string
}

func (l *LogCapture) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range strings.Split(string(p), "\n") {
		if line != "" {
			l.lines = append(l.lines, line)
		}
	}
	return len(p), nil
}

// Lines returns a copy of all captured lines.
func (l *LogCapture) Lines() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	cp := make([]string, len(l.lines))
	copy(cp, l.lines)
	return cp
}

// Handle is a running (or reused) web server.
type Handle struct {
	URL    string
	Reused bool
	// Logs holds subprocess stderr when a command was started.
	Logs *LogCapture

	stop func(ctx context.Context) error
}

// Stop shuts down whatever EnsureRunning started. Reused servers are left alone.
func (h *Handle) Stop(ctx context.Context) error {
	if h == nil || h.stop == nil {
		return nil
	}
	stop := h.stop
	h.stop = nil
	return stop(ctx)
}

// EnsureRunning makes ws.URL reachable. A server already answering is
// reused when ReuseExisting is set and is a port conflict otherwise. With a
// Command the server runs as a subprocess; without one it runs in-process
// over opts.SiteDir.
func EnsureRunning(ctx context.Context, ws config.WebServer, opts Options) (*Handle, error) {
	logger := obs.From(ctx).With("pkg", "staticserver", "url", ws.URL)
	client := &http.Client{Timeout: 500 * time.Millisecond}

	if Reachable(ctx, client, ws.URL) {
		if !ws.ReuseExisting {
			return nil, errs.Newf(errs.Unavailable, "%s is already in use and reuseExistingServer is false", ws.URL)
		}
		logger.Info("web_server_reused")
		return &Handle{URL: ws.URL, Reused: true}, nil
	}

	var h *Handle
	var err error
	if ws.Command != "" {
		h, err = startCommand(ws, opts.SiteDir)
	} else {
		h, err = startInProcess(ctx, ws.URL, opts)
	}
	if err != nil {
		return nil, err
	}

	if err := waitReady(ctx, client, ws.URL, ws.StartupTimeout); err != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.Stop(stopCtx)
		if h.Logs != nil {
			if lines := h.Logs.Lines(); len(lines) > 0 {
				return nil, errs.Wrap(errs.CodeOf(err), "web server stderr:\n"+strings.Join(lines, "\n"), err)
			}
		}
		return nil, err
	}
	logger.Info("web_server_ready", "command", ws.Command)
	return h, nil
}

// Reachable reports whether rawURL answers with a status a browser could
// load the page from: 2xx, 3xx, or 400-403.
func Reachable(ctx context.Context, client *http.Client, rawURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode <= 403
}

func waitReady(ctx context.Context, client *http.Client, rawURL string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		if Reachable(ctx, client, rawURL) {
			return nil
		}
		select {
		case <-ctx.Done():
			return errs.Newf(errs.Timeout, "web server at %s not ready after %s", rawURL, timeout)
		case <-ticker.C:
		}
	}
}

func startCommand(ws config.WebServer, dir string) (*Handle, error) {
	logs := &LogCapture{}
	cmd := exec.Command("sh", "-c", ws.Command) //nolint:gosec // command comes from the user's own config
	cmd.Dir = dir
	cmd.Env = os.Environ()
	cmd.Stdout = streamFor(ws.Stdout, logs)
	cmd.Stderr = streamFor(ws.Stderr, logs)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return nil, errs.Wrap(errs.Unavailable, "start web server command", err)
	}
	obs.Pkg("staticserver").Info("web_server_command_started", "command", ws.Command, "pid", cmd.Process.Pid)

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	return &Handle{
		URL:  ws.URL,
		Logs: logs,
		stop: func(ctx context.Context) error {
			// Negative pid signals the whole process group (npx spawns children).
			_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
				<-done
				return ctx.Err()
			}
		},
	}, nil
}

func streamFor(mode string, logs *LogCapture) io.Writer {
	if mode == "pipe" {
		return logs
	}
	return nil
}

func startInProcess(ctx context.Context, rawURL string, opts Options) (*Handle, error) {
	addr, err := listenAddr(rawURL)
	if err != nil {
		return nil, err
	}
	opts.Addr = addr
	srv := New(opts)
	if _, err := srv.Start(ctx); err != nil {
		_ = srv.Shutdown(ctx)
		return nil, errs.Wrap(errs.Unavailable, fmt.Sprintf("listen on %s", addr), err)
	}
	return &Handle{URL: rawURL, stop: srv.Shutdown}, nil
}

// listenAddr turns a base URL into a host:port to bind.
func listenAddr(rawURL string) (string, error) {
	host, port, err := urlutil.HostPort(rawURL)
	if err != nil {
		return "", errs.Newf(errs.InvalidArgument, "web server URL %q is not absolute", rawURL)
	}
	return net.JoinHostPort(host, port), nil
}
