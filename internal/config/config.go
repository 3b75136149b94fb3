// Package config provides configuration for landingcheck runs.
// Values come from environment variables first; an optional YAML file
// (.landingcheck.yaml) overrides them. Validate reports every problem at once.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/kuitang/landingcheck/internal/urlutil"
)

const (
	// AppName names the XDG cache directory.
	AppName = "landingcheck"
	// DefaultConfigFile is looked up in the working directory when --config is empty.
	DefaultConfigFile = ".landingcheck.yaml"

	DefaultPort = 8888

	ScreenshotOff           = "off"
	ScreenshotOn            = "on"
	ScreenshotOnlyOnFailure = "only-on-failure"
)

// ErrConfigNotFound is returned when an explicitly requested config file is missing.
var ErrConfigNotFound = errors.New("configuration file not found")

// Project is one entry of the browser/device matrix. Device names a
// Playwright device descriptor.
type Project struct {
	Name   string `yaml:"name"`
	Device string `yaml:"device"`
}

// WebServer describes how to boot the static server before checks run.
// An empty Command serves SiteDir in-process.
type WebServer struct {
	Command        string        `yaml:"command"`
	URL            string        `yaml:"url"`
	ReuseExisting  bool          `yaml:"reuseExistingServer"`
	StartupTimeout time.Duration `yaml:"timeout"`
	Stdout         string        `yaml:"stdout"`
	Stderr         string        `yaml:"stderr"`
}

// Artifacts controls where failure screenshots and reports go. A non-empty
// S3Bucket uploads screenshots to object storage instead of Dir.
type Artifacts struct {
	Dir               string `yaml:"dir"`
	S3Bucket          string `yaml:"s3Bucket"`
	S3Endpoint        string `yaml:"s3Endpoint"`
	S3Region          string `yaml:"s3Region"`
	S3AccessKeyID     string `yaml:"-"`
	S3SecretAccessKey string `yaml:"-"`
	S3PathStyle       bool   `yaml:"s3PathStyle"`
}

// RateLimit throttles the in-process static server per client.
type RateLimit struct {
	RPS             float64       `yaml:"rps"`
	Burst           int           `yaml:"burst"`
	CleanupInterval time.Duration `yaml:"cleanupInterval"`
}

// Config holds all run configuration.
type Config struct {
	BaseURL string `yaml:"baseURL"`
	SiteDir string `yaml:"siteDir"`

	// Timeouts
	TestTimeout       time.Duration `yaml:"timeout"`
	ExpectTimeout     time.Duration `yaml:"expectTimeout"`
	ActionTimeout     time.Duration `yaml:"actionTimeout"`
	NavigationTimeout time.Duration `yaml:"navigationTimeout"`
	SettleDelay       time.Duration `yaml:"settleDelay"`

	// Execution policy
	Retries     int    `yaml:"retries"`
	Workers     int    `yaml:"workers"`
	MaxFailures int    `yaml:"maxFailures"`
	CI          bool   `yaml:"-"`
	ForbidOnly  bool   `yaml:"-"`
	Only        string `yaml:"only"`

	// Browser
	Projects      []Project `yaml:"projects"`
	Headless      bool      `yaml:"headless"`
	ReducedMotion string    `yaml:"reducedMotion"`
	LaunchArgs    []string  `yaml:"launchArgs"`
	Screenshot    string    `yaml:"screenshot"`

	WebServer WebServer `yaml:"webServer"`
	Artifacts Artifacts `yaml:"artifacts"`
	RateLimit RateLimit `yaml:"rateLimit"`
}

// ValidationError represents a configuration validation error with multiple issues.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// DefaultProjects is desktop Chromium plus one mobile emulation profile.
func DefaultProjects() []Project {
	return []Project{
		{Name: "chromium", Device: "Desktop Chrome"},
		{Name: "Mobile Chrome", Device: "iPhone 15 Pro Max"},
	}
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	baseURL := fmt.Sprintf("http://localhost:%d", DefaultPort)
	return &Config{
		BaseURL:           baseURL,
		SiteDir:           ".",
		TestTimeout:       30 * time.Second,
		ExpectTimeout:     5 * time.Second,
		ActionTimeout:     10 * time.Second,
		NavigationTimeout: 30 * time.Second,
		SettleDelay:       500 * time.Millisecond,
		Retries:           0,
		Workers:           1,
		MaxFailures:       1,
		Projects:          DefaultProjects(),
		Headless:          true,
		ReducedMotion:     "reduce",
		LaunchArgs:        []string{"--disable-extensions"},
		Screenshot:        ScreenshotOnlyOnFailure,
		WebServer: WebServer{
			URL:            baseURL,
			ReuseExisting:  true,
			StartupTimeout: 30 * time.Second,
			Stdout:         "ignore",
			Stderr:         "pipe",
		},
		Artifacts: Artifacts{
			Dir:      filepath.Join(xdg.CacheHome, AppName),
			S3Region: "auto",
		},
		RateLimit: RateLimit{
			RPS:             1000,
			Burst:           2000,
			CleanupInterval: time.Hour,
		},
	}
}

// Load builds the configuration from defaults, environment variables and
// the optional YAML file at path, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()
	cfg.applyEnv()

	file := FindConfigFile(path)
	if path != "" && file == "" {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	}
	if file != "" {
		if err := cfg.applyFile(file); err != nil {
			return nil, err
		}
	}
	if name := getEnvOrDefault("LANDING_PROJECT", ""); name != "" {
		cfg.Projects = SelectProjects(cfg.Projects, name)
	}

	cfg.ForbidOnly = cfg.CI
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.BaseURL = getEnvOrDefault("LANDING_BASE_URL", c.BaseURL)
	c.WebServer.URL = getEnvOrDefault("LANDING_SERVER_URL", c.BaseURL)
	c.WebServer.Command = getEnvOrDefault("LANDING_SERVER_COMMAND", c.WebServer.Command)
	c.WebServer.ReuseExisting = parseBoolOrDefault("LANDING_REUSE_SERVER", c.WebServer.ReuseExisting)
	c.SiteDir = getEnvOrDefault("LANDING_SITE_DIR", c.SiteDir)

	c.TestTimeout = parseDurationOrDefault("LANDING_TIMEOUT", c.TestTimeout)
	c.ExpectTimeout = parseDurationOrDefault("LANDING_EXPECT_TIMEOUT", c.ExpectTimeout)
	c.ActionTimeout = parseDurationOrDefault("LANDING_ACTION_TIMEOUT", c.ActionTimeout)
	c.NavigationTimeout = parseDurationOrDefault("LANDING_NAVIGATION_TIMEOUT", c.NavigationTimeout)
	c.SettleDelay = parseDurationOrDefault("LANDING_SETTLE_DELAY", c.SettleDelay)

	c.MaxFailures = parseIntOrDefault("LANDING_MAX_FAILURES", c.MaxFailures)
	c.CI = strings.TrimSpace(os.Getenv("CI")) != ""
	c.Only = getEnvOrDefault("LANDING_ONLY", c.Only)
	c.Headless = parseBoolOrDefault("LANDING_HEADLESS", c.Headless)
	c.Screenshot = getEnvOrDefault("LANDING_SCREENSHOT", c.Screenshot)

	c.Artifacts.Dir = getEnvOrDefault("LANDING_ARTIFACTS_DIR", c.Artifacts.Dir)
	c.Artifacts.S3Bucket = getEnvOrDefault("LANDING_ARTIFACTS_BUCKET", c.Artifacts.S3Bucket)
	c.Artifacts.S3Endpoint = getEnvOrDefault("AWS_ENDPOINT_URL_S3", c.Artifacts.S3Endpoint)
	c.Artifacts.S3Region = getEnvOrDefault("AWS_REGION", c.Artifacts.S3Region)
	c.Artifacts.S3AccessKeyID = getEnvOrDefault("AWS_ACCESS_KEY_ID", "")
	c.Artifacts.S3SecretAccessKey = getEnvOrDefault("AWS_SECRET_ACCESS_KEY", "")
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided config path is intentional
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// FindConfigFile returns configPath if it exists, otherwise DefaultConfigFile
// in the working directory if that exists, otherwise "".
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile
	}
	return ""
}

// SelectProjects keeps only the named project. Unknown names yield an
// empty list, which Validate rejects.
func SelectProjects(projects []Project, name string) []Project {
	var out []Project
	for _, p := range projects {
		if strings.EqualFold(p.Name, name) {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the configuration for contradictions.
func (c *Config) Validate() error {
	var errs []string

	if err := urlutil.ValidateBase(c.BaseURL); err != nil {
		errs = append(errs, fmt.Sprintf("LANDING_BASE_URL: %v", err))
	}
	if c.Retries != 0 {
		errs = append(errs, "retries must be 0 (every failure is terminal for its check)")
	}
	if c.Workers != 1 {
		errs = append(errs, "workers must be 1 (checks run serially)")
	}
	if c.MaxFailures < 0 {
		errs = append(errs, "LANDING_MAX_FAILURES must be >= 0 (0 means unlimited)")
	}
	if c.ForbidOnly && c.Only != "" {
		errs = append(errs, "LANDING_ONLY is forbidden when CI is set")
	}
	if c.Only != "" {
		if _, err := regexp.Compile(c.Only); err != nil {
			errs = append(errs, fmt.Sprintf("LANDING_ONLY is not a valid regexp: %v", err))
		}
	}

	for name, d := range map[string]time.Duration{
		"LANDING_TIMEOUT":            c.TestTimeout,
		"LANDING_EXPECT_TIMEOUT":     c.ExpectTimeout,
		"LANDING_ACTION_TIMEOUT":     c.ActionTimeout,
		"LANDING_NAVIGATION_TIMEOUT": c.NavigationTimeout,
		"webServer.timeout":          c.WebServer.StartupTimeout,
	} {
		if d <= 0 {
			errs = append(errs, name+" must be positive")
		}
	}
	if c.SettleDelay < 0 {
		errs = append(errs, "LANDING_SETTLE_DELAY must not be negative")
	}

	switch c.Screenshot {
	case ScreenshotOff, ScreenshotOn, ScreenshotOnlyOnFailure:
	default:
		errs = append(errs, fmt.Sprintf("LANDING_SCREENSHOT must be one of off, on, only-on-failure (got %q)", c.Screenshot))
	}

	if len(c.Projects) == 0 {
		errs = append(errs, "at least one project is required (check LANDING_PROJECT)")
	}
	for _, p := range c.Projects {
		if p.Name == "" || p.Device == "" {
			errs = append(errs, "every project needs a name and a device")
			break
		}
	}

	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		errs = append(errs, "rateLimit.rps and rateLimit.burst must be positive")
	}

	if len(errs) > 0 {
		// Map iteration above is unordered.
		slices.Sort(errs)
		return &ValidationError{Errors: errs}
	}
	return nil
}

// OnlyPattern returns the compiled focus filter, or nil when unset.
func (c *Config) OnlyPattern() *regexp.Regexp {
	if c.Only == "" {
		return nil
	}
	return regexp.MustCompile(c.Only)
}

// ServerPort returns the port WebServer.URL listens on, falling back to the
// scheme default when the URL has none. Unparseable URLs yield DefaultPort.
func (c *Config) ServerPort() int {
	_, p, err := urlutil.HostPort(c.WebServer.URL)
	if err != nil {
		return DefaultPort
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return DefaultPort
	}
	return port
}

// PrintStartupSummary prints a human-readable summary of the configuration to stderr.
func (c *Config) PrintStartupSummary() {
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "landingcheck starting...")
	fmt.Fprintf(os.Stderr, "  Base:      %s\n", c.BaseURL)
	fmt.Fprintf(os.Stderr, "  Site:      %s\n", c.SiteDir)
	names := make([]string, 0, len(c.Projects))
	for _, p := range c.Projects {
		names = append(names, fmt.Sprintf("%s (%s)", p.Name, p.Device))
	}
	fmt.Fprintf(os.Stderr, "  Projects:  %s\n", strings.Join(names, ", "))
	if c.MaxFailures == 0 {
		fmt.Fprintln(os.Stderr, "  Failures:  unlimited")
	} else {
		fmt.Fprintf(os.Stderr, "  Failures:  stop after %d\n", c.MaxFailures)
	}
	if c.Artifacts.S3Bucket != "" {
		fmt.Fprintf(os.Stderr, "  Artifacts: s3://%s\n", c.Artifacts.S3Bucket)
	} else {
		fmt.Fprintf(os.Stderr, "  Artifacts: %s\n", c.Artifacts.Dir)
	}
	fmt.Fprintln(os.Stderr, "")
}

// Helper functions for parsing environment variables

func getEnvOrDefault(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func parseIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return parsed
}
