package config

import (
	"fmt"
	"slices"
	"strings"
)

var (
	logLevels     = []string{"debug", "info", "warn", "error"}
	logFormats    = []string{"text", "json"}
	exportFormats = []string{"csv", "xlsx", "pdf"}
	dbSchemes     = []string{"memory", "sqlite", "postgres", "postgresql"}
)

// problems collects validation failures so they can be reported together.
type problems []string

func (p *problems) addf(format string, args ...any) {
	*p = append(*p, fmt.Sprintf(format, args...))
}

func (p *problems) check(ok bool, format string, args ...any) {
	if !ok {
		p.addf(format, args...)
	}
}

// Validate reports every invalid setting in one error.
func (c *Config) Validate() error {
	var p problems
	c.Database.validate(&p)
	c.Server.validate(&p)
	c.Upload.validate(&p)
	c.Rate.validate(&p)
	c.Security.validate(&p)
	c.Logging.validate(&p)
	c.Export.validate(&p)

	if len(p) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(p, "\n  - "))
	}
	return nil
}

func (d DatabaseConfig) validate(p *problems) {
	switch {
	case d.URL == "":
		p.addf("DATABASE_URL is required")
	case !slices.Contains(dbSchemes, schemeOf(d.URL)):
		p.addf("DATABASE_URL scheme must be memory:, sqlite: or postgres://, got %q", schemeOf(d.URL))
	}
	p.check(d.MaxConns > 0, "DB_MAX_CONNS must be positive")
	p.check(d.MinConns >= 0, "DB_MIN_CONNS must be non-negative")
	p.check(d.MaxConns >= d.MinConns, "DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", d.MaxConns, d.MinConns)
}

func (s ServerConfig) validate(p *problems) {
	p.check(s.Port > 0 && s.Port <= 65535, "SERVER_PORT (%d) must be 1-65535", s.Port)
	p.check(s.ReadTimeout >= 0, "SERVER_READ_TIMEOUT must be non-negative")
	p.check(s.ShutdownTimeout > 0, "SERVER_SHUTDOWN_TIMEOUT must be positive")
}

func (u UploadConfig) validate(p *problems) {
	p.check(u.MaxFileSize > 0, "UPLOAD_MAX_FILE_SIZE must be positive")
	p.check(u.MaxConcurrent > 0, "UPLOAD_MAX_CONCURRENT must be positive")
	p.check(u.MaxWaitTime > 0, "UPLOAD_MAX_WAIT_TIME must be positive")
	p.check(u.Timeout > 0, "UPLOAD_TIMEOUT must be positive")
}

func (r RateLimitConfig) validate(p *problems) {
	if !r.Enabled {
		return
	}
	p.check(r.RequestsPerMinute > 0, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	p.check(r.ImportLimit > 0, "RATE_LIMIT_IMPORT must be positive when rate limiting is enabled")
}

func (s SecurityConfig) validate(p *problems) {
	p.check(!s.RequireAPIKey || len(s.APIKeys) > 0,
		"REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")
}

func (l LoggingConfig) validate(p *problems) {
	p.check(slices.Contains(logLevels, strings.ToLower(l.Level)),
		"LOG_LEVEL (%q) must be one of: %s", l.Level, strings.Join(logLevels, ", "))
	p.check(slices.Contains(logFormats, strings.ToLower(l.Format)),
		"LOG_FORMAT (%q) must be one of: %s", l.Format, strings.Join(logFormats, ", "))
}

func (e ExportConfig) validate(p *problems) {
	for _, f := range e.DisabledFormats {
		p.check(slices.Contains(exportFormats, strings.ToLower(f)),
			"EXPORT_DISABLED_FORMATS entry %q must be one of: %s", f, strings.Join(exportFormats, ", "))
	}
}

func schemeOf(url string) string {
	scheme, _, _ := strings.Cut(url, ":")
	return strings.ToLower(scheme)
}

// String renders the config for the startup log with the database URL and
// API keys masked.
func (c *Config) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Config{Server: {Addr: %s}, ", c.Server.Addr())
	fmt.Fprintf(&b, "Database: {Backend: %s, URL: [MASKED], MaxConns: %d}, ", schemeOf(c.Database.URL), c.Database.MaxConns)
	fmt.Fprintf(&b, "Upload: {MaxFileSize: %d, MaxConcurrent: %d}, ", c.Upload.MaxFileSize, c.Upload.MaxConcurrent)
	fmt.Fprintf(&b, "Rate: {Enabled: %v, PerMinute: %d, Import: %d}, ", c.Rate.Enabled, c.Rate.RequestsPerMinute, c.Rate.ImportLimit)
	fmt.Fprintf(&b, "Security: {RequireAPIKey: %v, APIKeys: [%d MASKED]}, ", c.Security.RequireAPIKey, len(c.Security.APIKeys))
	fmt.Fprintf(&b, "Print: {Profile: %q, FontDir: %q}, ", c.Print.Profile, c.Print.FontDir)
	fmt.Fprintf(&b, "Export: {Disabled: %v}, ", c.Export.DisabledFormats)
	fmt.Fprintf(&b, "Logging: {Level: %s, Format: %s}}", c.Logging.Level, c.Logging.Format)
	return b.String()
}
