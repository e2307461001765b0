package config

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/EugeneVC/web-monitor/internal/domain"
)

const (
	DefaultCheckPeriod = 5000 * time.Millisecond
	DefaultTimeout     = 10000 * time.Millisecond
	DefaultBufferSize  = 100
)

type Config struct {
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Log       LogConfig       `mapstructure:"log"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Sites     []SiteConfig    `mapstructure:"sites"`
}

type MonitorConfig struct {
	CheckPeriodMS int `mapstructure:"check_period_ms"`
	TimeoutMS     int `mapstructure:"timeout_ms"`
	BufferSize    int `mapstructure:"buffer_size"`
}

// LoggerConfig selects the persistent record sink.
type LoggerConfig struct {
	Type     string `mapstructure:"type"`
	Filename string `mapstructure:"filename"`
}

// LogConfig is the operational (zap) log.
type LogConfig struct {
	Dir   string `mapstructure:"dir"`
	Level string `mapstructure:"level"`
}

type DashboardConfig struct {
	Addr          string   `mapstructure:"addr"` // empty disables the dashboard
	PublicAPIKeys []string `mapstructure:"public_api_keys"`
	RPM           int      `mapstructure:"rpm"`
	Burst         int      `mapstructure:"burst"`
	// AllowedOrigins limits CORS; empty allows any origin.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// TrustedProxies lists proxy addresses or CIDRs whose X-Forwarded-For
	// header is believed by the rate limiter.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

// TrustedProxyPrefixes parses TrustedProxies. A bare address becomes a
// single-host prefix.
func (d DashboardConfig) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	var (
		out  []netip.Prefix
		errs error
	)
	for _, raw := range d.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if p, err := netip.ParsePrefix(raw); err == nil {
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("invalid dashboard.trusted_proxies entry %q", raw))
			continue
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, errs
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"` // empty disables the postgres sink
}

type RedisConfig struct {
	Addr   string `mapstructure:"addr"` // empty disables the redis sink
	Key    string `mapstructure:"key"`
	MaxLen int    `mapstructure:"max_len"`
}

// SiteConfig is one entry of the sites list. Zero period/timeout fall back to
// the monitor defaults.
type SiteConfig struct {
	Name          string `mapstructure:"name"`
	URI           string `mapstructure:"uri"`
	SearchContent string `mapstructure:"search_content"`
	CheckPeriodMS int    `mapstructure:"check_period_ms"`
	TimeoutMS     int    `mapstructure:"timeout_ms"`
}

// SiteError reports a problem with one configured site.
type SiteError struct {
	Index int
	Name  string
	Field string
	Msg   string
}

func (e *SiteError) Error() string {
	label := fmt.Sprintf("sites[%d]", e.Index)
	if e.Name != "" {
		label += fmt.Sprintf(" (%s)", e.Name)
	}
	return fmt.Sprintf("%s: %s %s", label, e.Field, e.Msg)
}

var supportedLoggerTypes = map[string]bool{"file": true}

// Load reads the YAML config at path and applies WEBMON_* env overrides.
// An empty path only uses defaults and env.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("WEBMON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config, %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed, %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("monitor.check_period_ms", int(DefaultCheckPeriod/time.Millisecond))
	v.SetDefault("monitor.timeout_ms", int(DefaultTimeout/time.Millisecond))
	v.SetDefault("monitor.buffer_size", DefaultBufferSize)

	v.SetDefault("logger.type", "file")
	v.SetDefault("logger.filename", "web_monitor.log")

	v.SetDefault("log.dir", "logs")
	v.SetDefault("log.level", "info")

	v.SetDefault("dashboard.addr", "127.0.0.1:8080")
	v.SetDefault("dashboard.public_api_keys", []string{})
	v.SetDefault("dashboard.rpm", 120)
	v.SetDefault("dashboard.burst", 60)
	v.SetDefault("dashboard.allowed_origins", []string{})
	v.SetDefault("dashboard.trusted_proxies", []string{})

	v.SetDefault("database.url", "")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.key", "web_monitor:records")
	v.SetDefault("redis.max_len", DefaultBufferSize)
}

// validate checks process-wide settings. Per-site problems are reported by
// MonitoredSites so one bad entry does not block the rest.
func (c *Config) validate() error {
	var err error
	if c.Monitor.CheckPeriodMS <= 0 {
		err = multierr.Append(err, fmt.Errorf("invalid monitor.check_period_ms %d", c.Monitor.CheckPeriodMS))
	}
	if c.Monitor.TimeoutMS <= 0 {
		err = multierr.Append(err, fmt.Errorf("invalid monitor.timeout_ms %d", c.Monitor.TimeoutMS))
	}
	if c.Monitor.BufferSize <= 0 {
		err = multierr.Append(err, fmt.Errorf("invalid monitor.buffer_size %d", c.Monitor.BufferSize))
	}
	if !supportedLoggerTypes[c.Logger.Type] {
		err = multierr.Append(err, fmt.Errorf("unknown logger type %q", c.Logger.Type))
	}
	if c.Logger.Filename == "" {
		err = multierr.Append(err, errors.New("logger.filename is required"))
	}
	if _, perr := c.Dashboard.TrustedProxyPrefixes(); perr != nil {
		err = multierr.Append(err, perr)
	}
	return err
}

// MonitoredSites resolves every entry against the monitor defaults. Valid sites are
// returned in config order; invalid ones are skipped and reported in err as
// a multierr of *SiteError.
func (c *Config) MonitoredSites() ([]domain.Site, error) {
	var (
		out  []domain.Site
		errs error
	)
	for i, sc := range c.Sites {
		site, err := c.resolve(i, sc)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		out = append(out, site)
	}
	return out, errs
}

func (c *Config) resolve(i int, sc SiteConfig) (domain.Site, error) {
	name := strings.TrimSpace(sc.Name)
	uri := strings.TrimSpace(sc.URI)

	var err error
	if name == "" {
		err = multierr.Append(err, &SiteError{Index: i, Field: "name", Msg: "is required"})
	}
	if uri == "" {
		err = multierr.Append(err, &SiteError{Index: i, Name: name, Field: "uri", Msg: "is required"})
	}
	if sc.CheckPeriodMS < 0 {
		err = multierr.Append(err, &SiteError{Index: i, Name: name, Field: "check_period_ms", Msg: "must be positive"})
	}
	if sc.TimeoutMS < 0 {
		err = multierr.Append(err, &SiteError{Index: i, Name: name, Field: "timeout_ms", Msg: "must be positive"})
	}
	if err != nil {
		return domain.Site{}, err
	}

	period := orDefault(sc.CheckPeriodMS, c.Monitor.CheckPeriodMS)
	timeout := orDefault(sc.TimeoutMS, c.Monitor.TimeoutMS)
	return domain.Site{
		Name:          name,
		URI:           uri,
		SearchContent: sc.SearchContent,
		CheckPeriod:   time.Duration(period) * time.Millisecond,
		Timeout:       time.Duration(timeout) * time.Millisecond,
	}, nil
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
