// Package config loads tagresolver settings from a TOML file and the
// environment.
//
// # Sources
//
// Settings are layered, later sources winning:
//
//  1. [Default]
//  2. The TOML file passed to [Load]
//  3. TAGRESOLVER_* environment variables
//
// A GitHub token may be given inline, through TAGRESOLVER_GITHUB_TOKEN, or
// through github.token_file, whose first line is the token.
//
// # Example
//
//	allow = ["cli/cli", "golang/go"]
//
//	[server]
//	listen = ":8080"
//
//	[github]
//	token_file = "/etc/tagresolver/gh.key"
//
//	[cache]
//	backend = "redis"
//	ttl_latest = "5m"
//
//	[cache.redis]
//	addr = "redis:6379"
//
// The loaded [Config] is not modified afterwards; components receive the
// values they need when they are constructed.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/tagresolver/pkg/errors"
)

// Cache backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendNATS   = "nats"
	BackendMongo  = "mongo"
	BackendNone   = "none"
)

// Log formats.
const (
	FormatText   = "text"
	FormatJSON   = "json"
	FormatLogfmt = "logfmt"
)

// Environment variables read by [Load].
const (
	EnvGitHubToken  = "TAGRESOLVER_GITHUB_TOKEN"
	EnvListen       = "TAGRESOLVER_LISTEN"
	EnvCacheBackend = "TAGRESOLVER_CACHE_BACKEND"
	EnvRedisAddr    = "TAGRESOLVER_REDIS_ADDR"
	EnvNATSURL      = "TAGRESOLVER_NATS_URL"
	EnvMongoURI     = "TAGRESOLVER_MONGO_URI"
)

// Config is the complete tagresolver configuration.
type Config struct {
	Allow     []string     `toml:"allow"`
	AllowFile string       `toml:"allow_file"`
	Server    ServerConfig `toml:"server"`
	GitHub    GitHubConfig `toml:"github"`
	Cache     CacheConfig  `toml:"cache"`
	Log       LogConfig    `toml:"log"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Listen          string   `toml:"listen"`
	RequestTimeout  Duration `toml:"request_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

// GitHubConfig configures the upstream release API.
type GitHubConfig struct {
	Token     string   `toml:"token"`
	TokenFile string   `toml:"token_file"`
	BaseURL   string   `toml:"base_url"`
	Timeout   Duration `toml:"timeout"`
}

// CacheConfig selects and configures the resolution store.
type CacheConfig struct {
	Backend   string      `toml:"backend"`
	TTLLatest Duration    `toml:"ttl_latest"`
	TTLPinned Duration    `toml:"ttl_pinned"`
	Dir       string      `toml:"dir"`
	Redis     RedisConfig `toml:"redis"`
	NATS      NATSConfig  `toml:"nats"`
	Mongo     MongoConfig `toml:"mongo"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

// NATSConfig configures the NATS JetStream key-value backend.
type NATSConfig struct {
	URL    string `toml:"url"`
	Bucket string `toml:"bucket"`
}

// MongoConfig configures the MongoDB backend.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:          ":8080",
			RequestTimeout:  Duration{30 * time.Second},
			ShutdownTimeout: Duration{10 * time.Second},
		},
		GitHub: GitHubConfig{
			BaseURL: "https://api.github.com",
			Timeout: Duration{10 * time.Second},
		},
		Cache: CacheConfig{
			Backend:   BackendMemory,
			TTLLatest: Duration{5 * time.Minute},
			TTLPinned: Duration{6 * time.Hour},
			Redis:     RedisConfig{Addr: "localhost:6379", Prefix: "tagresolver:"},
			NATS:      NATSConfig{URL: "nats://127.0.0.1:4222", Bucket: "gh"},
			Mongo:     MongoConfig{URI: "mongodb://localhost:27017", Database: "tagresolver", Collection: "versions"},
		},
		Log: LogConfig{Level: "info", Format: FormatText},
	}
}

// Load reads the TOML file at path over [Default], applies environment
// overrides, reads the token file, and validates the result. An empty path
// skips the file. Unknown keys in the file are an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, errs.New(errs.ErrCodeInvalidInput, "unknown keys in %s: %s", path, strings.Join(keys, ", "))
		}
	}

	cfg.applyEnv(os.LookupEnv)

	if cfg.GitHub.Token == "" && cfg.GitHub.TokenFile != "" {
		token, err := readFirstLine(cfg.GitHub.TokenFile)
		if err != nil {
			return nil, fmt.Errorf("reading github token file: %w", err)
		}
		cfg.GitHub.Token = token
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set(EnvGitHubToken, &c.GitHub.Token)
	set(EnvListen, &c.Server.Listen)
	set(EnvCacheBackend, &c.Cache.Backend)
	set(EnvRedisAddr, &c.Cache.Redis.Addr)
	set(EnvNATSURL, &c.Cache.NATS.URL)
	set(EnvMongoURI, &c.Cache.Mongo.URI)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case BackendMemory, BackendFile, BackendNone:
	case BackendRedis:
		if c.Cache.Redis.Addr == "" {
			return invalid("cache.redis.addr is required for the redis backend")
		}
	case BackendNATS:
		if c.Cache.NATS.URL == "" {
			return invalid("cache.nats.url is required for the nats backend")
		}
	case BackendMongo:
		if c.Cache.Mongo.URI == "" {
			return invalid("cache.mongo.uri is required for the mongo backend")
		}
	default:
		return invalid("unknown cache backend %q (want memory, file, redis, nats, mongo or none)", c.Cache.Backend)
	}

	for _, d := range []struct {
		name string
		val  Duration
	}{
		{"cache.ttl_latest", c.Cache.TTLLatest},
		{"cache.ttl_pinned", c.Cache.TTLPinned},
		{"github.timeout", c.GitHub.Timeout},
		{"server.request_timeout", c.Server.RequestTimeout},
		{"server.shutdown_timeout", c.Server.ShutdownTimeout},
	} {
		if d.val.Duration <= 0 {
			return invalid("%s must be positive, got %s", d.name, d.val)
		}
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level: %v", err)
	}
	switch c.Log.Format {
	case FormatText, FormatJSON, FormatLogfmt:
	default:
		return invalid("unknown log.format %q (want text, json or logfmt)", c.Log.Format)
	}

	if err := errs.ValidateURL(c.GitHub.BaseURL); err != nil {
		return fmt.Errorf("github.base_url: %w", err)
	}
	return nil
}

// AllowList builds the allow-list from the allow array and the allow file.
func (c *Config) AllowList() (*AllowList, error) {
	entries := append([]string(nil), c.Allow...)
	if c.AllowFile != "" {
		f, err := os.Open(c.AllowFile)
		if err != nil {
			return nil, fmt.Errorf("reading allow file: %w", err)
		}
		defer f.Close()
		more, err := ReadAllowList(f)
		if err != nil {
			return nil, fmt.Errorf("reading allow file %s: %w", c.AllowFile, err)
		}
		entries = append(entries, more...)
	}
	return NewAllowList(entries...)
}

// Redacted returns a copy safe to print, with secrets masked.
func (c *Config) Redacted() *Config {
	out := *c
	out.Allow = append([]string(nil), c.Allow...)
	sort.Strings(out.Allow)
	if out.GitHub.Token != "" {
		out.GitHub.Token = "REDACTED"
	}
	if out.Cache.Redis.Password != "" {
		out.Cache.Redis.Password = "REDACTED"
	}
	return &out
}

// Encode writes c as TOML.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

func invalid(format string, args ...any) error {
	return errs.New(errs.ErrCodeInvalidInput, format, args...)
}

func readFirstLine(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if sc.Scan() {
		return strings.TrimSpace(sc.Text()), nil
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	return "", errs.New(errs.ErrCodeInvalidInput, "%s is empty", path)
}

// Duration is a time.Duration that reads and writes TOML strings such as "5m".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}
