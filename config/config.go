package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configFileEnvName = "STOREFRONT_CONFIG_FILE"
	minCSRFKeyLen     = 32
)

type catalogAPI struct {
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	ReadAttempts int           `mapstructure:"read_attempts"`
}

type images struct {
	BaseURL     string `mapstructure:"base_url"`
	DefaultPath string `mapstructure:"default_path"`
}

type cache struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type session struct {
	CookieName string `mapstructure:"cookie_name"`
	Secure     bool   `mapstructure:"secure"`
	// CSRFKey signs form tokens. Replicas behind one address share it.
	CSRFKey string `mapstructure:"csrf_key"`
}

type topics struct {
	CacheInvalidation string `mapstructure:"cache_invalidation"`
}

type brokerTLS struct {
	CA   string `mapstructure:"ca"`
	Cert string `mapstructure:"cert"`
	Key  string `mapstructure:"key"`
}

// Enabled reports whether all TLS files are set.
func (t brokerTLS) Enabled() bool {
	return t.CA != "" && t.Cert != "" && t.Key != ""
}

type broker struct {
	SeedBrokers        []string  `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string  `mapstructure:"schema_registry_urls"`
	Topics             topics    `mapstructure:"topics"`
	TLS                brokerTLS `mapstructure:"tls"`
}

// Enabled reports whether invalidations are fanned out through Kafka.
func (b broker) Enabled() bool {
	return len(b.SeedBrokers) != 0
}

type Config struct {
	LogLevel       slog.Level    `mapstructure:"log_level"`
	HTTPServerAddr string        `mapstructure:"http_server_addr"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	CatalogAPI     catalogAPI    `mapstructure:"catalog_api"`
	Images         images        `mapstructure:"images"`
	Cache          cache         `mapstructure:"cache"`
	Session        session       `mapstructure:"session"`
	Broker         broker        `mapstructure:"broker"`
}

func Load() Config {
	cfg, err := LoadFile(getConfigFilepath())
	if err != nil {
		die(err)
	}
	return cfg
}

// LoadFile reads the YAML config at path on top of the defaults.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, err
	}

	var cfg Config
	err := v.UnmarshalExact(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return Config{}, err
	}

	if cfg.CatalogAPI.BaseURL == "" {
		return Config{}, fmt.Errorf("catalog_api.base_url is required")
	}
	if cfg.CatalogAPI.Timeout <= 0 {
		return Config{}, fmt.Errorf("catalog_api.timeout must be positive")
	}
	if cfg.CatalogAPI.ReadAttempts < 1 {
		return Config{}, fmt.Errorf("catalog_api.read_attempts must be at least 1")
	}
	if n := len(cfg.Session.CSRFKey); n != 0 && n < minCSRFKeyLen {
		return Config{}, fmt.Errorf(
			"session.csrf_key must be at least %d bytes", minCSRFKeyLen,
		)
	}
	if cfg.Broker.Enabled() && len(cfg.Broker.SchemaRegistryURLs) == 0 {
		return Config{}, fmt.Errorf(
			"broker.schema_registry_urls is required with seed brokers",
		)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("http_server_addr", ":8080")
	v.SetDefault("request_timeout", "10s")
	v.SetDefault("catalog_api.timeout", "5s")
	v.SetDefault("catalog_api.read_attempts", 3)
	v.SetDefault("images.default_path", "uploads/default_image.png")
	v.SetDefault("cache.ttl", "30s")
	v.SetDefault("session.cookie_name", "currentUser")
	v.SetDefault("session.secure", false)
	v.SetDefault("session.csrf_key", "")
	v.SetDefault("broker.topics.cache_invalidation", "cache_invalidation")
}

func getConfigFilepath() string {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	arg := cmdLine.String("config", "/config.yaml", "config file")
	_ = cmdLine.Parse(os.Args[1:])
	env, ok := os.LookupEnv(configFileEnvName)
	if ok {
		return env
	}
	return *arg
}

func die(err error) {
	fmt.Printf("failed to load config file: %v\n", err)
	os.Exit(2)
}

func (c Config) Print() {
	tamplate := `
	General:
	LogLevel=%q
	HTTPServerAddr=%q
	RequestTimeout=%s

	CatalogAPI:
	BaseURL=%q
	Timeout=%s
	ReadAttempts=%d

	Images:
	BaseURL=%q
	DefaultPath=%q

	Cache:
	TTL=%s

	Session:
	CookieName=%q
	Secure=%t
	CSRFKey=%t

	BrokerConfig:
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	TLS=%t
	Topics:
		CacheInvalidation=%q

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(tamplate, "\n"),
		c.LogLevel,
		c.HTTPServerAddr,
		c.RequestTimeout,
		c.CatalogAPI.BaseURL,
		c.CatalogAPI.Timeout,
		c.CatalogAPI.ReadAttempts,
		c.Images.BaseURL,
		c.Images.DefaultPath,
		c.Cache.TTL,
		c.Session.CookieName,
		c.Session.Secure,
		c.Session.CSRFKey != "",
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.Broker.TLS.Enabled(),
		c.Broker.Topics.CacheInvalidation,
	)
}
