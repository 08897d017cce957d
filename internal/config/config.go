package config

import (
	"errors"
	"strings"
	"time"

	"github.com/FalakNet/Account/params"
	"github.com/spf13/viper"
)

const (
	DefaultListenAddr = ":3000"
)

type MySQLConfig struct {
	Dsn             string `mapstructure:"dsn"`
	ReplicaDsn      string `mapstructure:"replicaDsn"`
	TablePrefix     string `mapstructure:"tablePrefix"`
	MaxIdleConns    int    `mapstructure:"maxIdleConns"`
	MaxOpenConns    int    `mapstructure:"maxOpenConns"`
	ConnMaxIdleTime int    `mapstructure:"connMaxIdleTime"`
	ConnMaxLifetime int    `mapstructure:"connMaxLifetime"`
}

type RedisConfig struct {
	URL         string `mapstructure:"url"`
	PoolSize    int    `mapstructure:"poolSize"`
	ClusterMode bool   `mapstructure:"clusterMode"`
}

type CacheConfig struct {
	Backend string `mapstructure:"backend"` // redis or memory
}

// IdentityConfig describes the external identity provider the service
// delegates token verification to.
type IdentityConfig struct {
	ProjectID          string `mapstructure:"projectID"`
	Issuer             string `mapstructure:"issuer"`
	JWKSUrl            string `mapstructure:"jwksURL"`
	ServiceAccountFile string `mapstructure:"serviceAccountFile"`
}

type SessionConfig struct {
	TokenSecret        string        `mapstructure:"tokenSecret"`
	TokenMaxAge        time.Duration `mapstructure:"tokenMaxAge"`
	MaxSessionsPerUser int           `mapstructure:"maxSessionsPerUser"`
	CleanupInterval    time.Duration `mapstructure:"cleanupInterval"`
	Retention          time.Duration `mapstructure:"retention"`
}

type Config struct {
	Debug        bool           `mapstructure:"debug"`
	Production   bool           `mapstructure:"production"`
	ListenAddr   string         `mapstructure:"listenAddr"`
	AllowOrigins []string       `mapstructure:"allowOrigins"`
	MySQL        MySQLConfig    `mapstructure:"mysql"`
	Redis        RedisConfig    `mapstructure:"redis"`
	Cache        CacheConfig    `mapstructure:"cache"`
	Identity     IdentityConfig `mapstructure:"identity"`
	Session      SessionConfig  `mapstructure:"session"`
}

// Sanitize fills defaults and rejects configurations the service must not
// boot with. A missing signing secret is fatal here, not at request time.
func (c *Config) Sanitize() error {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.Session.TokenSecret == "" {
		return errors.New("session.tokenSecret is required")
	}
	if c.Identity.ProjectID == "" {
		return errors.New("identity.projectID is required")
	}
	if c.Session.TokenMaxAge == 0 {
		c.Session.TokenMaxAge = params.DefaultSessionMaxAge
	}
	if c.Session.MaxSessionsPerUser == 0 {
		c.Session.MaxSessionsPerUser = params.DefaultMaxSessionsPerUser
	}
	if c.Session.CleanupInterval == 0 {
		c.Session.CleanupInterval = params.DefaultCleanupInterval
	}
	if c.Session.Retention == 0 {
		c.Session.Retention = params.DefaultSessionRetention
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	return nil
}

func LoadConfig(filename string) (*Config, error) {
	viper.SetConfigFile(filename)
	viper.SetConfigType("yaml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Sanitize(); err != nil {
		return nil, err
	}
	return &config, nil
}
