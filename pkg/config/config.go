package config

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var dbTablePrefix string

type AppConfig struct {
	RDS      *redis.Client
	DB       *gorm.DB
	Logger   *logrus.Logger
	NatsConn *nats.Conn

	RootWorkingDir string
	Client         ClientInfo   `yaml:"client"`
	LogSettings    LogSettings  `yaml:"log_settings"`
	RedisInfo      RedisInfo    `yaml:"redis_info"`
	DatabaseInfo   DatabaseInfo `yaml:"database_info"`
	NatsInfo       NatsInfo     `yaml:"nats_info"`
	Tenants        []TenantInfo `yaml:"tenants"`
}

type ClientInfo struct {
	Port           int            `yaml:"port"`
	Debug          bool           `yaml:"debug"`
	ApiKey         string         `yaml:"api_key"`
	Secret         string         `yaml:"secret"`
	TokenValidity  *time.Duration `yaml:"token_validity"`
	PrometheusConf PrometheusConf `yaml:"prometheus"`
	ProxyHeader    string         `yaml:"proxy_header"`
	DefaultTenant  string         `yaml:"default_tenant"`
}

type PrometheusConf struct {
	Enable      bool   `yaml:"enable"`
	MetricsPath string `yaml:"metrics_path"`
}

type LogSettings struct {
	LogLevel   *string `yaml:"log_level"`
	LogFile    string  `yaml:"log_file"`
	MaxSize    int     `yaml:"max_size"`
	MaxBackups int     `yaml:"max_backups"`
	MaxAge     int     `yaml:"max_age"`
}

type DatabaseInfo struct {
	Host            string          `yaml:"host"`
	Port            int32           `yaml:"port"`
	Username        string          `yaml:"username"`
	Password        string          `yaml:"password"`
	DBName          string          `yaml:"db"`
	Prefix          string          `yaml:"prefix"`
	Charset         *string         `yaml:"charset"`
	Loc             *string         `yaml:"loc"`
	ConnMaxLifetime *time.Duration  `yaml:"conn_max_lifetime"`
	MaxOpenConns    *int            `yaml:"max_open_conns"`
	Replicas        []ReplicaDBInfo `yaml:"replicas"`
}

// ReplicaDBInfo holds connection details for a read replica database.
type ReplicaDBInfo struct {
	Host     string `yaml:"host"`
	Port     int32  `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type RedisInfo struct {
	Host              string   `yaml:"host"`
	Username          string   `yaml:"username"`
	Password          string   `yaml:"password"`
	DBName            int      `yaml:"db"`
	UseTLS            bool     `yaml:"use_tls"`
	MasterName        string   `yaml:"sentinel_master_name"`
	SentinelUsername  string   `yaml:"sentinel_username"`
	SentinelPassword  string   `yaml:"sentinel_password"`
	SentinelAddresses []string `yaml:"sentinel_addresses"`
}

type NatsInfo struct {
	NatsUrls      []string `yaml:"nats_urls"`
	User          string   `yaml:"user"`
	Password      string   `yaml:"password"`
	Nkey          *string  `yaml:"nkey"`
	SubjectPrefix string   `yaml:"subject_prefix"`
}

func New(appCnf *AppConfig) (*AppConfig, error) {
	// default validation of token is 10 minutes
	if appCnf.Client.TokenValidity == nil || *appCnf.Client.TokenValidity <= 0 {
		validity := time.Minute * 10
		appCnf.Client.TokenValidity = &validity
	}

	if appCnf.NatsInfo.SubjectPrefix == "" {
		appCnf.NatsInfo.SubjectPrefix = DefaultEventSubjectPrefix
	}

	if appCnf.Client.PrometheusConf.MetricsPath == "" {
		appCnf.Client.PrometheusConf.MetricsPath = "/metrics"
	}

	if len(appCnf.Tenants) == 0 {
		return nil, fmt.Errorf("at least one tenant must be configured")
	}

	seen := make(map[string]bool, len(appCnf.Tenants))
	for _, t := range appCnf.Tenants {
		if t.Alias == "" {
			return nil, fmt.Errorf("tenant alias cannot be empty")
		}
		if seen[t.Alias] {
			return nil, fmt.Errorf("duplicate tenant alias %s", t.Alias)
		}
		seen[t.Alias] = true
	}

	if appCnf.Client.DefaultTenant == "" {
		appCnf.Client.DefaultTenant = appCnf.Tenants[0].Alias
	} else if !seen[appCnf.Client.DefaultTenant] {
		return nil, fmt.Errorf("default tenant %s is not configured", appCnf.Client.DefaultTenant)
	}

	if appCnf.DatabaseInfo.Prefix != "" {
		dbTablePrefix = appCnf.DatabaseInfo.Prefix
	}

	return appCnf, nil
}

func FormatDBTable(table string) string {
	if dbTablePrefix != "" {
		return dbTablePrefix + table
	}
	return table
}
