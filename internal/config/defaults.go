package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/edgard/chatmessages/internal/domain/service"
)

// Default values for configuration
const (
	DefaultAppName        = "chat-message-api"
	DefaultAppVersion     = "1.0.0"
	DefaultAppEnvironment = "development"

	DefaultLogLevel = "info"
	DefaultLogJSON  = true

	DefaultHTTPAddr            = ":8000"
	DefaultHTTPReadTimeout     = 10 * time.Second
	DefaultHTTPWriteTimeout    = 15 * time.Second
	DefaultHTTPShutdownTimeout = 10 * time.Second
	DefaultHTTPRequestTimeout  = 5 * time.Second

	DefaultDBDriver          = "sqlite"
	DefaultDBDSN             = "file:chat_messages.db?_pragma=busy_timeout(5000)"
	DefaultDBMaxOpenConns    = 10
	DefaultDBMaxIdleConns    = 5
	DefaultDBConnMaxLifetime = 5 * time.Minute

	DefaultPaginationLimit    = 10
	DefaultPaginationMaxLimit = 100

	DefaultMetricsEnabled = true
	DefaultMetricsPath    = "/metrics"

	// Task names as registered by the tasks package.
	TaskSQLMaintenance   = "sql_maintenance"
	TaskMetadataBackfill = "metadata_backfill"
)

// setDefaults sets default values for optional configuration parameters
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", DefaultAppName)
	v.SetDefault("app.version", DefaultAppVersion)
	v.SetDefault("app.environment", DefaultAppEnvironment)

	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.json", DefaultLogJSON)

	v.SetDefault("http.addr", DefaultHTTPAddr)
	v.SetDefault("http.read_timeout", DefaultHTTPReadTimeout)
	v.SetDefault("http.write_timeout", DefaultHTTPWriteTimeout)
	v.SetDefault("http.shutdown_timeout", DefaultHTTPShutdownTimeout)
	v.SetDefault("http.request_timeout", DefaultHTTPRequestTimeout)

	v.SetDefault("database.driver", DefaultDBDriver)
	v.SetDefault("database.dsn", DefaultDBDSN)
	v.SetDefault("database.max_open_conns", DefaultDBMaxOpenConns)
	v.SetDefault("database.max_idle_conns", DefaultDBMaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", DefaultDBConnMaxLifetime)

	v.SetDefault("content_filter.deny_list", service.DefaultDenyList)

	v.SetDefault("pagination.default_limit", DefaultPaginationLimit)
	v.SetDefault("pagination.max_limit", DefaultPaginationMaxLimit)

	// Seconds-field cron expressions.
	v.SetDefault("scheduler.tasks."+TaskSQLMaintenance+".enabled", true)
	v.SetDefault("scheduler.tasks."+TaskSQLMaintenance+".schedule", "0 0 3 * * *")
	v.SetDefault("scheduler.tasks."+TaskMetadataBackfill+".enabled", true)
	v.SetDefault("scheduler.tasks."+TaskMetadataBackfill+".schedule", "0 */10 * * * *")

	v.SetDefault("metrics.enabled", DefaultMetricsEnabled)
	v.SetDefault("metrics.path", DefaultMetricsPath)
}
