package config

import (
	"flag"
	"fmt"
	"originwidget/version"
	"os"
	"strconv"
)

// Config holds originwidget runtime configuration.
type Config struct {
	LogLevel             string
	LogFilePath          string
	Port                 int
	DatabaseURL          string
	AppsDir              string
	SQLitePragmasEnabled bool
	SQLiteBusyTimeoutMS  int
	SQLiteJournalMode    string
	SQLiteSynchronous    string
	SQLiteForeignKeys    bool
	SQLiteMaxOpenConns   int
	SQLiteMaxIdleConns   int
	SQLiteConnMaxIdleSec int
	SQLiteConnMaxLifeSec int
	CLIMode              bool
	CLIServer            string // Server URL for CLI mode

	// Widget update pipeline
	UpdateWorkers          int
	UpdateQueueSize        int
	UpdateTimeoutMS        int
	RefreshOnStartup       bool
	DefaultWidgetWidth     int
	DefaultWidgetHeight    int
	MaxErrorLogs           int
	RenderMaxDimension     int
	GoroutineWarnThreshold int
	GoroutineMonitorSec    int
}

// Settings is the global configuration instance populated from environment variables and flags.
var Settings *Config

func init() {
	Settings = &Config{
		LogLevel:             getEnv("LOG_LEVEL", "INFO"),
		LogFilePath:          getEnv("LOG_FILE", "./originwidget.log"),
		Port:                 getEnvInt("PORT", 7790),
		DatabaseURL:          getEnv("DATABASE_URL", "user.db"),
		AppsDir:              getEnv("APPS_DIR", "./apps"),
		SQLitePragmasEnabled: getEnvBool("SQLITE_PRAGMAS_ENABLED", true),
		SQLiteBusyTimeoutMS:  getEnvInt("SQLITE_BUSY_TIMEOUT_MS", 5000),
		SQLiteJournalMode:    getEnv("SQLITE_JOURNAL_MODE", "WAL"),
		SQLiteSynchronous:    getEnv("SQLITE_SYNCHRONOUS", "NORMAL"),
		SQLiteForeignKeys:    getEnvBool("SQLITE_FOREIGN_KEYS", true),
		SQLiteMaxOpenConns:   getEnvInt("SQLITE_MAX_OPEN_CONNS", 1),
		SQLiteMaxIdleConns:   getEnvInt("SQLITE_MAX_IDLE_CONNS", 1),
		SQLiteConnMaxIdleSec: getEnvInt("SQLITE_CONN_MAX_IDLE_SECONDS", 300),
		SQLiteConnMaxLifeSec: getEnvInt("SQLITE_CONN_MAX_LIFETIME_SECONDS", 0),
		CLIMode:              getEnvBool("CLI_MODE", false),

		UpdateWorkers:          getEnvInt("UPDATE_WORKERS", 2),
		UpdateQueueSize:        getEnvInt("UPDATE_QUEUE_SIZE", 64),
		UpdateTimeoutMS:        getEnvInt("UPDATE_TIMEOUT_MS", 10000),
		RefreshOnStartup:       getEnvBool("REFRESH_ON_STARTUP", true),
		DefaultWidgetWidth:     getEnvInt("DEFAULT_WIDGET_WIDTH", 0),
		DefaultWidgetHeight:    getEnvInt("DEFAULT_WIDGET_HEIGHT", 0),
		MaxErrorLogs:           getEnvInt("MAX_ERROR_LOGS", 100),
		RenderMaxDimension:     getEnvInt("RENDER_MAX_DIMENSION", 4096),
		GoroutineWarnThreshold: getEnvInt("GOROUTINE_WARN_THRESHOLD", 1000),
		GoroutineMonitorSec:    getEnvInt("GOROUTINE_MONITOR_INTERVAL_SECONDS", 60),
	}
}

// ParseFlags parses command-line flags and applies them over the environment-derived Settings.
// --help prints usage and exits, --version prints build info and exits.
func ParseFlags() {
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintf(out, "originwidget - app icon widget renderer\n\n")
		fmt.Fprintf(out, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintln(out, "Options:")
		flag.PrintDefaults()
		fmt.Fprintln(out, "\nEnvironment variables:")
		fmt.Fprintln(out, "  LOG_LEVEL                         Log level (DEBUG, INFO, WARN, ERROR)")
		fmt.Fprintln(out, "  LOG_FILE                          Log file path (default ./originwidget.log)")
		fmt.Fprintln(out, "  PORT                              HTTP server port (default 7790)")
		fmt.Fprintln(out, "  DATABASE_URL                      SQLite database path (default user.db)")
		fmt.Fprintln(out, "  APPS_DIR                          Directory with installed app icons (default ./apps)")
		fmt.Fprintln(out, "  SQLITE_PRAGMAS_ENABLED            Enable SQLite PRAGMAs (true/false, default true)")
		fmt.Fprintln(out, "  SQLITE_BUSY_TIMEOUT_MS            SQLite busy_timeout in milliseconds (default 5000)")
		fmt.Fprintln(out, "  SQLITE_JOURNAL_MODE               SQLite journal_mode (default WAL)")
		fmt.Fprintln(out, "  SQLITE_SYNCHRONOUS                SQLite synchronous (default NORMAL)")
		fmt.Fprintln(out, "  SQLITE_FOREIGN_KEYS               Enable SQLite foreign_keys (true/false, default true)")
		fmt.Fprintln(out, "  SQLITE_MAX_OPEN_CONNS             SQLite MaxOpenConns (default 1)")
		fmt.Fprintln(out, "  SQLITE_MAX_IDLE_CONNS             SQLite MaxIdleConns (default 1)")
		fmt.Fprintln(out, "  SQLITE_CONN_MAX_IDLE_SECONDS      SQLite ConnMaxIdleTime in seconds (default 300)")
		fmt.Fprintln(out, "  SQLITE_CONN_MAX_LIFETIME_SECONDS  SQLite ConnMaxLifetime in seconds (default 0)")
		fmt.Fprintln(out, "  UPDATE_WORKERS                    Widget update workers (default 2)")
		fmt.Fprintln(out, "  UPDATE_QUEUE_SIZE                 Pending widget update requests (default 64)")
		fmt.Fprintln(out, "  UPDATE_TIMEOUT_MS                 Timeout for one widget update in ms (default 10000)")
		fmt.Fprintln(out, "  REFRESH_ON_STARTUP                Refresh all configured widgets at startup (default true)")
		fmt.Fprintln(out, "  DEFAULT_WIDGET_WIDTH              Surface width used before the host reports one (default 0)")
		fmt.Fprintln(out, "  DEFAULT_WIDGET_HEIGHT             Surface height used before the host reports one (default 0)")
		fmt.Fprintln(out, "  MAX_ERROR_LOGS                    In-memory error log capacity (default 100)")
		fmt.Fprintln(out, "  RENDER_MAX_DIMENSION              Largest accepted render width/height (default 4096)")
		fmt.Fprintln(out, "  GOROUTINE_WARN_THRESHOLD          Goroutine count warning threshold (default 1000)")
		fmt.Fprintln(out, "  GOROUTINE_MONITOR_INTERVAL_SECONDS  Goroutine monitor interval (default 60)")
	}

	port := flag.Int("port", Settings.Port, "HTTP server port (overrides PORT)")
	db := flag.String("db", Settings.DatabaseURL, "SQLite database path (overrides DATABASE_URL)")
	appsDir := flag.String("apps-dir", Settings.AppsDir, "Directory with installed app icons (overrides APPS_DIR)")
	sqlitePragmasEnabled := flag.Bool("sqlite-pragmas", Settings.SQLitePragmasEnabled, "Enable SQLite PRAGMAs (overrides SQLITE_PRAGMAS_ENABLED)")
	sqliteBusyTimeoutMS := flag.Int("sqlite-busy-timeout-ms", Settings.SQLiteBusyTimeoutMS, "SQLite busy_timeout in milliseconds (overrides SQLITE_BUSY_TIMEOUT_MS)")
	sqliteJournalMode := flag.String("sqlite-journal-mode", Settings.SQLiteJournalMode, "SQLite journal_mode (overrides SQLITE_JOURNAL_MODE)")
	sqliteSynchronous := flag.String("sqlite-synchronous", Settings.SQLiteSynchronous, "SQLite synchronous (overrides SQLITE_SYNCHRONOUS)")
	sqliteMaxOpenConns := flag.Int("sqlite-max-open-conns", Settings.SQLiteMaxOpenConns, "SQLite MaxOpenConns (overrides SQLITE_MAX_OPEN_CONNS)")
	logLevel := flag.String("log-level", Settings.LogLevel, "Log level: DEBUG, INFO, WARN, ERROR (overrides LOG_LEVEL)")
	logFile := flag.String("log-file", Settings.LogFilePath, "Log file path (overrides LOG_FILE)")
	updateWorkers := flag.Int("update-workers", Settings.UpdateWorkers, "Widget update workers (overrides UPDATE_WORKERS)")
	updateQueueSize := flag.Int("update-queue-size", Settings.UpdateQueueSize, "Pending widget update requests (overrides UPDATE_QUEUE_SIZE)")
	refreshOnStartup := flag.Bool("refresh-on-startup", Settings.RefreshOnStartup, "Refresh all configured widgets at startup (overrides REFRESH_ON_STARTUP)")
	cliMode := flag.Bool("cli", Settings.CLIMode, "Run in CLI mode (HTTP client only, no database)")
	cliServer := flag.String("server", "http://localhost:7790", "Server URL for CLI mode")

	showHelp := flag.Bool("help", false, "Show help and exit")
	showVersion := flag.Bool("version", false, "Show version and exit")

	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetBuildInfo())
		os.Exit(0)
	}

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	Settings.Port = *port
	Settings.DatabaseURL = *db
	Settings.AppsDir = *appsDir
	Settings.SQLitePragmasEnabled = *sqlitePragmasEnabled
	Settings.SQLiteBusyTimeoutMS = *sqliteBusyTimeoutMS
	Settings.SQLiteJournalMode = *sqliteJournalMode
	Settings.SQLiteSynchronous = *sqliteSynchronous
	Settings.SQLiteMaxOpenConns = *sqliteMaxOpenConns
	Settings.LogLevel = *logLevel
	Settings.LogFilePath = *logFile
	Settings.UpdateWorkers = *updateWorkers
	Settings.UpdateQueueSize = *updateQueueSize
	Settings.RefreshOnStartup = *refreshOnStartup
	Settings.CLIMode = *cliMode
	Settings.CLIServer = *cliServer
}

// Debug reports whether debug logging is enabled.
func (c *Config) Debug() bool {
	return c.LogLevel == "DEBUG"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
