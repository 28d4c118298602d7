package database

import (
	"fmt"
	"net/url"
	"originwidget/config"
	"strings"
)

type sqlitePoolConfig struct {
	maxOpenConns int
	maxIdleConns int
	maxIdleSec   int
	maxLifeSec   int
}

// currentSQLitePoolConfig reads pool settings and clamps them: at least one open
// connection, idle connections within [0, maxOpen], non-negative durations.
func currentSQLitePoolConfig(settings *config.Config) sqlitePoolConfig {
	cfg := sqlitePoolConfig{
		maxOpenConns: max(settings.SQLiteMaxOpenConns, 1),
		maxIdleConns: max(settings.SQLiteMaxIdleConns, 0),
		maxIdleSec:   max(settings.SQLiteConnMaxIdleSec, 0),
		maxLifeSec:   max(settings.SQLiteConnMaxLifeSec, 0),
	}
	cfg.maxIdleConns = min(cfg.maxIdleConns, cfg.maxOpenConns)
	return cfg
}

type sqlitePragma struct {
	name  string
	value string
}

func enabledPragmas(settings *config.Config) []sqlitePragma {
	if !settings.SQLitePragmasEnabled {
		return nil
	}

	var out []sqlitePragma
	if settings.SQLiteBusyTimeoutMS > 0 {
		out = append(out, sqlitePragma{"busy_timeout", fmt.Sprint(settings.SQLiteBusyTimeoutMS)})
	}
	if mode := normalizeSQLiteJournalMode(settings.SQLiteJournalMode); mode != "" {
		out = append(out, sqlitePragma{"journal_mode", mode})
	}
	if sync := normalizeSQLiteSynchronous(settings.SQLiteSynchronous); sync != "" {
		out = append(out, sqlitePragma{"synchronous", sync})
	}
	fk := "0"
	if settings.SQLiteForeignKeys {
		fk = "1"
	}
	out = append(out, sqlitePragma{"foreign_keys", fk})
	return out
}

// buildSQLiteDSN appends `_pragma=name(value)` parameters understood by the
// glebarez driver, keeping any query parameters already present in dbPath.
func buildSQLiteDSN(dbPath string, settings *config.Config) string {
	base, rawQuery, _ := strings.Cut(dbPath, "?")
	query, _ := url.ParseQuery(rawQuery)

	for _, p := range enabledPragmas(settings) {
		query.Add("_pragma", fmt.Sprintf("%s(%s)", p.name, p.value))
	}

	if len(query) == 0 {
		return base
	}
	return base + "?" + query.Encode()
}

func pragmaStatements(settings *config.Config) []string {
	pragmas := enabledPragmas(settings)
	out := make([]string, 0, len(pragmas))
	for _, p := range pragmas {
		out = append(out, fmt.Sprintf("PRAGMA %s = %s", p.name, p.value))
	}
	return out
}

// normalizeSQLiteJournalMode returns the uppercase journal mode, or "" when it is not one SQLite accepts.
func normalizeSQLiteJournalMode(value string) string {
	value = strings.ToUpper(strings.TrimSpace(value))
	switch value {
	case "WAL", "DELETE", "TRUNCATE", "PERSIST", "MEMORY", "OFF":
		return value
	default:
		return ""
	}
}

// normalizeSQLiteSynchronous returns the uppercase synchronous level, or "" when invalid.
func normalizeSQLiteSynchronous(value string) string {
	value = strings.ToUpper(strings.TrimSpace(value))
	switch value {
	case "OFF", "NORMAL", "FULL", "EXTRA", "0", "1", "2", "3":
		return value
	default:
		return ""
	}
}
