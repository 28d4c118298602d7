package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"originwidget/core"
	"originwidget/database"
	"originwidget/version"
)

// HealthCheck reports database connectivity and updater state.
func (h *Handler) HealthCheck(c *gin.Context) {
	dbHealthy := database.SQLiteUp(c.Request.Context(), h.svc.DB)
	stats := h.svc.Updater.Stats()

	health := gin.H{
		"status":          "healthy",
		"timestamp":       time.Now().Unix(),
		"version":         version.Version,
		"db_healthy":      dbHealthy,
		"updater_running": stats.Running,
		"surfaces":        h.svc.Surfaces.Count(),
	}

	if !dbHealthy || !stats.Running {
		health["status"] = "degraded"
		respond(c, http.StatusServiceUnavailable, CodeUnavailable, "degraded", health)
		return
	}
	ok(c, health)
}

type metricsSnapshot struct {
	timestamp  int64
	surfaces   int
	apps       int
	errorLogs  int
	updater    core.UpdaterStats
	sqlite     database.Stats
	goroutines int
	mem        runtime.MemStats
}

func (h *Handler) collectMetricsSnapshot() metricsSnapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return metricsSnapshot{
		timestamp:  time.Now().Unix(),
		surfaces:   h.svc.Surfaces.Count(),
		apps:       len(h.svc.Catalog.List()),
		errorLogs:  h.svc.ErrorLog.Count(),
		updater:    h.svc.Updater.Stats(),
		sqlite:     database.Snapshot(),
		goroutines: runtime.NumGoroutine(),
		mem:        mem,
	}
}

// GetMetrics returns updater, surface and runtime metrics as JSON.
func (h *Handler) GetMetrics(c *gin.Context) {
	s := h.collectMetricsSnapshot()

	ok(c, gin.H{
		"timestamp": s.timestamp,
		"updater":   s.updater,
		"surfaces":  gin.H{"total": s.surfaces},
		"apps":      gin.H{"total": s.apps},
		"errors":    gin.H{"logs": s.errorLogs},
		"sqlite":    s.sqlite,
		"system": gin.H{
			"goroutines":   s.goroutines,
			"memory_alloc": s.mem.Alloc,
			"memory_total": s.mem.TotalAlloc,
			"memory_sys":   s.mem.Sys,
			"gc_runs":      s.mem.NumGC,
		},
	})
}

func promLabelEscape(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	return s
}

func writeMetric(buf *bytes.Buffer, name, kind, help string, value interface{}) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s %s\n", name, kind)
	fmt.Fprintf(buf, "%s %v\n", name, value)
}

// GetPrometheusMetrics writes the metrics in the Prometheus text exposition format.
func (h *Handler) GetPrometheusMetrics(c *gin.Context) {
	s := h.collectMetricsSnapshot()
	var buf bytes.Buffer

	buf.WriteString("# HELP originwidget_build_info Build information.\n")
	buf.WriteString("# TYPE originwidget_build_info gauge\n")
	fmt.Fprintf(
		&buf,
		"originwidget_build_info{version=\"%s\",commit=\"%s\",build_time=\"%s\"} 1\n",
		promLabelEscape(version.Version),
		promLabelEscape(version.CommitHash),
		promLabelEscape(version.BuildTime),
	)

	sqliteUp := 0
	if database.SQLiteUp(c.Request.Context(), h.svc.DB) {
		sqliteUp = 1
	}
	writeMetric(&buf, "originwidget_sqlite_up", "gauge", "SQLite connectivity (1=up, 0=down).", sqliteUp)
	writeMetric(&buf, "originwidget_sqlite_queries_total", "counter", "Total SQL statements executed.", s.sqlite.Queries)
	writeMetric(&buf, "originwidget_sqlite_slow_queries_total", "counter", "SQL statements slower than the slow query threshold.", s.sqlite.SlowQueries)
	writeMetric(&buf, "originwidget_sqlite_busy_errors_total", "counter", "Total SQLite busy errors observed.", s.sqlite.BusyErrors)
	writeMetric(&buf, "originwidget_sqlite_locked_errors_total", "counter", "Total SQLite locked errors observed.", s.sqlite.LockedErrors)

	writeMetric(&buf, "originwidget_surfaces", "gauge", "Registered widget surfaces.", s.surfaces)
	writeMetric(&buf, "originwidget_apps", "gauge", "Installed apps in the catalog.", s.apps)
	writeMetric(&buf, "originwidget_error_logs", "gauge", "Error log entries kept in memory.", s.errorLogs)

	writeMetric(&buf, "originwidget_update_workers", "gauge", "Widget update workers.", s.updater.Workers)
	writeMetric(&buf, "originwidget_update_queue_len", "gauge", "Pending widget update requests.", s.updater.QueueLen)
	writeMetric(&buf, "originwidget_update_queue_capacity", "gauge", "Widget update queue capacity.", s.updater.QueueCap)
	writeMetric(&buf, "originwidget_updates_enqueued_total", "counter", "Widget update requests accepted.", s.updater.Enqueued)
	writeMetric(&buf, "originwidget_updates_dropped_total", "counter", "Widget update requests dropped due to backpressure.", s.updater.Dropped)
	writeMetric(&buf, "originwidget_updates_completed_total", "counter", "Widget updates applied to a surface.", s.updater.Completed)
	writeMetric(&buf, "originwidget_updates_skipped_total", "counter", "Widget updates skipped for lack of a config.", s.updater.Skipped)
	writeMetric(&buf, "originwidget_updates_discarded_total", "counter", "Widget updates discarded because the surface was gone.", s.updater.Discarded)
	writeMetric(&buf, "originwidget_updates_failed_total", "counter", "Widget updates that failed.", s.updater.Failed)
	writeMetric(&buf, "originwidget_updates_missing_sources_total", "counter", "Widget updates rendered without a background or icon.", s.updater.MissingSources)

	writeMetric(&buf, "originwidget_go_goroutines", "gauge", "Number of goroutines.", s.goroutines)
	writeMetric(&buf, "originwidget_memory_alloc_bytes", "gauge", "Bytes of allocated heap objects.", s.mem.Alloc)
	writeMetric(&buf, "originwidget_memory_sys_bytes", "gauge", "Bytes obtained from the OS.", s.mem.Sys)
	writeMetric(&buf, "originwidget_gc_runs_total", "counter", "Number of completed GC cycles.", s.mem.NumGC)

	c.Data(http.StatusOK, "text/plain; version=0.0.4; charset=utf-8", buf.Bytes())
}

// GetErrorLogs returns recent error logs, newest first. ?widget=<id> filters by widget.
func (h *Handler) GetErrorLogs(c *gin.Context) {
	widgetID, err := intQuery(c, "widget", 0)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, h.svc.ErrorLog.Recent(widgetID))
}

// ClearErrorLogs removes all error logs.
func (h *Handler) ClearErrorLogs(c *gin.Context) {
	h.svc.ErrorLog.Clear()
	ok(c, gin.H{})
}
