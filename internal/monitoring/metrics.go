package monitoring

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"taskmanager/internal/database"
)

// Service holds runtime context for monitoring and reporting.
type Service struct {
	startedAt time.Time
	store     *database.Store
}

type DiskUsage struct {
	TotalBytes uint64
	FreeBytes  uint64
}

type Snapshot struct {
	TimestampUTC       string  `json:"timestamp_utc"`
	UptimeSeconds      int64   `json:"uptime_seconds"`
	HTTPActiveRequests int64   `json:"http_active_requests"`
	HTTPTotalRequests  uint64  `json:"http_total_requests"`
	HTTPServerErrors   uint64  `json:"http_server_errors"`
	DBDialect          string  `json:"db_dialect"`
	DBOpenConnections  int     `json:"db_open_connections"`
	DBInUseConnections int     `json:"db_in_use_connections"`
	DBWaitCount        int64   `json:"db_wait_count"`
	DBSizeBytes        int64   `json:"db_size_bytes"`
	Goroutines         int     `json:"goroutines"`
	GoMemoryAllocBytes uint64  `json:"go_memory_alloc_bytes"`
	GoMemorySysBytes   uint64  `json:"go_memory_sys_bytes"`
	GoHeapInUseBytes   uint64  `json:"go_heap_in_use_bytes"`
	GoGCCount          uint32  `json:"go_gc_count"`
	UsersTotal         int64   `json:"users_total"`
	TasksTotal         int64   `json:"tasks_total"`
	TasksCompleted     int64   `json:"tasks_completed"`
	TasksOverdue       int64   `json:"tasks_overdue"`
	TaskWritesTotal    uint64  `json:"task_writes_total"`
	TaskWritesFailed   uint64  `json:"task_writes_failed"`
	TaskWriteAvgMS     float64 `json:"task_write_avg_ms"`
}

func NewService(startedAt time.Time, store *database.Store) *Service {
	return &Service{startedAt: startedAt, store: store}
}

func (s *Service) StatusText(ctx context.Context) string {
	dbState := "ok"
	if err := s.store.Ping(ctx); err != nil {
		dbState = "error: " + err.Error()
	}

	uptime := time.Since(s.startedAt).Round(time.Second)
	activeHTTP, totalHTTP, serverErrors := getHTTPStats()
	generic := s.store.DB().Stats()

	return strings.Join([]string{
		"Task Manager Server Status",
		fmt.Sprintf("Uptime: %s", uptime),
		fmt.Sprintf("DB (%s): %s", s.store.Dialect(), dbState),
		fmt.Sprintf("HTTP active requests: %d", activeHTTP),
		fmt.Sprintf("HTTP total requests: %d", totalHTTP),
		fmt.Sprintf("HTTP 5xx responses: %d", serverErrors),
		fmt.Sprintf("DB open connections: %d", generic.OpenConnections),
		fmt.Sprintf("Go goroutines: %d", runtime.NumGoroutine()),
	}, "\n")
}

func (s *Service) StorageText(ctx context.Context) string {
	target := s.store.Target()
	lines := []string{"Task Manager Storage"}

	switch {
	case target.InMemory():
		lines = append(lines, "SQLite database: in-memory")
	case target.Dialect == database.DialectSQLite:
		usage := diskUsage(filepath.Dir(target.FilePath))
		lines = append(lines,
			fmt.Sprintf("SQLite file (%s): %s", target.FilePath, formatBytes(s.databaseSize(ctx))),
			fmt.Sprintf("Disk free: %s", formatBytes(int64(usage.FreeBytes))),
			fmt.Sprintf("Disk total: %s", formatBytes(int64(usage.TotalBytes))),
		)
	default:
		lines = append(lines, fmt.Sprintf("PostgreSQL DB size: %s", formatBytes(s.databaseSize(ctx))))
	}

	return strings.Join(lines, "\n")
}

func (s *Service) ConnectionsText() string {
	stats := s.store.DB().Stats()
	activeHTTP, totalHTTP, _ := getHTTPStats()

	return strings.Join([]string{
		"Task Manager Connections",
		fmt.Sprintf("DB MaxOpenConnections: %d", stats.MaxOpenConnections),
		fmt.Sprintf("DB OpenConnections: %d", stats.OpenConnections),
		fmt.Sprintf("DB InUse: %d", stats.InUse),
		fmt.Sprintf("DB Idle: %d", stats.Idle),
		fmt.Sprintf("DB WaitCount: %d", stats.WaitCount),
		fmt.Sprintf("HTTP active requests: %d", activeHTTP),
		fmt.Sprintf("HTTP total requests: %d", totalHTTP),
	}, "\n")
}

func (s *Service) RuntimeText() string {
	var memory runtime.MemStats
	runtime.ReadMemStats(&memory)

	return strings.Join([]string{
		"Task Manager Runtime",
		fmt.Sprintf("Go version: %s", runtime.Version()),
		fmt.Sprintf("CPU cores: %d", runtime.NumCPU()),
		fmt.Sprintf("Goroutines: %d", runtime.NumGoroutine()),
		fmt.Sprintf("Memory alloc: %s", formatBytes(int64(memory.Alloc))),
		fmt.Sprintf("Memory sys: %s", formatBytes(int64(memory.Sys))),
		fmt.Sprintf("Heap in use: %s", formatBytes(int64(memory.HeapInuse))),
		fmt.Sprintf("GC cycles: %d", memory.NumGC),
	}, "\n")
}

func (s *Service) UsersText(ctx context.Context) string {
	usersTotal, _ := s.store.CountUsers(ctx)
	stats, _ := s.store.TaskStats(ctx, time.Now())
	writes := getWriteStats()

	return strings.Join([]string{
		"Task Manager Users",
		fmt.Sprintf("Users total: %d", usersTotal),
		fmt.Sprintf("Tasks total: %d", stats.Total),
		fmt.Sprintf("Tasks completed: %d", stats.Completed),
		fmt.Sprintf("Tasks overdue: %d", stats.Overdue),
		fmt.Sprintf("Task writes: %d (failed %d, avg %.2f ms)", writes.RequestsTotal, writes.FailedTotal, writes.AvgDurationMS),
	}, "\n")
}

func (s *Service) AllText(ctx context.Context) string {
	return strings.Join([]string{
		s.StatusText(ctx),
		"",
		s.StorageText(ctx),
		"",
		s.ConnectionsText(),
		"",
		s.RuntimeText(),
		"",
		s.UsersText(ctx),
	}, "\n")
}

func (s *Service) Snapshot(ctx context.Context) Snapshot {
	stats := s.store.DB().Stats()
	activeHTTP, totalHTTP, serverErrors := getHTTPStats()
	writes := getWriteStats()

	var memory runtime.MemStats
	runtime.ReadMemStats(&memory)

	snap := Snapshot{
		TimestampUTC:       time.Now().UTC().Format(time.RFC3339),
		UptimeSeconds:      int64(time.Since(s.startedAt).Seconds()),
		HTTPActiveRequests: activeHTTP,
		HTTPTotalRequests:  totalHTTP,
		HTTPServerErrors:   serverErrors,
		DBDialect:          string(s.store.Dialect()),
		DBOpenConnections:  stats.OpenConnections,
		DBInUseConnections: stats.InUse,
		DBWaitCount:        stats.WaitCount,
		DBSizeBytes:        s.databaseSize(ctx),
		Goroutines:         runtime.NumGoroutine(),
		GoMemoryAllocBytes: memory.Alloc,
		GoMemorySysBytes:   memory.Sys,
		GoHeapInUseBytes:   memory.HeapInuse,
		GoGCCount:          memory.NumGC,
		TaskWritesTotal:    writes.RequestsTotal,
		TaskWritesFailed:   writes.FailedTotal,
		TaskWriteAvgMS:     writes.AvgDurationMS,
	}

	snap.UsersTotal, _ = s.store.CountUsers(ctx)
	if taskStats, err := s.store.TaskStats(ctx, time.Now()); err == nil {
		snap.TasksTotal = taskStats.Total
		snap.TasksCompleted = taskStats.Completed
		snap.TasksOverdue = taskStats.Overdue
	}

	return snap
}

func (s *Service) databaseSize(ctx context.Context) int64 {
	target := s.store.Target()
	switch {
	case target.InMemory():
		return 0
	case target.Dialect == database.DialectSQLite:
		info, err := os.Stat(target.FilePath)
		if err != nil {
			return 0
		}
		return info.Size()
	default:
		var size int64
		_ = s.store.DB().QueryRowContext(ctx, `SELECT COALESCE(pg_database_size(current_database()), 0)`).Scan(&size)
		return size
	}
}

func formatBytes(value int64) string {
	units := []string{"B", "KB", "MB", "GB", "TB"}
	size := float64(value)
	unit := 0

	for size >= 1024 && unit < len(units)-1 {
		size /= 1024
		unit++
	}

	if unit == 0 {
		return fmt.Sprintf("%d %s", value, units[unit])
	}
	return fmt.Sprintf("%.2f %s", size, units[unit])
}
