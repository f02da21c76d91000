package monitoring

import (
	"sync/atomic"
	"time"
)

var taskWritesTotal atomic.Uint64
var taskWritesFailed atomic.Uint64
var taskWriteDurationMicrosTotal atomic.Uint64

type WriteStats struct {
	RequestsTotal uint64  `json:"task_writes_total"`
	FailedTotal   uint64  `json:"task_writes_failed"`
	AvgDurationMS float64 `json:"task_write_avg_ms"`
}

// RecordTaskWrite counts one create, update, toggle or delete request.
func RecordTaskWrite(duration time.Duration, success bool) {
	taskWritesTotal.Add(1)
	if !success {
		taskWritesFailed.Add(1)
	}
	if duration > 0 {
		taskWriteDurationMicrosTotal.Add(uint64(duration / time.Microsecond))
	}
}

func getWriteStats() WriteStats {
	total := taskWritesTotal.Load()
	totalDurationMicros := taskWriteDurationMicrosTotal.Load()
	avgDurationMS := 0.0
	if total > 0 {
		avgDurationMS = float64(totalDurationMicros) / float64(total) / 1000.0
	}

	return WriteStats{
		RequestsTotal: total,
		FailedTotal:   taskWritesFailed.Load(),
		AvgDurationMS: avgDurationMS,
	}
}
