package utils

import (
	"runtime"

	"go.uber.org/zap"
)

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}

// MemUsageFields reports allocation and GC statistics as log fields.
// For info on each, see: https://golang.org/pkg/runtime/#MemStats
func MemUsageFields() []zap.Field {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return []zap.Field{
		zap.Uint64("allocMiB", bToMb(m.Alloc)),
		zap.Uint64("totalAllocMiB", bToMb(m.TotalAlloc)),
		zap.Uint64("sysMiB", bToMb(m.Sys)),
		zap.Uint32("numGC", m.NumGC),
	}
}
