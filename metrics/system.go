package metrics

import (
	"runtime"
	"strconv"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/load"
)

// StartSystemCollector periodically refreshes runtime and host gauges
func StartSystemCollector(interval time.Duration) {
	go func() {
		for {
			collectRuntimeStats()
			collectHostStats()
			time.Sleep(interval)
		}
	}()
}

func collectRuntimeStats() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	MemoryStats.WithLabelValues("alloc").Set(float64(memStats.Alloc))
	MemoryStats.WithLabelValues("sys").Set(float64(memStats.Sys))
	MemoryStats.WithLabelValues("heap_alloc").Set(float64(memStats.HeapAlloc))
	MemoryStats.WithLabelValues("heap_sys").Set(float64(memStats.HeapSys))
	MemoryStats.WithLabelValues("heap_idle").Set(float64(memStats.HeapIdle))
	MemoryStats.WithLabelValues("heap_inuse").Set(float64(memStats.HeapInuse))

	GoroutineCount.Set(float64(runtime.NumGoroutine()))
}

func collectHostStats() {
	if percents, err := cpu.Percent(0, true); err == nil {
		for core, percent := range percents {
			SystemCPUUsage.WithLabelValues(strconv.Itoa(core)).Set(percent)
		}
	}

	if usage, err := disk.Usage("/"); err == nil {
		SystemDiskUsage.WithLabelValues(usage.Path, "used").Set(float64(usage.Used))
		SystemDiskUsage.WithLabelValues(usage.Path, "free").Set(float64(usage.Free))
		SystemDiskUsage.WithLabelValues(usage.Path, "total").Set(float64(usage.Total))
	}

	if avg, err := load.Avg(); err == nil {
		SystemLoadAverage.WithLabelValues("1min").Set(avg.Load1)
		SystemLoadAverage.WithLabelValues("5min").Set(avg.Load5)
		SystemLoadAverage.WithLabelValues("15min").Set(avg.Load15)
	}
}
