package models

import "time"

// SystemMetrics 系统监控指标
// swagger:model
type SystemMetrics struct {
	Timestamp      time.Time `json:"timestamp"`       // 采集时间
	CPUUsage       float64   `json:"cpu_usage"`       // CPU使用率(%)
	MemTotal       uint64    `json:"mem_total"`       // 内存总量(字节)
	MemUsed        uint64    `json:"mem_used"`        // 已用内存(字节)
	MemFree        uint64    `json:"mem_free"`        // 空闲内存(字节)
	MemUsageRate   float64   `json:"mem_usage_rate"`  // 内存使用率(%)
	GoroutineCount int       `json:"goroutine_count"` // Goroutine数量
}
