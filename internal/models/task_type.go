package models

// RunType 定义任务的执行通道
type RunType string

const (
	RunTypeGPU   RunType = "gpu"   // GPU工作池
	RunTypeAPI   RunType = "api"   // 外部API调用
	RunTypeLocal RunType = "local" // 用户本地执行
)

// BillingType 定义计费方式
type BillingType string

const (
	BillingPerSecond BillingType = "per_second" // 按执行秒数计费
	BillingPerUnit   BillingType = "per_unit"   // 按次计费，与时长无关
)

// TaskType 任务类型目录，读多写少
// swagger:model
type TaskType struct {
	Name           string      `json:"name" gorm:"primarykey;size:100"`            // 类型名称
	RunType        RunType     `json:"run_type" gorm:"size:20;not null;index"`     // 执行通道
	IsActive       bool        `json:"is_active" gorm:"not null;default:true"`     // 是否开放认领
	IsOrchestrator bool        `json:"is_orchestrator" gorm:"not null;default:false"` // 编排类任务不计入并发上限
	BillingType    BillingType `json:"billing_type" gorm:"size:20;not null"`       // 计费方式
	UnitCost       float64     `json:"unit_cost" gorm:"not null;default:0"`        // 单位费率(积分/秒 或 积分/次)
}
