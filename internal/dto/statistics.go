package dto

// ── 统计模块 DTO ──

// UserStatisticsResponse 用户仪表盘统计
type UserStatisticsResponse struct {
	SchedulesCreated    int     `json:"schedules_created"`
	SchedulesThisWeek   int     `json:"schedules_this_week"`
	SavedSchedulesCount int     `json:"saved_schedules_count"`
	HoursSaved          float64 `json:"hours_saved"`
	SuccessRate         int     `json:"success_rate"`
	Efficiency          int     `json:"efficiency"`
}

// ActivityItem 一条最近活动
type ActivityItem struct {
	Action  string `json:"action"`
	Time    string `json:"time"` // 相对时间描述，如 "2 hours ago"
	Type    string `json:"type"` // generation / save
	Success bool   `json:"success"`
}

// RecentActivityResponse 最近活动列表
type RecentActivityResponse struct {
	Activities []ActivityItem `json:"activities"`
}
