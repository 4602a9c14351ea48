package dto

// ── 统计模块 DTO ──

// DashboardResponse 首页统计
type DashboardResponse struct {
	Theses    ThesisStats   `json:"theses"`
	Deadlines DeadlineStats `json:"deadlines"`
}

// ThesisStats 论文统计
type ThesisStats struct {
	Total      int64            `json:"total"`
	ByStatus   map[string]int64 `json:"by_status"`
	ThisMonth  int64            `json:"this_month"`
	Approved   int64            `json:"approved"`
	InProgress int64            `json:"in_progress"`
	Pending    int64            `json:"pending"`
}

// DeadlineStats 期限统计
type DeadlineStats struct {
	Active       int64                   `json:"active"`
	Upcoming     int64                   `json:"upcoming"`
	Expired      int64                   `json:"expired"`
	UpcomingList []DeadlineWithRemaining `json:"upcoming_list"`
}

// ChartPoint 图表数据点
type ChartPoint struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// MonthChartQuery 按月统计查询参数
type MonthChartQuery struct {
	Months int `form:"months" binding:"omitempty,min=1,max=24"`
}
