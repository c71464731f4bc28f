package models

// TaskMetrics holds the dashboard counters. The three status buckets always
// sum to Total because Status is constrained to the three valid values on
// every write.
type TaskMetrics struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"inProgress"`
	Completed  int `json:"completed"`
}

// DashboardSnapshot is what both dashboards render: the counters plus a
// bounded most-recently-created list.
type DashboardSnapshot struct {
	Metrics     TaskMetrics `json:"metrics"`
	RecentTasks []Task      `json:"recentTasks"`
}
