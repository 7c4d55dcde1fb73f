package types

// Report summarizes task progress across the institution.
type Report struct {
	TotalTasks      int `json:"total_tasks"`
	CompletedTasks  int `json:"completed_tasks"`
	PendingTasks    int `json:"pending_tasks"`
	InProgressTasks int `json:"in_progress_tasks"`
	OverdueTasks    int `json:"overdue_tasks"`

	// CompletionRate is the percentage of tasks completed, rounded to
	// one decimal place.
	CompletionRate float64 `json:"completion_rate"`

	// AverageCompletionDays is the mean number of days between creation and
	// the last update of completed tasks.
	AverageCompletionDays float64 `json:"average_completion_days"`

	Departments []DepartmentStat  `json:"departments"`
	Monthly     []MonthlyProgress `json:"monthly"`
}

// DepartmentStat is the per-department task breakdown.
type DepartmentStat struct {
	Department string `json:"department"`
	Total      int    `json:"total"`
	Completed  int    `json:"completed"`
	Pending    int    `json:"pending"`
	InProgress int    `json:"in_progress"`
}

// MonthlyProgress counts tasks assigned and completed in a calendar month.
type MonthlyProgress struct {
	// Month is formatted as "Jan 2024".
	Month     string `json:"month"`
	Assigned  int    `json:"assigned"`
	Completed int    `json:"completed"`
}

// Dashboard is the landing-page overview.
type Dashboard struct {
	TotalTasks     int        `json:"total_tasks"`
	CompletedTasks int        `json:"completed_tasks"`
	InProgress     int        `json:"in_progress"`
	FacultyMembers int        `json:"faculty_members"`
	RecentTasks    []TaskView `json:"recent_tasks"`
}

// FacultyMember is a directory entry with the member's task workload.
type FacultyMember struct {
	User

	ActiveTasks    int `json:"active_tasks"`
	CompletedTasks int `json:"completed_tasks"`
}
