package services

import (
	"cmp"
	"context"
	"math"
	"slices"
	"time"

	"github.com/iqac-smarttrack/apiserver/types"
)

const recentTaskCount = 5

// ReportService computes progress analytics over the stored tasks.
type ReportService struct {
	tasks TaskRepository
	users UserRepository
	now   func() time.Time
}

func NewReportService(tasks TaskRepository, users UserRepository) *ReportService {
	return &ReportService{tasks: tasks, users: users, now: time.Now}
}

// Summary counts tasks by status, department and month.
func (s *ReportService) Summary(ctx context.Context) (types.Report, error) {
	tasks, err := s.tasks.ListTasks(ctx)
	if err != nil {
		return types.Report{}, err
	}

	today := types.NewDate(s.now())
	report := types.Report{
		TotalTasks:  len(tasks),
		Departments: []types.DepartmentStat{},
		Monthly:     []types.MonthlyProgress{},
	}
	departments := map[string]*types.DepartmentStat{}
	type monthKey struct {
		year  int
		month time.Month
	}
	months := map[monthKey]*types.MonthlyProgress{}
	month := func(t time.Time) *types.MonthlyProgress {
		t = t.UTC()
		key := monthKey{t.Year(), t.Month()}
		m, ok := months[key]
		if !ok {
			m = &types.MonthlyProgress{Month: t.Format("Jan 2006")}
			months[key] = m
		}
		return m
	}

	var completionDays float64
	for _, task := range tasks {
		dept, ok := departments[task.Department]
		if !ok {
			dept = &types.DepartmentStat{Department: task.Department}
			departments[task.Department] = dept
		}
		dept.Total++
		month(task.CreatedAt).Assigned++

		switch task.Status {
		case types.TaskStatusCompleted:
			report.CompletedTasks++
			dept.Completed++
			month(task.UpdatedAt).Completed++
			completionDays += task.UpdatedAt.Sub(task.CreatedAt).Hours() / 24
		case types.TaskStatusInProgress:
			report.InProgressTasks++
			dept.InProgress++
		default:
			report.PendingTasks++
			dept.Pending++
		}

		if task.Status != types.TaskStatusCompleted && !task.DueDate.IsZero() && task.DueDate.Before(today.Time) {
			report.OverdueTasks++
		}
	}

	if report.TotalTasks > 0 {
		report.CompletionRate = round1(float64(report.CompletedTasks) * 100 / float64(report.TotalTasks))
	}
	if report.CompletedTasks > 0 {
		report.AverageCompletionDays = round1(completionDays / float64(report.CompletedTasks))
	}

	for _, dept := range departments {
		report.Departments = append(report.Departments, *dept)
	}
	slices.SortFunc(report.Departments, func(a, b types.DepartmentStat) int {
		return cmp.Compare(a.Department, b.Department)
	})

	keys := make([]monthKey, 0, len(months))
	for key := range months {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b monthKey) int {
		if c := cmp.Compare(a.year, b.year); c != 0 {
			return c
		}
		return cmp.Compare(a.month, b.month)
	})
	for _, key := range keys {
		report.Monthly = append(report.Monthly, *months[key])
	}
	return report, nil
}

// Dashboard returns headline numbers and the most recently created tasks.
func (s *ReportService) Dashboard(ctx context.Context) (types.Dashboard, error) {
	tasks, err := s.tasks.ListTasks(ctx)
	if err != nil {
		return types.Dashboard{}, err
	}
	users, err := s.users.ListUsers(ctx, "")
	if err != nil {
		return types.Dashboard{}, err
	}

	dashboard := types.Dashboard{TotalTasks: len(tasks)}
	for _, task := range tasks {
		switch task.Status {
		case types.TaskStatusCompleted:
			dashboard.CompletedTasks++
		case types.TaskStatusInProgress:
			dashboard.InProgress++
		}
	}
	for _, user := range users {
		if user.Role != types.RoleQAOffice {
			dashboard.FacultyMembers++
		}
	}

	recent := slices.Clone(tasks)
	slices.SortStableFunc(recent, func(a, b types.Task) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(recent) > recentTaskCount {
		recent = recent[:recentTaskCount]
	}
	j := joiner{users: indexByID(users)}
	dashboard.RecentTasks = make([]types.TaskView, len(recent))
	for i, task := range recent {
		dashboard.RecentTasks[i] = j.task(task)
	}
	return dashboard, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
