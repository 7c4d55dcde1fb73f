package store

import (
	"time"

	"github.com/iqac-smarttrack/apiserver/types"
)

// Seed is the dataset written to collections that do not exist yet.
type Seed struct {
	Users []types.User
	Tasks []types.Task
	Files []types.UploadedFile
}

func mustTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		panic(err)
	}
	return t
}

func mustDate(raw string) types.Date {
	d, err := types.ParseDate(raw)
	if err != nil {
		panic(err)
	}
	return d
}

// DefaultUsers is the fixed bootstrap user list.
func DefaultUsers() []types.User {
	seeded := mustTime("2024-01-01T00:00:00Z")
	user := func(id, email, name string, role types.Role, department string) types.User {
		return types.User{
			ID:         id,
			Email:      email,
			Name:       name,
			Role:       role,
			Department: department,
			CreatedAt:  seeded,
			UpdatedAt:  seeded,
		}
	}
	return []types.User{
		user("1", "iqac@university.edu", "IQAC Admin", types.RoleQAOffice, "Administration"),
		user("2", "hod@university.edu", "Prof. Johnson", types.RoleDepartmentHead, "Computer Science"),
		user("3", "staff@university.edu", "Dr. Smith", types.RoleStaff, "Computer Science"),
		user("4", "staff2@university.edu", "Dr. Brown", types.RoleStaff, "Mathematics"),
		user("5", "staff3@university.edu", "Prof. Wilson", types.RoleStaff, "Physics"),
	}
}

// DefaultSeed returns the dataset a fresh store starts with.
func DefaultSeed() Seed {
	return Seed{
		Users: DefaultUsers(),
		Tasks: []types.Task{
			{
				ID:          "1",
				Title:       "Prepare Annual Quality Report",
				Description: "Compile and prepare the annual quality assurance report for NAAC submission",
				AssignedTo:  "3",
				CreatedBy:   "1",
				Department:  "Computer Science",
				DueDate:     mustDate("2024-02-15"),
				Priority:    types.PriorityHigh,
				Status:      types.TaskStatusInProgress,
				CreatedAt:   mustTime("2024-01-15T10:00:00Z"),
				UpdatedAt:   mustTime("2024-01-15T10:00:00Z"),
			},
			{
				ID:          "2",
				Title:       "Update Curriculum Mapping",
				Description: "Review and update the curriculum mapping for the new academic year",
				AssignedTo:  "4",
				CreatedBy:   "1",
				Department:  "Mathematics",
				DueDate:     mustDate("2024-03-01"),
				Priority:    types.PriorityMedium,
				Status:      types.TaskStatusPending,
				CreatedAt:   mustTime("2024-01-10T09:00:00Z"),
				UpdatedAt:   mustTime("2024-01-10T09:00:00Z"),
			},
			{
				ID:          "3",
				Title:       "Faculty Development Program Report",
				Description: "Submit report on faculty development programs attended this semester",
				AssignedTo:  "5",
				CreatedBy:   "2",
				Department:  "Physics",
				DueDate:     mustDate("2024-02-28"),
				Priority:    types.PriorityLow,
				Status:      types.TaskStatusCompleted,
				CreatedAt:   mustTime("2024-01-05T14:30:00Z"),
				UpdatedAt:   mustTime("2024-01-20T16:45:00Z"),
			},
		},
		Files: []types.UploadedFile{
			{
				ID:          "1",
				TaskID:      "1",
				UploadedBy:  "3",
				FileName:    "annual-report-draft.pdf",
				FileSize:    2048576,
				FileType:    "application/pdf",
				FileURL:     PlaceholderURL("Annual Report Draft"),
				UploadTitle: "Annual Report Draft",
				Description: "First draft of the annual quality assurance report",
				Category:    "Assessment Reports",
				Status:      types.FileStatusUploaded,
				CreatedAt:   mustTime("2024-01-15T14:30:00Z"),
			},
			{
				ID:          "2",
				TaskID:      "2",
				UploadedBy:  "4",
				FileName:    "curriculum-mapping.xlsx",
				FileSize:    1024000,
				FileType:    "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
				FileURL:     PlaceholderURL("Curriculum Mapping"),
				UploadTitle: "Curriculum Mapping Document",
				Description: "Updated curriculum mapping for mathematics department",
				Category:    "Documentation",
				Status:      types.FileStatusUploaded,
				CreatedAt:   mustTime("2024-01-12T11:15:00Z"),
			},
		},
	}
}
