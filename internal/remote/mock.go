package remote

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"
)

// MockURL is the file URL handed out for uploads while unconfigured.
const MockURL = "/placeholder.jpg"

// Mock answers every call with fixed data and never remembers writes.
// Inserts echo their input, updates echo the merge of their input with the
// matched fixed row, and deletes report how many fixed rows matched.
type Mock struct {
	now    func() time.Time
	tables map[string][]map[string]any
}

func NewMock() *Mock {
	return &Mock{now: time.Now, tables: mockData()}
}

func (m *Mock) From(table string) Table {
	return &mockTable{mock: m, rows: m.tables[table]}
}

func (m *Mock) Configured() bool { return false }

func (m *Mock) Close() error { return nil }

type mockTable struct {
	mock *Mock
	rows []map[string]any
}

func matches(row map[string]any, filters []Filter) bool {
	for _, f := range filters {
		if fmt.Sprint(row[f.Column]) != fmt.Sprint(f.Value) {
			return false
		}
	}
	return true
}

func encode(row map[string]any) (json.RawMessage, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

func (t *mockTable) Select(_ context.Context, q Query) ([]json.RawMessage, error) {
	selected := make([]map[string]any, 0, len(t.rows))
	for _, row := range t.rows {
		if matches(row, q.Filters) {
			selected = append(selected, row)
		}
	}
	if q.OrderBy != "" {
		slices.SortStableFunc(selected, func(a, b map[string]any) int {
			c := cmp.Compare(fmt.Sprint(a[q.OrderBy]), fmt.Sprint(b[q.OrderBy]))
			if q.Desc {
				return -c
			}
			return c
		})
	}

	out := make([]json.RawMessage, 0, len(selected))
	for _, row := range selected {
		raw, err := encode(row)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

func (t *mockTable) Insert(_ context.Context, values map[string]any) (json.RawMessage, error) {
	row := maps.Clone(values)
	now := t.mock.now().UTC().Format(time.RFC3339Nano)
	if _, ok := row["created_at"]; !ok {
		row["created_at"] = now
	}
	if _, ok := row["updated_at"]; !ok {
		row["updated_at"] = now
	}
	return encode(row)
}

func (t *mockTable) Update(_ context.Context, values map[string]any, filters ...Filter) ([]json.RawMessage, error) {
	var out []json.RawMessage
	for _, row := range t.rows {
		if !matches(row, filters) {
			continue
		}
		merged := maps.Clone(row)
		maps.Copy(merged, values)
		raw, err := encode(merged)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

func (t *mockTable) Delete(_ context.Context, filters ...Filter) (int64, error) {
	var n int64
	for _, row := range t.rows {
		if matches(row, filters) {
			n++
		}
	}
	return n, nil
}

func mockData() map[string][]map[string]any {
	const seeded = "2024-01-01T00:00:00Z"
	user := func(id, name, email, role, department string) map[string]any {
		return map[string]any{
			"id":         id,
			"name":       name,
			"email":      email,
			"role":       role,
			"department": department,
			"created_at": seeded,
			"updated_at": seeded,
		}
	}

	return map[string][]map[string]any{
		"users": {
			user("1", "IQAC Admin", "iqac@university.edu", "iqac", "Administration"),
			user("2", "Prof. Johnson", "johnson@university.edu", "hod", "Computer Science"),
			user("3", "Dr. Smith", "smith@university.edu", "staff", "Computer Science"),
			user("4", "Dr. Brown", "brown@university.edu", "staff", "Mathematics"),
		},
		"tasks": {
			{
				"id":          "1",
				"title":       "Prepare Annual Report",
				"description": "Compile and prepare the annual quality assurance report",
				"assigned_to": "3",
				"created_by":  "1",
				"department":  "Computer Science",
				"due_date":    "2024-02-15",
				"priority":    "high",
				"status":      "in_progress",
				"created_at":  "2024-01-15T10:00:00Z",
				"updated_at":  "2024-01-15T10:00:00Z",
			},
			{
				"id":          "2",
				"title":       "Update Curriculum",
				"description": "Review and update the curriculum for the new academic year",
				"assigned_to": "2",
				"created_by":  "1",
				"department":  "Computer Science",
				"due_date":    "2024-03-01",
				"priority":    "medium",
				"status":      "pending",
				"created_at":  "2024-01-10T09:00:00Z",
				"updated_at":  "2024-01-10T09:00:00Z",
			},
		},
		"uploaded_files": {
			{
				"id":           "1",
				"task_id":      "1",
				"uploaded_by":  "3",
				"file_name":    "annual-report-draft.pdf",
				"file_size":    2048576,
				"file_type":    "application/pdf",
				"file_url":     MockURL,
				"upload_title": "Annual Report Draft",
				"description":  "First draft of the annual report",
				"category":     "Assessment Reports",
				"status":       "uploaded",
				"created_at":   "2024-01-15T14:30:00Z",
			},
		},
	}
}
