package types

import "time"

// UploadedFile represents evidence or documentation uploaded against a task.
type UploadedFile struct {
	// ID is the unique identifier of the file record.
	ID string `json:"id" db:"id"`

	// TaskID links the file to a task, if any. It is not validated.
	TaskID string `json:"task_id,omitempty" db:"task_id"`

	// UploadedBy is the id of the user who uploaded the file.
	UploadedBy string `json:"uploaded_by,omitempty" db:"uploaded_by"`

	// FileName is the original name of the uploaded file.
	FileName string `json:"file_name" db:"file_name"`

	// FileSize is the size of the file in bytes.
	FileSize int64 `json:"file_size" db:"file_size"`

	// FileType is the MIME type reported for the file.
	FileType string `json:"file_type" db:"file_type"`

	// FileURL is where the file can be fetched. It is a placeholder image
	// URL when no object storage backend holds the bytes.
	FileURL string `json:"file_url" db:"file_url"`

	// UploadTitle is an optional human-readable title for the upload.
	UploadTitle string `json:"upload_title,omitempty" db:"upload_title"`

	// Description is optional free text describing the upload.
	Description string `json:"description,omitempty" db:"description"`

	// Category is a free-text grouping such as "Assessment Reports".
	Category string `json:"category,omitempty" db:"category"`

	// Status is the upload state of the file.
	Status FileStatus `json:"status" db:"status"`

	// ObjectKey is the object storage key of the stored bytes.
	// It is empty for simulated uploads.
	ObjectKey string `json:"object_key,omitempty" db:"object_key"`

	// CreatedAt is the timestamp at which the file was uploaded.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// RecordID returns the file's identifier.
func (f UploadedFile) RecordID() string { return f.ID }

// FileStatus describes the upload lifecycle of a file.
type FileStatus string

const (
	FileStatusUploading FileStatus = "uploading"
	FileStatusUploaded  FileStatus = "uploaded"
	FileStatusError     FileStatus = "error"
)

// FileView is an uploaded file with its task and uploader resolved.
type FileView struct {
	UploadedFile

	// Task is the task named by TaskID, when it exists.
	Task Ref[Task] `json:"task,omitzero"`

	// UploadedUser is the user named by UploadedBy, when it exists.
	UploadedUser Ref[User] `json:"uploaded_user,omitzero"`
}

// FileFilter narrows a file listing by foreign key. Empty fields match all.
type FileFilter struct {
	TaskID     string
	UploadedBy string
}

// Match reports whether f satisfies the filter.
func (q FileFilter) Match(f UploadedFile) bool {
	if q.TaskID != "" && f.TaskID != q.TaskID {
		return false
	}
	if q.UploadedBy != "" && f.UploadedBy != q.UploadedBy {
		return false
	}
	return true
}
