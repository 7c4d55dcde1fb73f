package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/iqac-smarttrack/apiserver/internal/store"
	"github.com/iqac-smarttrack/apiserver/types"
	"github.com/sirupsen/logrus"
)

const uploadPrefix = "uploads/"

// ObjectStore holds the bytes of uploaded files.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// UploadInput describes one uploaded file and its metadata.
type UploadInput struct {
	FileName    string
	FileSize    int64
	FileType    string
	Body        io.Reader
	TaskID      string
	UploadedBy  string
	Title       string
	Description string
	Category    string
}

// FileService encapsulates uploaded-file use-cases.
type FileService struct {
	files   FileRepository
	tasks   TaskRepository
	users   UserRepository
	objects ObjectStore
	events  EventPublisher
	logger  logrus.FieldLogger
	now     func() time.Time
	newID   func() (string, error)
}

// NewFileService constructs a FileService. Without objects, uploads are
// simulated: metadata is stored and the file URL is a placeholder image.
// objects and events may be nil.
func NewFileService(
	files FileRepository,
	tasks TaskRepository,
	users UserRepository,
	objects ObjectStore,
	events EventPublisher,
	logger logrus.FieldLogger,
) *FileService {
	return &FileService{
		files:   files,
		tasks:   tasks,
		users:   users,
		objects: objects,
		events:  events,
		logger:  logger,
		now:     time.Now,
		newID:   store.NewID,
	}
}

// ContentURL is the API path that streams a stored file.
func ContentURL(id string) string {
	return "/files/" + id + "/content"
}

func (s *FileService) joiner(ctx context.Context) (joiner, error) {
	j, err := loadUserJoiner(ctx, s.users)
	if err != nil {
		return joiner{}, err
	}
	tasks, err := s.tasks.ListTasks(ctx)
	if err != nil {
		return joiner{}, err
	}
	j.tasks = indexByID(tasks)
	return j, nil
}

// List returns the files matching filter with their task and uploader.
func (s *FileService) List(ctx context.Context, filter types.FileFilter) ([]types.FileView, error) {
	files, err := s.files.ListFiles(ctx, filter)
	if err != nil {
		return nil, err
	}
	j, err := s.joiner(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]types.FileView, len(files))
	for i, file := range files {
		views[i] = j.file(file)
	}
	return views, nil
}

func (s *FileService) Get(ctx context.Context, id string) (types.FileView, error) {
	file, err := s.files.GetFile(ctx, id)
	if err != nil {
		return types.FileView{}, err
	}
	j, err := s.joiner(ctx)
	if err != nil {
		return types.FileView{}, err
	}
	return j.file(file), nil
}

// Upload stores the bytes, when object storage is configured, and records
// the file.
func (s *FileService) Upload(ctx context.Context, in UploadInput) (types.FileView, error) {
	in.FileName = strings.TrimSpace(in.FileName)
	if in.FileName == "" {
		return types.FileView{}, invalid("file", "is required")
	}
	if in.FileSize < 0 {
		return types.FileView{}, invalid("file", "has a negative size")
	}

	id, err := s.newID()
	if err != nil {
		return types.FileView{}, fmt.Errorf("generate id: %w", err)
	}
	file := types.UploadedFile{
		ID:          id,
		TaskID:      in.TaskID,
		UploadedBy:  in.UploadedBy,
		FileName:    in.FileName,
		FileSize:    in.FileSize,
		FileType:    in.FileType,
		UploadTitle: strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Status:      types.FileStatusUploaded,
	}

	if s.objects != nil && in.Body != nil {
		key := uploadPrefix + id + strings.ToLower(path.Ext(in.FileName))
		if err := s.objects.Put(ctx, key, in.Body, in.FileSize, in.FileType); err != nil {
			return types.FileView{}, fmt.Errorf("store object: %w", err)
		}
		file.ObjectKey = key
		file.FileURL = ContentURL(id)
	} else {
		label := file.UploadTitle
		if label == "" {
			label = file.FileName
		}
		file.FileURL = store.PlaceholderURL(label)
	}

	created, err := s.files.CreateFile(ctx, file)
	if err != nil {
		if file.ObjectKey != "" {
			s.removeObject(ctx, file.ObjectKey)
		}
		return types.FileView{}, err
	}

	publishEvent(ctx, s.events, s.logger, s.now, types.Event{
		Type:    types.EventFileUploaded,
		FileID:  created.ID,
		TaskID:  created.TaskID,
		ActorID: created.UploadedBy,
		Title:   created.FileName,
	})
	j, err := s.joiner(ctx)
	if err != nil {
		return types.FileView{}, err
	}
	return j.file(created), nil
}

// Open streams the stored bytes of the file with id. It returns
// ErrNoContent for simulated uploads.
func (s *FileService) Open(ctx context.Context, id string) (io.ReadCloser, types.UploadedFile, error) {
	file, err := s.files.GetFile(ctx, id)
	if err != nil {
		return nil, types.UploadedFile{}, err
	}
	if file.ObjectKey == "" || s.objects == nil {
		return nil, file, ErrNoContent
	}
	body, err := s.objects.Get(ctx, file.ObjectKey)
	if err != nil {
		return nil, file, fmt.Errorf("open object: %w", err)
	}
	return body, file, nil
}

// Delete removes the stored object and the record of the file with id.
// A failed object removal is logged; the record is removed regardless.
// Deleting a missing file succeeds.
func (s *FileService) Delete(ctx context.Context, id string, actorID string) error {
	file, err := s.files.GetFile(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	if file.ObjectKey != "" {
		s.removeObject(ctx, file.ObjectKey)
	}
	if err := s.files.DeleteFile(ctx, id); err != nil {
		return err
	}
	publishEvent(ctx, s.events, s.logger, s.now, types.Event{
		Type:    types.EventFileDeleted,
		FileID:  file.ID,
		TaskID:  file.TaskID,
		ActorID: actorID,
		Title:   file.FileName,
	})
	return nil
}

func (s *FileService) removeObject(ctx context.Context, key string) {
	if s.objects == nil {
		return
	}
	if err := s.objects.Delete(ctx, key); err != nil {
		s.logger.WithError(err).WithField("object_key", key).Warn("failed to delete stored object")
	}
}
