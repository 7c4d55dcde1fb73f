package store

import (
	"context"

	"github.com/iqac-smarttrack/apiserver/types"
)

// ListFiles returns the files matching filter, most recent first.
func (s *Store) ListFiles(ctx context.Context, filter types.FileFilter) ([]types.UploadedFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.readyFiles(ctx); err != nil {
		return nil, err
	}
	files := make([]types.UploadedFile, 0, len(s.files.items))
	for _, file := range s.files.items {
		if filter.Match(file) {
			files = append(files, file)
		}
	}
	return files, nil
}

func (s *Store) GetFile(ctx context.Context, id string) (types.UploadedFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.readyFiles(ctx); err != nil {
		return types.UploadedFile{}, err
	}
	file, ok := s.files.get(id)
	if !ok {
		return types.UploadedFile{}, ErrNotFound
	}
	return file, nil
}

// CreateFile records an uploaded file. A preset id is kept so the object
// key chosen by the caller stays tied to the record; otherwise a new id is
// assigned.
func (s *Store) CreateFile(ctx context.Context, file types.UploadedFile) (types.UploadedFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.readyFiles(ctx); err != nil {
		return types.UploadedFile{}, err
	}
	if file.ID == "" {
		id, err := s.nextID()
		if err != nil {
			return types.UploadedFile{}, err
		}
		file.ID = id
	} else if _, exists := s.files.get(file.ID); exists {
		return types.UploadedFile{}, ErrDuplicateID
	}
	file.CreatedAt = s.stamp(file.CreatedAt)
	if file.Status == "" {
		file.Status = types.FileStatusUploaded
	}

	if err := s.files.commit(ctx, s.backend, s.files.prepended(file)); err != nil {
		return types.UploadedFile{}, err
	}
	return file, nil
}

// DeleteFile removes the file record with id. Removing a missing record
// succeeds.
func (s *Store) DeleteFile(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.readyFiles(ctx); err != nil {
		return err
	}
	if _, ok := s.files.get(id); !ok {
		return nil
	}
	return s.files.commit(ctx, s.backend, s.files.without(id))
}
