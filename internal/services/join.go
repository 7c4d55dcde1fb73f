package services

import (
	"context"

	"github.com/iqac-smarttrack/apiserver/types"
)

// indexByID maps every record to its id.
func indexByID[T interface{ RecordID() string }](items []T) map[string]T {
	index := make(map[string]T, len(items))
	for _, item := range items {
		index[item.RecordID()] = item
	}
	return index
}

// resolve looks id up in index. An empty id stays unset; an id that matches
// nothing is dangling.
func resolve[T any](id string, index map[string]T) types.Ref[T] {
	if id == "" {
		return types.Ref[T]{}
	}
	if value, ok := index[id]; ok {
		return types.Found(id, value)
	}
	return types.Dangling[T](id)
}

// joiner attaches related records to tasks and files.
type joiner struct {
	users map[string]types.User
	tasks map[string]types.Task
}

func loadUserJoiner(ctx context.Context, users UserRepository) (joiner, error) {
	all, err := users.ListUsers(ctx, "")
	if err != nil {
		return joiner{}, err
	}
	return joiner{users: indexByID(all)}, nil
}

func (j joiner) task(task types.Task) types.TaskView {
	return types.TaskView{
		Task:         task,
		AssignedUser: resolve(task.AssignedTo, j.users),
		CreatedUser:  resolve(task.CreatedBy, j.users),
	}
}

func (j joiner) file(file types.UploadedFile) types.FileView {
	return types.FileView{
		UploadedFile: file,
		Task:         resolve(file.TaskID, j.tasks),
		UploadedUser: resolve(file.UploadedBy, j.users),
	}
}
