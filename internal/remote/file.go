package remote

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/taskflow/internal/domain"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
	"github.com/mrz1836/taskflow/internal/flock"
)

const (
	fileSchemaVersion = 1
	fileLockTimeout   = 5 * time.Second
	dirPerm           = 0o750
	filePerm          = 0o600
)

// fileDocument is the on-disk layout of the file backend.
type fileDocument struct {
	Version int                 `yaml:"version"`
	Users   map[string]*records `yaml:"users"`
}

// File stores every user's records in one YAML file. Writes are
// read-modify-write under a lock file and replace the file atomically,
// so concurrent processes and crashes never leave a partial file.
type File struct {
	path   string
	logger zerolog.Logger
	mu     sync.Mutex
}

// NewFile returns a File backend for path. The file is created on first write.
func NewFile(path string, logger zerolog.Logger) *File {
	return &File{path: path, logger: logger}
}

// Path returns the data file location.
func (f *File) Path() string {
	return f.path
}

// Fetch implements contracts.Remote.
func (f *File) Fetch(ctx context.Context, userID string) (*domain.Snapshot, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := f.read()
	if err != nil {
		return nil, err
	}
	return doc.Users[userID].snapshot(), nil
}

// UpsertTask implements contracts.Remote.
func (f *File) UpsertTask(ctx context.Context, userID string, task domain.Task) error {
	return f.update(ctx, userID, func(r *records) { r.Tasks[task.ID] = task.Clone() })
}

// DeleteTask implements contracts.Remote.
func (f *File) DeleteTask(ctx context.Context, userID, taskID string) error {
	return f.update(ctx, userID, func(r *records) { delete(r.Tasks, taskID) })
}

// UpsertList implements contracts.Remote.
func (f *File) UpsertList(ctx context.Context, userID string, list domain.List) error {
	return f.update(ctx, userID, func(r *records) { r.Lists[list.ID] = list })
}

// DeleteList implements contracts.Remote.
func (f *File) DeleteList(ctx context.Context, userID, listID string) error {
	return f.update(ctx, userID, func(r *records) { delete(r.Lists, listID) })
}

// UpsertWorkspace implements contracts.Remote.
func (f *File) UpsertWorkspace(ctx context.Context, userID string, ws domain.Workspace) error {
	return f.update(ctx, userID, func(r *records) { r.Workspaces[ws.ID] = ws })
}

// DeleteWorkspace implements contracts.Remote.
func (f *File) DeleteWorkspace(ctx context.Context, userID, workspaceID string) error {
	return f.update(ctx, userID, func(r *records) { delete(r.Workspaces, workspaceID) })
}

// Close implements io.Closer.
func (f *File) Close() error { return nil }

func (f *File) update(ctx context.Context, userID string, fn func(r *records)) error {
	if err := requireUser(userID); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	lock, err := flock.Acquire(ctx, f.path+".lock", fileLockTimeout)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			f.logger.Warn().Err(err).Str("path", f.path).Msg("failed to release data file lock")
		}
	}()

	doc, err := f.read()
	if err != nil {
		return err
	}

	r, ok := doc.Users[userID]
	if !ok {
		r = newRecords()
		doc.Users[userID] = r
	}
	fn(r)

	data, err := yaml.Marshal(doc)
	if err != nil {
		return tferrors.Wrap(err, "encode data file")
	}
	return atomicWrite(f.path, data)
}

// read loads the document. A missing file is an empty document.
func (f *File) read() (*fileDocument, error) {
	doc := &fileDocument{Version: fileSchemaVersion, Users: make(map[string]*records)}

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, tferrors.Wrap(err, "read data file")
	}

	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, tferrors.Wrapf(tferrors.ErrRemoteCorrupted, "%s: %v", f.path, err)
	}
	if doc.Users == nil {
		doc.Users = make(map[string]*records)
	}
	for _, r := range doc.Users {
		if r == nil {
			continue
		}
		if r.Tasks == nil {
			r.Tasks = make(map[string]domain.Task)
		}
		if r.Lists == nil {
			r.Lists = make(map[string]domain.List)
		}
		if r.Workspaces == nil {
			r.Workspaces = make(map[string]domain.Workspace)
		}
	}
	return doc, nil
}

// atomicWrite writes data next to path and renames it into place.
func atomicWrite(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return tferrors.Wrap(err, "create data directory")
	}

	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm) //nolint:gosec // Path comes from config
	if err != nil {
		return tferrors.Wrap(err, "create temp file")
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return tferrors.Wrap(err, "write temp file")
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return tferrors.Wrap(err, "sync temp file")
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return tferrors.Wrap(err, "close temp file")
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return tferrors.Wrap(err, "rename data file")
	}
	return nil
}
