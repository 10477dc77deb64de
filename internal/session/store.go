package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/kapu/society-cms-go/internal/constants"
	"github.com/kapu/society-cms-go/pkg/errors"
)

// TokenStore persists the admin bearer token between runs.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Delete(ctx context.Context) error
}

type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func NewMemoryTokenStore(token string) *MemoryTokenStore {
	return &MemoryTokenStore{token: token}
}

func (m *MemoryTokenStore) Load(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryTokenStore) Save(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryTokenStore) Delete(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

// FileTokenStore keeps a small key/value JSON document on disk, the same
// shape a browser's local storage would hold for this app.
type FileTokenStore struct {
	path string
	mu   sync.Mutex
}

func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

func (f *FileTokenStore) Load(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return "", err
	}
	return values[constants.SessionConfig.TokenKey], nil
}

func (f *FileTokenStore) Save(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return err
	}
	values[constants.SessionConfig.TokenKey] = token
	return f.write(values)
}

func (f *FileTokenStore) Delete(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := values[constants.SessionConfig.TokenKey]; !ok {
		return nil
	}
	delete(values, constants.SessionConfig.TokenKey)
	return f.write(values)
}

func (f *FileTokenStore) read() (map[string]string, error) {
	values := map[string]string{}
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return values, nil
	}
	if err != nil {
		return nil, errors.NewStorageError("read session file failed", "read", f.path, err)
	}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, errors.NewStorageError("session file is corrupt", "read", f.path, err)
	}
	return values, nil
}

func (f *FileTokenStore) write(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return errors.NewStorageError("create session directory failed", "write", f.path, err)
	}
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return errors.NewStorageError("marshal session failed", "write", f.path, err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return errors.NewStorageError("write session file failed", "write", f.path, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return errors.NewStorageError("replace session file failed", "write", f.path, err)
	}
	return nil
}
