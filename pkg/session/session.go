package session

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v2"

	"Food-Rescue-Hub/domain"
)

var ErrNoSession = errors.New("no saved session")

type (
	Profile struct {
		ID     string `yaml:"id"`
		Name   string `yaml:"name"`
		Email  string `yaml:"email"`
		Role   string `yaml:"role"`
		Avatar string `yaml:"avatar"`
	}

	// Session is the signed-in state of a client: the bearer token and the
	// profile it was issued for.
	Session struct {
		Token   string    `yaml:"token"`
		User    Profile   `yaml:"user"`
		SavedAt time.Time `yaml:"saved_at"`
	}

	// Store persists a single session. Load returns ErrNoSession when nothing
	// has been saved or the session was cleared.
	Store interface {
		Load() (*Session, error)
		Save(s *Session) error
		Clear() error
	}

	fileStore struct {
		path string
		mu   sync.Mutex
	}

	memoryStore struct {
		mu      sync.Mutex
		current *Session
	}
)

func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}

func (s *Session) IsDonor() bool {
	return s != nil && s.User.Role == domain.RoleDonor
}

// NewFileStore keeps the session as YAML at path, readable only by the owner.
func NewFileStore(path string) Store {
	return &fileStore{path: path}
}

// DefaultPath is ~/.food-rescue-hub/session.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".food-rescue-hub", "session.yaml"), nil
}

func (f *fileStore) Load() (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}

	var s Session
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if !s.Authenticated() {
		return nil, ErrNoSession
	}
	return &s, nil
}

func (f *fileStore) Save(s *Session) error {
	if !s.Authenticated() {
		return errors.New("refusing to save a session without a token")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

func (f *fileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func NewMemoryStore() Store {
	return &memoryStore{}
}

func (m *memoryStore) Load() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, ErrNoSession
	}
	copied := *m.current
	return &copied, nil
}

func (m *memoryStore) Save(s *Session) error {
	if !s.Authenticated() {
		return errors.New("refusing to save a session without a token")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *s
	m.current = &copied
	return nil
}

func (m *memoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
	return nil
}
