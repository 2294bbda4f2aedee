package tournament

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Error types for storage operations
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNoNames         = errors.New("no names found in input")
	ErrCorruptSession  = errors.New("session file is corrupt")
)

// sessionSnapshot is the JSON shape of a persisted session
type sessionSnapshot struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Status    SessionStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Config    Config        `json:"config"`
	Items     []string      `json:"items"`
	Entries   []Entry       `json:"entries"`
	Matches   []Match       `json:"matches"`
	Final     []string      `json:"final,omitempty"`
}

// Save writes the session to path as JSON. The write is atomic: a temporary
// file in the target directory is renamed into place, so a crash mid-write
// never leaves a truncated session behind.
func (s *Session) Save(path string) error {
	s.mu.RLock()
	snap := sessionSnapshot{
		ID:        s.ID,
		Name:      s.Name,
		Status:    s.Status,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		Config:    s.config,
		Items:     append([]string(nil), s.items...),
		Matches:   append([]Match(nil), s.matches...),
		Final:     append([]string(nil), s.final...),
	}
	snap.Entries = make([]Entry, 0, len(s.items))
	for _, item := range s.items {
		snap.Entries = append(snap.Entries, *s.entries[item])
	}
	s.mu.RUnlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := atomicWriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to save session to %s: %w", path, err)
	}
	return nil
}

// LoadSessionFile reconstructs a session from a JSON file. Entry stats are
// rebuilt by replaying the match history rather than trusted from disk, and
// the sorter is reseeded so a resumed run fast-forwards to the first
// unjudged pair.
func LoadSessionFile(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, path)
		}
		return nil, fmt.Errorf("failed to read session file %s: %w", path, err)
	}

	var snap sessionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptSession, path, err)
	}
	if len(snap.Items) < 2 {
		return nil, fmt.Errorf("%w: %s: fewer than two items", ErrCorruptSession, path)
	}

	snap.Config = mergeWithDefaults(snap.Config)

	session, err := NewSession(snap.Name, snap.Items, snap.Config)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptSession, path, err)
	}

	session.mu.Lock()
	session.ID = snap.ID
	session.Status = snap.Status
	session.CreatedAt = snap.CreatedAt
	session.UpdatedAt = snap.UpdatedAt
	session.matches = snap.Matches

	for _, entry := range snap.Entries {
		if existing, ok := session.entries[entry.Name]; ok {
			existing.CreatedAt = entry.CreatedAt
		}
	}

	if err := session.replayLocked(); err != nil {
		session.mu.Unlock()
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptSession, path, err)
	}

	// replayLocked resets status; restore the persisted lifecycle state
	session.Status = snap.Status
	session.UpdatedAt = snap.UpdatedAt
	if snap.Status == StatusComplete && len(snap.Final) == len(snap.Items) {
		session.final = snap.Final
	}
	session.mu.Unlock()

	return session, nil
}

// atomicWriteFile writes data to a temporary file in the target directory
// and renames it into place
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".namerank-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// SanitizeFilename makes an identifier safe to use as a file name
func SanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
	)
	sanitized := replacer.Replace(strings.TrimSpace(name))
	if sanitized == "" {
		sanitized = "session"
	}
	return sanitized
}

// SessionInfo summarizes a stored session for listings
type SessionInfo struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Status    SessionStatus `json:"status"`
	Items     int           `json:"items"`
	Matches   int           `json:"matches"`
	CreatedAt time.Time     `json:"created"`
	UpdatedAt time.Time     `json:"updated"`
	Path      string        `json:"path"`
}

// FileStore manages session files under a single directory
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore creates a store rooted at dir
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// SessionPath returns the file path a session ID maps to
func (f *FileStore) SessionPath(id string) string {
	return filepath.Join(f.dir, SanitizeFilename(id)+".json")
}

// SaveSession persists a session under its ID and returns the path written
func (f *FileStore) SaveSession(session *Session) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := f.SessionPath(session.ID)
	if err := session.Save(path); err != nil {
		return "", err
	}
	return path, nil
}

// LoadSession loads a session by ID
func (f *FileStore) LoadSession(id string) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return LoadSessionFile(f.SessionPath(id))
}

// ListSessions summarizes every session file in the store, newest first.
// Unreadable files are skipped.
func (f *FileStore) ListSessions() ([]SessionInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	paths, err := filepath.Glob(filepath.Join(f.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	infos := make([]SessionInfo, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var snap sessionSnapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			continue
		}
		infos = append(infos, SessionInfo{
			ID:        snap.ID,
			Name:      snap.Name,
			Status:    snap.Status,
			Items:     len(snap.Items),
			Matches:   len(snap.Matches),
			CreatedAt: snap.CreatedAt,
			UpdatedAt: snap.UpdatedAt,
			Path:      path,
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].UpdatedAt.After(infos[j].UpdatedAt)
	})
	return infos, nil
}

// LoadNames reads candidate names from a file. CSV files (by extension) use
// the "name" column when a header is present, otherwise the first column;
// anything else is treated as plain text with one name per line and
// #-prefixed comment lines.
func LoadNames(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	var names []string
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		names, err = parseNamesCSV(file)
	} else {
		names, err = parseNamesText(file)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoNames, path)
	}
	return names, nil
}

// parseNamesText reads one name per line, skipping blanks and comments
func parseNamesText(r io.Reader) ([]string, error) {
	var names []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

// parseNamesCSV reads names from a CSV file, tolerating ragged rows and
// stray quotes the way spreadsheet exports tend to produce them
func parseNamesCSV(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	column := 0
	start := 0
	for i, header := range records[0] {
		if strings.EqualFold(strings.TrimSpace(header), "name") {
			column = i
			start = 1
			break
		}
	}

	var names []string
	for _, record := range records[start:] {
		if column >= len(record) {
			continue
		}
		name := strings.TrimSpace(record[column])
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}
