package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrBuildInProgress is returned when a second build is requested for a
// region whose workspace is still being written. Concurrent runs never
// interleave writes into one workspace
var ErrBuildInProgress = errors.New("a build is already in progress for this region")

// ErrNoWorkspace is returned when a region has no committed workspace yet
var ErrNoWorkspace = errors.New("no committed workspace for this region")

// Workspace is an isolated, namespaced working area holding one run's
// intermediate trail and graph data. It is exclusively owned by the run
// that created it until committed or aborted
type Workspace struct {
	ID        string
	Region    string
	Path      string
	DB        *sql.DB
	CreatedAt time.Time
}

// Close closes the workspace database handle
func (w *Workspace) Close() error {
	if w.DB != nil {
		return w.DB.Close()
	}
	return nil
}

// Manager owns the staging directory: it creates workspaces, enforces one
// in-flight build per region, and prunes old committed workspaces
type Manager struct {
	dataDir string
	keep    int // Committed workspaces retained per region

	mu       sync.Mutex
	inflight map[string]bool // region -> build in progress
}

// NewManager creates a workspace manager rooted at dataDir
func NewManager(dataDir string, keep int) (*Manager, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if keep < 1 {
		keep = 1
	}
	return &Manager{
		dataDir:  dataDir,
		keep:     keep,
		inflight: make(map[string]bool),
	}, nil
}

var regionSanitizer = regexp.MustCompile(`[^a-z0-9-]+`)

// sanitizeRegion normalizes a region name into a filename-safe key
func sanitizeRegion(region string) string {
	return regionSanitizer.ReplaceAllString(strings.ToLower(region), "-")
}

// Begin creates a fresh workspace for a region build. It fails with
// ErrBuildInProgress when the region already has an uncommitted build
func (m *Manager) Begin(region string) (*Workspace, error) {
	key := sanitizeRegion(region)

	m.mu.Lock()
	if m.inflight[key] {
		m.mu.Unlock()
		return nil, ErrBuildInProgress
	}
	m.inflight[key] = true
	m.mu.Unlock()

	// The nanosecond suffix keeps ids unique for builds landing within the
	// same second while preserving lexical-chronological ordering
	now := time.Now().UTC()
	id := fmt.Sprintf("%s_%s_%09d", key, now.Format("20060102T150405"), now.Nanosecond())
	path := filepath.Join(m.dataDir, id+".db")

	// Never adopt an existing file: the error paths below remove the
	// workspace file, which must only ever touch a file this run created
	if _, err := os.Stat(path); err == nil {
		m.release(key)
		return nil, fmt.Errorf("workspace %s already exists", id)
	}

	db, err := Open(path)
	if err != nil {
		m.release(key)
		return nil, err
	}
	if err := CreateWorkspaceSchema(db); err != nil {
		db.Close()
		os.Remove(path)
		m.release(key)
		return nil, err
	}

	if _, err := db.Exec(
		`INSERT INTO workspace_meta (key, value) VALUES ('region', ?), ('created_at', ?)`,
		region, now.Format(time.RFC3339),
	); err != nil {
		db.Close()
		os.Remove(path)
		m.release(key)
		return nil, fmt.Errorf("failed to write workspace meta: %w", err)
	}

	log.Printf("[Staging] created workspace %s", id)
	return &Workspace{ID: id, Region: region, Path: path, DB: db, CreatedAt: now}, nil
}

// Commit marks the workspace as the region's latest committed data, releases
// the build lock, and prunes older committed workspaces past the retention
// count
func (m *Manager) Commit(w *Workspace) error {
	_, err := w.DB.Exec(
		`INSERT OR REPLACE INTO workspace_meta (key, value) VALUES ('committed_at', ?)`,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to mark workspace committed: %w", err)
	}

	m.release(sanitizeRegion(w.Region))

	pruned, err := m.Prune(w.Region)
	if err != nil {
		log.Printf("[Staging] prune after commit failed: %v", err)
	} else if pruned > 0 {
		log.Printf("[Staging] pruned %d old workspace(s) for region %s", pruned, w.Region)
	}

	log.Printf("[Staging] committed workspace %s", w.ID)
	return nil
}

// Abort discards a failed build: the workspace file is removed and the
// region lock released. Partial results never survive
func (m *Manager) Abort(w *Workspace) {
	w.Close()
	if err := os.Remove(w.Path); err != nil && !os.IsNotExist(err) {
		log.Printf("[Staging] failed to remove aborted workspace %s: %v", w.ID, err)
	}
	os.Remove(w.Path + "-wal")
	os.Remove(w.Path + "-shm")
	m.release(sanitizeRegion(w.Region))
	log.Printf("[Staging] aborted workspace %s", w.ID)
}

func (m *Manager) release(key string) {
	m.mu.Lock()
	delete(m.inflight, key)
	m.mu.Unlock()
}

// Latest opens the most recent committed workspace for a region. The caller
// owns the returned handle and must Close it
func (m *Manager) Latest(region string) (*Workspace, error) {
	ids, err := m.committedIDs(region)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrNoWorkspace
	}

	id := ids[len(ids)-1]
	path := filepath.Join(m.dataDir, id+".db")
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return &Workspace{ID: id, Region: region, Path: path, DB: db}, nil
}

// Prune removes committed workspaces beyond the retention count, oldest
// first, and returns how many were deleted
func (m *Manager) Prune(region string) (int, error) {
	ids, err := m.committedIDs(region)
	if err != nil {
		return 0, err
	}
	if len(ids) <= m.keep {
		return 0, nil
	}

	pruned := 0
	for _, id := range ids[:len(ids)-m.keep] {
		if err := m.Drop(id); err != nil {
			return pruned, err
		}
		pruned++
	}
	return pruned, nil
}

// Drop deletes a workspace database by id
func (m *Manager) Drop(id string) error {
	path := filepath.Join(m.dataDir, id+".db")
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("workspace %s not found", id)
		}
		return fmt.Errorf("failed to remove workspace %s: %w", id, err)
	}
	os.Remove(path + "-wal")
	os.Remove(path + "-shm")
	log.Printf("[Staging] dropped workspace %s", id)
	return nil
}

// committedIDs lists committed workspace ids for a region, oldest first.
// The id format sorts chronologically
func (m *Manager) committedIDs(region string) ([]string, error) {
	key := sanitizeRegion(region)

	entries, err := os.ReadDir(m.dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, key+"_") || !strings.HasSuffix(name, ".db") {
			continue
		}
		id := strings.TrimSuffix(name, ".db")

		committed, err := m.isCommitted(filepath.Join(m.dataDir, name))
		if err != nil {
			log.Printf("[Staging] skipping unreadable workspace %s: %v", id, err)
			continue
		}
		if committed {
			ids = append(ids, id)
		}
	}

	sort.Strings(ids)
	return ids, nil
}

func (m *Manager) isCommitted(path string) (bool, error) {
	db, err := Open(path)
	if err != nil {
		return false, err
	}
	defer db.Close()

	var value string
	err = db.QueryRow(`SELECT value FROM workspace_meta WHERE key = 'committed_at'`).Scan(&value)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return value != "", nil
}
