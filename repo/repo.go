package repo

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/quantgale/premia/types"
)

// ═══════════════════════════════════════════════════════════════════════════════
// STRATEGY REPOSITORY - One JSON file per strategy
// ═══════════════════════════════════════════════════════════════════════════════
//
// Live strategies are {id}.json under the strategy directory. Closing a
// strategy renames the file to {id}.json_closed so the trade record
// survives while startup loading skips it.
//
// Persistence failures never stop the engine: Save and Delete log and
// return the error, the caller decides whether it is fatal.
//
// ═══════════════════════════════════════════════════════════════════════════════

const (
	liveSuffix   = ".json"
	closedSuffix = ".json_closed"
)

// Repo persists strategies as JSON files.
type Repo struct {
	dir string
}

// New opens (and creates if needed) the repository directory.
func New(dataDir, strategyDir string) (*Repo, error) {
	dir := filepath.Join(dataDir, strategyDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create strategy dir: %w", err)
	}
	return &Repo{dir: dir}, nil
}

// Dir returns the repository directory.
func (r *Repo) Dir() string { return r.dir }

// Save writes the strategy to its file, replacing any previous version.
func (r *Repo) Save(s *types.Strategy) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode strategy %s: %w", s.ID(), err)
	}
	path := r.path(s.ID(), liveSuffix)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Error().Err(err).Str("strategy", s.ID()).Msg("❌ Strategy save failed")
		return err
	}
	return nil
}

// Load reads one live strategy by id.
func (r *Repo) Load(id string) (*types.Strategy, error) {
	data, err := os.ReadFile(r.path(id, liveSuffix))
	if err != nil {
		return nil, err
	}
	var s types.Strategy
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode strategy %s: %w", id, err)
	}
	return &s, nil
}

// Delete retires a strategy: its file is renamed aside, not removed.
func (r *Repo) Delete(id string) error {
	err := os.Rename(r.path(id, liveSuffix), r.path(id, closedSuffix))
	if err != nil {
		log.Error().Err(err).Str("strategy", id).Msg("❌ Strategy retire failed")
	}
	return err
}

// AllItems loads every live strategy. Files that fail to decode are logged
// and skipped.
func (r *Repo) AllItems() ([]*types.Strategy, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, err
	}
	var out []*types.Strategy
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, liveSuffix) {
			continue
		}
		id := strings.TrimSuffix(name, liveSuffix)
		s, err := r.Load(id)
		if err != nil {
			log.Warn().Err(err).Str("file", name).Msg("⚠️ Skipping unreadable strategy file")
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *Repo) path(id, suffix string) string {
	return filepath.Join(r.dir, id+suffix)
}
