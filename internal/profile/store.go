package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

const fileGlob = "pipeline_profile_*.json"

// Info summarises one saved profile file for listings.
type Info struct {
	Path       string    `json:"profile_path"`
	ProfileID  string    `json:"profile_id"`
	Objective  string    `json:"objective"`
	MinSignals int       `json:"min_signals"`
	MaxSignals int       `json:"max_signals"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store persists profiles as timestamped JSON files under one directory.
type Store struct {
	dir    string
	logger zerolog.Logger
	now    func() time.Time
}

// NewStore constructs a profile store rooted at dir.
func NewStore(dir string, logger zerolog.Logger) *Store {
	return &Store{
		dir:    dir,
		logger: logger.With().Str("component", "profile_store").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Save validates the profile and writes it to a new file. The returned
// path is the profile's stable address for later runs.
func (s *Store) Save(p Profile) (string, error) {
	p.Normalize(s.now())
	if err := p.Validate(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create profiles dir: %w", err)
	}

	name := fmt.Sprintf("pipeline_profile_%s_%s.json", s.now().Format("20060102_150405"), p.ProfileID)
	path := filepath.Join(s.dir, name)

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal profile: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write profile: %w", err)
	}

	s.logger.Info().Str("path", path).Str("profile_id", p.ProfileID).Msg("profile saved")
	return path, nil
}

// Load reads and validates the profile at path.
func (s *Store) Load(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile: %w", err)
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("parse profile %s: %w", filepath.Base(path), err)
	}
	p.Normalize(s.now())
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// List returns saved profiles, newest first. Unreadable files are
// skipped with a warning rather than failing the listing.
func (s *Store) List() ([]Info, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, fileGlob))
	if err != nil {
		return nil, fmt.Errorf("glob profiles: %w", err)
	}

	infos := make([]Info, 0, len(matches))
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn().Err(err).Str("path", path).Msg("skipping unreadable profile")
			continue
		}
		var p Profile
		if err := json.Unmarshal(data, &p); err != nil {
			s.logger.Warn().Err(err).Str("path", path).Msg("skipping malformed profile")
			continue
		}
		created := p.CreatedAt
		if created.IsZero() {
			if st, statErr := os.Stat(path); statErr == nil {
				created = st.ModTime().UTC()
			}
		}
		infos = append(infos, Info{
			Path:       path,
			ProfileID:  p.ProfileID,
			Objective:  p.Objective,
			MinSignals: p.Target.MinSignals,
			MaxSignals: p.Target.MaxSignals,
			CreatedAt:  created,
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].CreatedAt.After(infos[j].CreatedAt) })
	return infos, nil
}

// Paths returns the file paths of all saved profiles, newest first.
func (s *Store) Paths() ([]string, error) {
	infos, err := s.List()
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(infos))
	for _, info := range infos {
		paths = append(paths, info.Path)
	}
	return paths, nil
}
