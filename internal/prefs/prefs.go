// Package prefs persists small durable user preferences, currently the
// last-selected space identifier, as prefs.yaml in the config directory.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/satchel/pkg/types"
)

const (
	prefsFileName = "prefs"
	prefsFileType = "yaml"
	prefsFileExt  = "prefs.yaml"

	keyLastSpaceID = "last_space_id"
)

// Compile-time interface check.
var _ types.Preferences = (*Store)(nil)

// Store is a file-backed preferences store. A missing prefs.yaml is not an
// error; it is created on first write.
type Store struct {
	path string
	v    *viper.Viper
}

// Open reads (or prepares) the preferences file under configDir.
func Open(configDir string) (*Store, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigName(prefsFileName)
	v.SetConfigType(prefsFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read prefs: %w", err)
		}
	}

	return &Store{
		path: filepath.Join(configDir, prefsFileExt),
		v:    v,
	}, nil
}

// LastSelectedSpaceID returns the stored selection, or "" when unset.
func (s *Store) LastSelectedSpaceID() (string, error) {
	return s.v.GetString(keyLastSpaceID), nil
}

// SetLastSelectedSpaceID stores the selection durably.
func (s *Store) SetLastSelectedSpaceID(id string) error {
	s.v.Set(keyLastSpaceID, id)
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

// ClearLastSelectedSpaceID removes the stored selection.
func (s *Store) ClearLastSelectedSpaceID() error {
	return s.SetLastSelectedSpaceID("")
}
