package clip

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harkveil/harkveil/internal/errors"
	"github.com/harkveil/harkveil/internal/logger"
)

// Store keeps uploaded clips on disk under their id so the operator can
// play them back after triage.
type Store struct {
	dir string
	log logger.Logger
}

// NewStore creates dir if needed and returns a Store rooted there.
func NewStore(dir string, log logger.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.New(err).
			Component("clip").
			Category(errors.CategoryFileIO).
			Context("operation", "create_scratch_dir").
			Build()
	}
	if log == nil {
		log = logger.Global().Module("clip")
	}
	return &Store{dir: dir, log: log}, nil
}

// Save writes the clip and returns a copy with Path set.
func (s *Store) Save(c AudioClip) (AudioClip, error) {
	path := filepath.Join(s.dir, c.FileName())
	if err := os.WriteFile(path, c.Data, 0o640); err != nil {
		return c, errors.New(err).
			Component("clip").
			Category(errors.CategoryFileIO).
			ClipContext(c.ID, c.OriginName).
			FileContext(path, int64(len(c.Data))).
			Build()
	}
	c.Path = path
	s.log.Debug("clip stored", logger.ClipID(c.ID), logger.Int("bytes", len(c.Data)))
	return c, nil
}

// Open locates a stored clip by id. Ids that are not 32 hex characters are
// rejected before touching the filesystem.
func (s *Store) Open(id string) (string, Format, error) {
	if !validID(id) {
		return "", "", errors.Newf("invalid clip id").
			Component("clip").
			Category(errors.CategoryValidation).
			Build()
	}

	for format := range allowedFormats {
		path := filepath.Join(s.dir, id+"."+string(format))
		if _, err := os.Stat(path); err == nil {
			return path, format, nil
		}
	}

	return "", "", errors.Newf("clip %s not found", id).
		Component("clip").
		Category(errors.CategoryNotFound).
		Build()
}

// Remove deletes a stored clip; a missing file is not an error.
func (s *Store) Remove(c AudioClip) error {
	if c.Path == "" {
		return nil
	}
	if err := os.Remove(c.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove clip %s: %w", c.ID, err)
	}
	return nil
}

// Dir returns the scratch directory.
func (s *Store) Dir() string {
	return s.dir
}

func validID(id string) bool {
	if len(id) != 32 || strings.ToLower(id) != id {
		return false
	}
	_, err := hex.DecodeString(id)
	return err == nil
}
