// Package cache persists front-end output so unchanged headers are not parsed
// again. There is one SQLite file per interface file; each row is keyed by the
// header path, the digest of the header's contents and the digest of the tail
// aggregate that was compiled with it.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"

	"github.com/teranos/cxxbind/errors"
)

// FileSuffix is appended to the interface file name to form its cache file
const FileSuffix = ".cache.db"

// Key identifies one front-end run
type Key struct {
	Header       string
	HeaderDigest string
	TailDigest   string
}

// Store is the cache for a single interface file
type Store struct {
	db     *sql.DB
	path   string
	format string
	compat *semver.Constraints
	logger *zap.SugaredLogger
}

// FileFor returns the cache file used for an interface inside dir:
// <base>.<hash of the absolute path>.cache.db, so interfaces sharing a file
// name in different directories get separate files
func FileFor(dir, iface string) string {
	path := filepath.Clean(iface)
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	sum := sha256.Sum256([]byte(filepath.ToSlash(path)))
	return filepath.Join(dir, filepath.Base(iface)+"."+hex.EncodeToString(sum[:4])+FileSuffix)
}

// Digest returns the hex SHA-256 of data
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// OpenStore opens (creating if needed) the cache file at path.
// format is the declaration format version written with every entry.
func OpenStore(path, format string, logger *zap.SugaredLogger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "create cache directory for %s", path)
	}
	db, err := OpenWithMigrations(path, logger)
	if err != nil {
		return nil, err
	}
	s, err := NewStore(db, path, format, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewStore wraps an already migrated database
func NewStore(db *sql.DB, path, format string, logger *zap.SugaredLogger) (*Store, error) {
	v, err := semver.NewVersion(format)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid declaration format %q", format)
	}
	// Patch releases stay compatible, minor releases do not
	compat, err := semver.NewConstraint(fmt.Sprintf("~%d.%d", v.Major(), v.Minor()))
	if err != nil {
		return nil, errors.Wrap(err, "build format constraint")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Store{db: db, path: path, format: v.String(), compat: compat, logger: logger}, nil
}

// Path returns the cache file location
func (s *Store) Path() string { return s.path }

// Get returns the front-end XML stored for key. A missing or incompatible
// entry yields an error matching errors.ErrNotFound.
func (s *Store) Get(ctx context.Context, key Key) ([]byte, error) {
	var format string
	var xml []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT decl_format, xml FROM parse_cache WHERE header = ? AND header_digest = ? AND tail_digest = ?`,
		key.Header, key.HeaderDigest, key.TailDigest,
	).Scan(&format, &xml)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrNotFound, "no cache entry for %s", key.Header)
	}
	if err != nil {
		return nil, wrapClosed(errors.Wrapf(err, "read cache entry for %s", key.Header))
	}

	v, err := semver.NewVersion(format)
	if err != nil || !s.compat.Check(v) {
		s.logger.Debugw("Ignoring stale cache entry",
			"header", key.Header,
			"entry_format", format,
			"current_format", s.format)
		return nil, errors.Wrapf(errors.ErrNotFound, "cache entry for %s has format %s", key.Header, format)
	}
	return xml, nil
}

// Put stores the front-end XML for key, replacing any previous entry
func (s *Store) Put(ctx context.Context, key Key, xml []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO parse_cache (header, header_digest, tail_digest, decl_format, xml) VALUES (?, ?, ?, ?, ?)`,
		key.Header, key.HeaderDigest, key.TailDigest, s.format, xml,
	)
	if err != nil {
		return wrapClosed(errors.Wrapf(err, "write cache entry for %s", key.Header))
	}
	return nil
}

// Prune removes entries for header other than the given key
func (s *Store) Prune(ctx context.Context, key Key) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM parse_cache WHERE header = ? AND NOT (header_digest = ? AND tail_digest = ?)`,
		key.Header, key.HeaderDigest, key.TailDigest,
	)
	if err != nil {
		return 0, wrapClosed(errors.Wrapf(err, "prune cache entries for %s", key.Header))
	}
	return res.RowsAffected()
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}
