package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/cxxbind/errors"
)

func openTestStore(t *testing.T, format string) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "nested", "shapes.yaml"+FileSuffix), format, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen(t *testing.T) {
	t.Run("enables WAL and busy timeout", func(t *testing.T) {
		db, err := Open(filepath.Join(t.TempDir(), "test.db"), nil)
		require.NoError(t, err)
		defer db.Close()

		var journalMode string
		require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
		assert.Equal(t, "wal", journalMode)

		var busyTimeout int
		require.NoError(t, db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
		assert.Equal(t, SQLiteBusyTimeoutMS, busyTimeout)
	})

	t.Run("errors carry stack traces", func(t *testing.T) {
		tmpDir := t.TempDir()
		dbPath := filepath.Join(tmpDir, "test.db")
		first, err := Open(dbPath, nil)
		require.NoError(t, err)
		first.Close()

		require.NoError(t, os.Chmod(tmpDir, 0o555))
		defer os.Chmod(tmpDir, 0o755)
		if os.Geteuid() == 0 {
			t.Skip("root ignores directory permissions")
		}

		db, err := OpenWithMigrations(dbPath, nil)
		require.Error(t, err)
		assert.Nil(t, db)
		assert.Contains(t, fmt.Sprintf("%+v", err), "connection.go")
	})
}

func TestMigrate(t *testing.T) {
	t.Run("creates the cache table", func(t *testing.T) {
		db, err := OpenWithMigrations(filepath.Join(t.TempDir(), "test.db"), nil)
		require.NoError(t, err)
		defer db.Close()

		var count int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='parse_cache'").Scan(&count))
		assert.Equal(t, 1, count)

		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
		assert.Equal(t, 2, count)
	})

	t.Run("is idempotent", func(t *testing.T) {
		db, err := Open(filepath.Join(t.TempDir(), "test.db"), nil)
		require.NoError(t, err)
		defer db.Close()

		require.NoError(t, Migrate(db, nil))
		require.NoError(t, Migrate(db, nil), "running migrations twice should be safe")
	})

	t.Run("fails on a closed database", func(t *testing.T) {
		db, err := Open(filepath.Join(t.TempDir(), "test.db"), nil)
		require.NoError(t, err)
		db.Close()
		assert.Error(t, Migrate(db, nil))
	})
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, "1.3.0")
	key := Key{Header: "include/shape.h", HeaderDigest: Digest([]byte("class Shape {};")), TailDigest: Digest(nil)}

	_, err := s.Get(ctx, key)
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))

	require.NoError(t, s.Put(ctx, key, []byte("<GCC_XML/>")))
	xml, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "<GCC_XML/>", string(xml))

	// Replacing keeps a single row
	require.NoError(t, s.Put(ctx, key, []byte("<CastXML/>")))
	xml, err = s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "<CastXML/>", string(xml))

	changedTail := key
	changedTail.TailDigest = Digest([]byte("typedef Box<int> Box_int;"))
	_, err = s.Get(ctx, changedTail)
	assert.True(t, errors.IsNotFoundError(err), "a different tail is a different entry")
}

func TestStoreFormatCompatibility(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "a.yaml"+FileSuffix)
	key := Key{Header: "a.h", HeaderDigest: "h", TailDigest: "t"}

	old, err := OpenStore(path, "1.3.0", nil)
	require.NoError(t, err)
	require.NoError(t, old.Put(ctx, key, []byte("<x/>")))
	require.NoError(t, old.Close())

	tests := []struct {
		format string
		hit    bool
	}{
		{"1.3.0", true},
		{"1.3.7", true},
		{"1.4.0", false},
		{"2.3.0", false},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			s, err := OpenStore(path, tt.format, nil)
			require.NoError(t, err)
			defer s.Close()

			_, err = s.Get(ctx, key)
			if tt.hit {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.IsNotFoundError(err))
			}
		})
	}
}

func TestStorePrune(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, "1.3.0")
	current := Key{Header: "a.h", HeaderDigest: "new", TailDigest: "t"}
	require.NoError(t, s.Put(ctx, Key{Header: "a.h", HeaderDigest: "old", TailDigest: "t"}, []byte("1")))
	require.NoError(t, s.Put(ctx, Key{Header: "b.h", HeaderDigest: "old", TailDigest: "t"}, []byte("2")))
	require.NoError(t, s.Put(ctx, current, []byte("3")))

	n, err := s.Prune(ctx, current)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.Get(ctx, Key{Header: "b.h", HeaderDigest: "old", TailDigest: "t"})
	assert.NoError(t, err, "other headers are untouched")
}

func TestNewStoreRejectsBadFormat(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = NewStore(db, "x", "not-a-version", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not-a-version")
}

func TestStoreDriverFailures(t *testing.T) {
	ctx := context.Background()
	key := Key{Header: "a.h", HeaderDigest: "h", TailDigest: "t"}

	t.Run("read error is wrapped", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		s, err := NewStore(db, "mock", "1.3.0", nil)
		require.NoError(t, err)

		mock.ExpectQuery("SELECT decl_format, xml FROM parse_cache").
			WithArgs("a.h", "h", "t").
			WillReturnError(fmt.Errorf("disk I/O error"))

		_, err = s.Get(ctx, key)
		require.Error(t, err)
		assert.False(t, errors.IsNotFoundError(err))
		assert.Contains(t, err.Error(), "read cache entry for a.h")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unparseable stored format is a miss", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		s, err := NewStore(db, "mock", "1.3.0", nil)
		require.NoError(t, err)

		mock.ExpectQuery("SELECT decl_format, xml FROM parse_cache").
			WillReturnRows(sqlmock.NewRows([]string{"decl_format", "xml"}).AddRow("garbage", []byte("<x/>")))

		_, err = s.Get(ctx, key)
		assert.True(t, errors.IsNotFoundError(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("closed database is marked", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		s, err := NewStore(db, "mock", "1.3.0", nil)
		require.NoError(t, err)

		mock.ExpectExec("INSERT OR REPLACE INTO parse_cache").
			WithArgs("a.h", "h", "t", "1.3.0", []byte("<x/>")).
			WillReturnError(sql.ErrConnDone)
		err = s.Put(ctx, key, []byte("<x/>"))
		require.Error(t, err)
		assert.False(t, IsStoreClosed(err))

		mock.ExpectExec("INSERT OR REPLACE INTO parse_cache").
			WillReturnError(fmt.Errorf("sql: database is closed"))
		err = s.Put(ctx, key, []byte("<x/>"))
		require.Error(t, err)
		assert.True(t, IsStoreClosed(err))
		assert.True(t, errors.Is(err, ErrStoreClosed))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFileFor(t *testing.T) {
	path := FileFor("cache", filepath.Join("interfaces", "shapes.yaml"))
	assert.Equal(t, "cache", filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "shapes.yaml."))
	assert.True(t, strings.HasSuffix(path, FileSuffix))
	assert.Equal(t, path, FileFor("cache", filepath.Join("interfaces", ".", "shapes.yaml")), "cleaned paths agree")

	abs, err := filepath.Abs(filepath.Join("interfaces", "shapes.yaml"))
	require.NoError(t, err)
	assert.Equal(t, path, FileFor("cache", abs), "relative and absolute spellings agree")

	assert.NotEqual(t, FileFor("cache", filepath.Join("a", "shapes.yaml")), FileFor("cache", filepath.Join("b", "shapes.yaml")))
}

func TestDigest(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Digest(nil))
}
