// Package installer keeps installed plugins in a SQLite database. Installing
// downloads the plugin manifest and stores it compressed.
package installer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/schollz/progressbar/v3"
	_ "modernc.org/sqlite"

	"github.com/jmgilman/shelf/internal/registry"
	"github.com/jmgilman/shelf/internal/slogger"
)

// ManifestFile is fetched relative to an identity on install.
const ManifestFile = "manifest.json"

const (
	statusPending   = "pending"
	statusInstalled = "installed"

	maxManifestSize = 8 << 20
)

const schema = `
CREATE TABLE IF NOT EXISTS installed (
    identity     TEXT PRIMARY KEY,
    manifest     BLOB,
    size         INTEGER NOT NULL DEFAULT 0,
    installed_at TEXT NOT NULL,
    status       TEXT NOT NULL DEFAULT 'installed'
);
`

// Sentinel errors for installer operations.
var (
	ErrNotInstalled     = errors.New("not installed")
	ErrAlreadyInstalled = errors.New("already installed")
)

// Record describes one installed plugin.
type Record struct {
	Identity    string
	Size        int64
	InstalledAt time.Time
}

// Store is a SQLite-backed installer. It satisfies install.Installer.
type Store struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string

	doer      registry.Doer
	userAgent string
	progress  io.Writer
	now       func() time.Time

	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Option configures a Store.
type Option func(*Store)

// WithDoer sets the HTTP client used to download manifests.
func WithDoer(doer registry.Doer) Option {
	return func(s *Store) {
		s.doer = doer
	}
}

// WithUserAgent sets the User-Agent header for manifest downloads.
func WithUserAgent(ua string) Option {
	return func(s *Store) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithProgress renders a download progress bar to w.
func WithProgress(w io.Writer) Option {
	return func(s *Store) {
		s.progress = w
	}
}

// WithClock overrides the time source for installed_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open opens or creates the database at path. Rows left pending by an
// interrupted install are removed.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create installer directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	s := &Store{
		db:        db,
		path:      path,
		doer:      &http.Client{Timeout: registry.DefaultTimeout},
		userAgent: registry.DefaultUserAgent,
		now:       time.Now,
		enc:       enc,
		dec:       dec,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.recover(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("recover: %w", err)
	}

	return s, nil
}

func (s *Store) recover(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, "SELECT identity FROM installed WHERE status = ?", statusPending)
	if err != nil {
		return err
	}
	var pending []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		pending = append(pending, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, id := range pending {
		slogger.L(ctx).Warn("recovering from interrupted install", "identity", id)
		if _, err := s.db.ExecContext(ctx, "DELETE FROM installed WHERE identity = ?", id); err != nil {
			return fmt.Errorf("delete pending %s: %w", id, err)
		}
	}
	return nil
}

// Path returns the database path.
func (s *Store) Path() string {
	return s.path
}

// Close releases the database and codecs.
func (s *Store) Close() error {
	s.dec.Close()
	err := s.enc.Close()
	if dbErr := s.db.Close(); dbErr != nil {
		return dbErr
	}
	return err
}

// Install downloads the manifest for identity and records it. The row is
// pending while the download runs and removed again if anything fails.
func (s *Store) Install(ctx context.Context, identity string) error {
	if s.IsInstalled(identity) {
		return fmt.Errorf("%w: %s", ErrAlreadyInstalled, identity)
	}

	if err := s.begin(ctx, identity); err != nil {
		return fmt.Errorf("mark pending: %w", err)
	}

	manifest, err := s.download(ctx, identity)
	if err != nil {
		s.abort(identity)
		return err
	}

	blob := s.enc.EncodeAll(manifest, nil)

	s.mu.Lock()
	_, err = s.db.ExecContext(ctx,
		"UPDATE installed SET manifest = ?, size = ?, installed_at = ?, status = ? WHERE identity = ?",
		blob, len(manifest), s.now().UTC().Format(time.RFC3339), statusInstalled, identity)
	s.mu.Unlock()
	if err != nil {
		s.abort(identity)
		return fmt.Errorf("mark installed: %w", err)
	}

	slogger.L(ctx).Debug("plugin installed", "identity", identity, "size", len(manifest), "stored", len(blob))
	return nil
}

func (s *Store) begin(ctx context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO installed (identity, installed_at, status) VALUES (?, ?, ?)",
		identity, s.now().UTC().Format(time.RFC3339), statusPending)
	return err
}

func (s *Store) abort(identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	//nolint:errcheck // best-effort cleanup, recover removes leftovers on next open
	s.db.Exec("DELETE FROM installed WHERE identity = ? AND status = ?", identity, statusPending)
}

func (s *Store) download(ctx context.Context, identity string) ([]byte, error) {
	url := registry.NormalizeIdentity(identity) + ManifestFile

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.doer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, registry.NewHTTPError(url, resp)
	}

	var body io.Reader = resp.Body
	if s.progress != nil {
		bar := progressbar.NewOptions64(resp.ContentLength,
			progressbar.OptionSetWriter(s.progress),
			progressbar.OptionSetDescription("Downloading "+ManifestFile),
			progressbar.OptionShowBytes(true),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Finish() //nolint:errcheck // progress output only
		r := progressbar.NewReader(body, bar)
		body = &r
	}

	data, err := registry.ReadLimited(body, maxManifestSize)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return data, nil
}

// Uninstall removes identity.
func (s *Store) Uninstall(ctx context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM installed WHERE identity = ? AND status = ?", identity, statusInstalled)
	if err != nil {
		return fmt.Errorf("delete %s: %w", identity, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: %w", identity, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotInstalled, identity)
	}
	return nil
}

// IsInstalled reports whether identity has a completed install.
func (s *Store) IsInstalled(identity string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var one int
	err := s.db.QueryRow(
		"SELECT 1 FROM installed WHERE identity = ? AND status = ?", identity, statusInstalled).Scan(&one)
	return err == nil
}

// Installed lists installed identities in identity order.
func (s *Store) Installed() []string {
	records, err := s.List(context.Background())
	if err != nil {
		return nil
	}
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.Identity)
	}
	return ids
}

// List returns every completed install in identity order.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT identity, size, installed_at FROM installed WHERE status = ? ORDER BY identity", statusInstalled)
	if err != nil {
		return nil, fmt.Errorf("list installed: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r           Record
			installedAt string
		)
		if err := rows.Scan(&r.Identity, &r.Size, &installedAt); err != nil {
			return nil, fmt.Errorf("scan installed: %w", err)
		}
		r.InstalledAt, _ = time.Parse(time.RFC3339, installedAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Manifest returns the stored manifest of identity.
func (s *Store) Manifest(identity string) ([]byte, error) {
	s.mu.RLock()
	var blob []byte
	err := s.db.QueryRow(
		"SELECT manifest FROM installed WHERE identity = ? AND status = ?", identity, statusInstalled).Scan(&blob)
	s.mu.RUnlock()

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotInstalled, identity)
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	data, err := s.dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress manifest: %w", err)
	}
	return data, nil
}
