package asset

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// copyChunkSize is the buffer size used when streaming uploads to disk.
// Uploads are written in bounded chunks so large videos are never buffered
// whole in memory.
const copyChunkSize = 1 << 20 // 1 MiB

// Store manages role-scoped asset directories under a fixed root.
// Identity tokens are always generated by the store or validated against
// its naming rules; raw client filenames are never used as identities.
type Store struct {
	root string
}

// NewStore creates a Store rooted at the given directory.
// If root is empty, a "videocrop" directory under os.TempDir() is used.
// Both role directories are created if they don't exist.
func NewStore(root string) (*Store, error) {
	if root == "" {
		root = filepath.Join(os.TempDir(), "videocrop")
	}

	for _, role := range []Role{RoleSource, RoleDerived} {
		if err := os.MkdirAll(filepath.Join(root, string(role)), 0750); err != nil {
			return nil, fmt.Errorf("create %s directory: %w", role, err)
		}
	}

	return &Store{root: root}, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// Dir returns the directory holding assets of the given role.
func (s *Store) Dir(role Role) string {
	return filepath.Join(s.root, string(role))
}

// NewIdentity generates a fresh collision-resistant identity token.
// The token is a random 128-bit UUID carrying the original file extension,
// with an optional human-readable prefix for debuggability.
func (s *Store) NewIdentity(prefix, ext string) string {
	return prefix + uuid.NewString() + ext
}

// Path resolves an identity and role to an on-disk location.
// It rejects tokens that are not a single clean path element, so an
// identity taken from a request can never traverse outside the role
// directory.
func (s *Store) Path(id string, role Role) (string, error) {
	if !validIdentity(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentity, id)
	}
	return filepath.Join(s.Dir(role), id), nil
}

// validIdentity reports whether id is safe to join under a role directory.
func validIdentity(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	if strings.ContainsAny(id, `/\`) {
		return false
	}
	return filepath.Base(filepath.Clean(id)) == id
}

// Exists reports whether an asset is present for the identity and role.
func (s *Store) Exists(id string, role Role) bool {
	path, err := s.Path(id, role)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Stat returns the descriptor of an existing asset.
func (s *Store) Stat(id string, role Role) (Asset, error) {
	path, err := s.Path(id, role)
	if err != nil {
		return Asset{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Asset{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return Asset{}, fmt.Errorf("stat asset: %w", err)
	}
	return Asset{
		ID:   id,
		Ext:  strings.ToLower(filepath.Ext(id)),
		Role: role,
		Size: info.Size(),
		Path: path,
	}, nil
}

// Create streams data into a new asset file and returns the byte count.
// The write happens in bounded chunks. On failure the partial file is
// removed best-effort and never left behind as a valid asset.
func (s *Store) Create(ctx context.Context, id string, role Role, data io.Reader) (int64, error) {
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	path, err := s.Path(id, role)
	if err != nil {
		return 0, err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0640) // #nosec G304 - path is store-resolved
	if err != nil {
		return 0, fmt.Errorf("create asset file: %w", err)
	}

	buf := make([]byte, copyChunkSize)
	n, err := io.CopyBuffer(f, data, buf)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return 0, fmt.Errorf("write asset file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return 0, fmt.Errorf("close asset file: %w", err)
	}

	return n, nil
}

// Open returns a reader over an existing asset.
// The caller is responsible for closing the returned ReadCloser.
func (s *Store) Open(id string, role Role) (io.ReadCloser, error) {
	path, err := s.Path(id, role)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path) // #nosec G304 - path is store-resolved
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("open asset: %w", err)
	}
	return f, nil
}

// Remove deletes an asset. Removing an absent asset returns ErrNotFound.
func (s *Store) Remove(id string, role Role) error {
	path, err := s.Path(id, role)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("remove asset: %w", err)
	}
	return nil
}

// SweepOlderThan removes all assets of a role whose modification time is
// before cutoff. It continues past per-file errors, returning the number
// of removed assets and the first error encountered.
func (s *Store) SweepOlderThan(ctx context.Context, role Role, cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(s.Dir(role))
	if err != nil {
		return 0, fmt.Errorf("read %s directory: %w", role, err)
	}

	removed := 0
	var firstErr error
	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return removed, fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
		}

		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("stat %s: %w", entry.Name(), err)
			}
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.Dir(role), entry.Name())); err != nil && !os.IsNotExist(err) {
			if firstErr == nil {
				firstErr = fmt.Errorf("remove %s: %w", entry.Name(), err)
			}
			continue
		}
		removed++
	}
	return removed, firstErr
}
