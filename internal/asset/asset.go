// Package asset provides on-disk identity and storage for uploaded and
// derived video files. The Store owns the mapping from identity token to
// bytes on disk; no other component caches or duplicates it.
package asset

import "errors"

// Static errors for asset operations.
var (
	// ErrInvalidIdentity is returned when an identity token is empty or
	// would escape the role-scoped storage directory.
	ErrInvalidIdentity = errors.New("invalid asset identity")
	// ErrNotFound is returned when an asset does not exist for the given
	// identity and role.
	ErrNotFound = errors.New("asset not found")
)

// Role distinguishes uploaded source assets from transform outputs.
// Each role maps to its own flat directory under the store root.
type Role string

const (
	// RoleSource is the role for uploaded files.
	RoleSource Role = "uploads"
	// RoleDerived is the role for transform outputs.
	RoleDerived Role = "output"
)

// Asset describes a stored file. Assets are never mutated after creation;
// a transform always produces a fresh identity.
type Asset struct {
	// ID is the generated identity token including the file extension.
	ID string
	// Ext is the file extension including the leading dot, e.g. ".mp4".
	Ext string
	// Role is the storage role the asset was created under.
	Role Role
	// Size is the byte size of the stored file.
	Size int64
	// Path is the absolute location on disk.
	Path string
}
