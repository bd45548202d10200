// Package memory is an in-process metadata store for tests and local development.
//
// Transactions are serialized: ExecTx holds a store-wide lock for the duration of fn and
// restores a snapshot if fn fails, which gives the same all-or-nothing outcome the
// PostgreSQL store gets from a real transaction.
package memory

import (
	"context"
	"sync"

	"folio/internal/domain/models/drive"
)

type txMarker struct{}

// Store holds all metadata rows
type Store struct {
	txMu sync.Mutex // serializes transactions
	mu   sync.RWMutex

	folders map[string]drive.Folder
	files   map[string]drive.File
	owners  map[string]drive.Owner
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		folders: make(map[string]drive.Folder),
		files:   make(map[string]drive.File),
		owners:  make(map[string]drive.Owner),
	}
}

type snapshot struct {
	folders map[string]drive.Folder
	files   map[string]drive.File
	owners  map[string]drive.Owner
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		folders: make(map[string]drive.Folder, len(s.folders)),
		files:   make(map[string]drive.File, len(s.files)),
		owners:  make(map[string]drive.Owner, len(s.owners)),
	}
	for id, f := range s.folders {
		snap.folders[id] = cloneFolder(f)
	}
	for id, f := range s.files {
		snap.files[id] = cloneFile(f)
	}
	for id, o := range s.owners {
		snap.owners[id] = o
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.folders = snap.folders
	s.files = snap.files
	s.owners = snap.owners
}

// lockWrite takes the write lock. Outside a transaction it also waits for any
// running transaction so a rollback cannot discard the write.
func (s *Store) lockWrite(ctx context.Context) func() {
	if inTx(ctx) {
		s.mu.Lock()
		return s.mu.Unlock
	}
	s.txMu.Lock()
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		s.txMu.Unlock()
	}
}

func inTx(ctx context.Context) bool {
	marked, _ := ctx.Value(txMarker{}).(bool)
	return marked
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func clonePermissions(p drive.Permissions) drive.Permissions {
	out := drive.Permissions{IsPublic: p.IsPublic}
	if p.AllowedUsers != nil {
		out.AllowedUsers = make([]drive.Grant, len(p.AllowedUsers))
		copy(out.AllowedUsers, p.AllowedUsers)
	}
	if p.ShareLink != nil {
		link := *p.ShareLink
		if link.ExpiresAt != nil {
			exp := *link.ExpiresAt
			link.ExpiresAt = &exp
		}
		out.ShareLink = &link
	}
	return out
}

func cloneID(id *string) *string {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func cloneFolder(f drive.Folder) drive.Folder {
	out := f
	out.ParentID = cloneID(f.ParentID)
	out.Tags = cloneStrings(f.Tags)
	out.Permissions = clonePermissions(f.Permissions)
	if f.LastAccessedAt != nil {
		t := *f.LastAccessedAt
		out.LastAccessedAt = &t
	}
	return out
}

func cloneFile(f drive.File) drive.File {
	out := f
	out.FolderID = cloneID(f.FolderID)
	out.Tags = cloneStrings(f.Tags)
	out.Permissions = clonePermissions(f.Permissions)
	if f.PreviousVersions != nil {
		out.PreviousVersions = make([]drive.FileVersion, len(f.PreviousVersions))
		copy(out.PreviousVersions, f.PreviousVersions)
	}
	return out
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
