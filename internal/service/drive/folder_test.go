package drive

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"folio/internal/config"
	"folio/internal/domain"
	"folio/internal/domain/models/drive"
	driveSvc "folio/internal/domain/services/drive"
	blobmem "folio/internal/objectstore/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func conflictReason(t *testing.T, err error) domain.ConflictReason {
	t.Helper()
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	return conflict.Reason
}

func TestCreateFolderPlacement(t *testing.T) {
	h := newHarness(t)

	a := h.mkdir("alice", nil, "A")
	b := h.mkdir("alice", &a.ID, "B")
	c := h.mkdir("alice", &b.ID, "C")

	assert.Equal(t, "", a.ParentPath)
	assert.Equal(t, 0, a.Level)
	assert.Equal(t, "A", a.Path)

	assert.Equal(t, "A", b.ParentPath)
	assert.Equal(t, 1, b.Level)
	assert.Equal(t, "A/B/C", c.Path)
	assert.Equal(t, 2, c.Level)

	assert.Equal(t, 1, h.folder(a.ID).SubfolderCount)
	assert.Equal(t, 1, h.folder(b.ID).SubfolderCount)
}

func TestCreateFolderValidation(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		req  driveSvc.CreateFolderRequest
	}{
		{"empty name", driveSvc.CreateFolderRequest{Name: "  "}},
		{"slash", driveSvc.CreateFolderRequest{Name: "a/b"}},
		{"dot", driveSvc.CreateFolderRequest{Name: "."}},
		{"dot dot", driveSvc.CreateFolderRequest{Name: ".."}},
		{"too long", driveSvc.CreateFolderRequest{Name: string(make([]rune, config.MaxNodeNameLength+1))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.folders.CreateFolder(h.ctx, "alice", &tt.req)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	_, err := h.folders.CreateFolder(h.ctx, "alice", &driveSvc.CreateFolderRequest{Name: "Parent", ParentID: ptr("missing")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateFolderNormalizesInput(t *testing.T) {
	h := newHarness(t)

	folder, err := h.folders.CreateFolder(h.ctx, "alice", &driveSvc.CreateFolderRequest{
		Name:         "  Projects  ",
		NodeMetadata: driveSvc.NodeMetadata{Tags: []string{"work", " work", "", "home"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Projects", folder.Name)
	assert.Equal(t, []string{"work", "home"}, folder.Tags)
}

func TestSiblingNamesAreUnique(t *testing.T) {
	h := newHarness(t)

	a := h.mkdir("alice", nil, "A")
	h.upload("alice", &a.ID, "notes", "x")

	_, err := h.folders.CreateFolder(h.ctx, "alice", &driveSvc.CreateFolderRequest{Name: "A"})
	assert.Equal(t, domain.ConflictDuplicateName, conflictReason(t, err))

	_, err = h.folders.CreateFolder(h.ctx, "alice", &driveSvc.CreateFolderRequest{ParentID: &a.ID, Name: "notes"})
	assert.Equal(t, domain.ConflictDuplicateName, conflictReason(t, err), "files and folders share one namespace")

	// Root namespaces are per owner
	h.mkdir("bob", nil, "A")
}

func TestCreateFolderDepthLimit(t *testing.T) {
	h := newHarness(t)

	var parent *string
	var last *drive.Folder
	for level := 0; level <= config.MaxFolderDepth; level++ {
		last = h.mkdir("alice", parent, fmt.Sprintf("L%d", level))
		parent = &last.ID
	}
	assert.Equal(t, config.MaxFolderDepth, last.Level)

	_, err := h.folders.CreateFolder(h.ctx, "alice", &driveSvc.CreateFolderRequest{ParentID: parent, Name: "too-deep"})
	assert.Equal(t, domain.ConflictDepthExceeded, conflictReason(t, err))
}

func TestRenameCascadesToDescendants(t *testing.T) {
	h := newHarness(t)

	a := h.mkdir("alice", nil, "A")
	b := h.mkdir("alice", &a.ID, "B")
	c := h.mkdir("alice", &b.ID, "C")
	f := h.upload("alice", &c.ID, "doc.txt", "hello")
	// Shares a string prefix with A but is not inside it
	ab := h.mkdir("alice", nil, "AB")
	abChild := h.mkdir("alice", &ab.ID, "kid")

	renamed, err := h.folders.UpdateFolder(h.ctx, "alice", a.ID, &driveSvc.UpdateFolderRequest{Name: ptr("A2")})
	require.NoError(t, err)
	assert.Equal(t, "A2", renamed.Path)

	assert.Equal(t, "A2", h.folder(b.ID).ParentPath)
	assert.Equal(t, "A2/B", h.folder(c.ID).ParentPath)
	assert.Equal(t, "A2/B/C", h.file(f.ID).ParentPath)
	assert.Equal(t, "A2/B/C/doc.txt", h.file(f.ID).Path)
	assert.Equal(t, 2, h.folder(c.ID).Level)

	assert.Equal(t, "AB", h.folder(abChild.ID).ParentPath)
}

func TestRenameRejectsDuplicate(t *testing.T) {
	h := newHarness(t)

	a := h.mkdir("alice", nil, "A")
	h.mkdir("alice", nil, "B")

	_, err := h.folders.UpdateFolder(h.ctx, "alice", a.ID, &driveSvc.UpdateFolderRequest{Name: ptr("B")})
	assert.Equal(t, domain.ConflictDuplicateName, conflictReason(t, err))
	assert.Equal(t, "A", h.folder(a.ID).Name)

	_, err = h.folders.UpdateFolder(h.ctx, "alice", a.ID, &driveSvc.UpdateFolderRequest{Name: ptr("A")})
	assert.NoError(t, err, "renaming to the current name is allowed")
}

func TestMoveFolderToRoot(t *testing.T) {
	h := newHarness(t)

	a := h.mkdir("alice", nil, "A")
	b := h.mkdir("alice", &a.ID, "B")
	c := h.mkdir("alice", &b.ID, "C")
	require.Equal(t, 1, h.folder(a.ID).SubfolderCount)

	moved, err := h.folders.MoveFolder(h.ctx, "alice", b.ID, nil)
	require.NoError(t, err)

	assert.Nil(t, moved.ParentID)
	assert.Equal(t, "", moved.ParentPath)
	assert.Equal(t, 0, moved.Level)
	assert.Equal(t, "B", h.folder(c.ID).ParentPath)
	assert.Equal(t, 1, h.folder(c.ID).Level)
	assert.Equal(t, 0, h.folder(a.ID).SubfolderCount)
}

func TestMoveFolderBetweenParents(t *testing.T) {
	h := newHarness(t)

	a := h.mkdir("alice", nil, "A")
	x := h.mkdir("alice", nil, "X")
	y := h.mkdir("alice", &x.ID, "Y")
	b := h.mkdir("alice", &a.ID, "B")
	f := h.upload("alice", &b.ID, "f.txt", "abc")

	_, err := h.folders.UpdateFolder(h.ctx, "alice", b.ID, &driveSvc.UpdateFolderRequest{
		Parent: driveSvc.OptionalParent{Present: true, Value: &y.ID},
	})
	require.NoError(t, err)

	assert.Equal(t, "X/Y", h.folder(b.ID).ParentPath)
	assert.Equal(t, 2, h.folder(b.ID).Level)
	assert.Equal(t, "X/Y/B", h.file(f.ID).ParentPath)
	assert.Equal(t, 0, h.folder(a.ID).SubfolderCount)
	assert.Equal(t, 1, h.folder(y.ID).SubfolderCount)
}

func TestMoveIntoOwnSubtreeFails(t *testing.T) {
	h := newHarness(t)

	a := h.mkdir("alice", nil, "A")
	b := h.mkdir("alice", &a.ID, "B")
	c := h.mkdir("alice", &b.ID, "C")

	tests := []struct {
		name string
		dest string
	}{
		{"self", a.ID},
		{"child", b.ID},
		{"grandchild", c.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.folders.MoveFolder(h.ctx, "alice", a.ID, &tt.dest)
			assert.Equal(t, domain.ConflictCircularMove, conflictReason(t, err))

			assert.Nil(t, h.folder(a.ID).ParentID)
			assert.Equal(t, "A", h.folder(b.ID).ParentPath)
			assert.Equal(t, "A/B", h.folder(c.ID).ParentPath)
			assert.Equal(t, 2, h.folder(c.ID).Level)
		})
	}
}

func TestRenameAndMoveInOneUpdate(t *testing.T) {
	h := newHarness(t)

	a := h.mkdir("alice", nil, "A")
	child := h.mkdir("alice", &a.ID, "child")
	b := h.mkdir("alice", nil, "B")
	c := h.mkdir("alice", &b.ID, "C")

	updated, err := h.folders.UpdateFolder(h.ctx, "alice", a.ID, &driveSvc.UpdateFolderRequest{
		Name:   ptr("B"),
		Parent: driveSvc.OptionalParent{Present: true, Value: &c.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "B/C/B", updated.Path)
	assert.Equal(t, 2, updated.Level)
	assert.Equal(t, "B/C/B", h.folder(child.ID).ParentPath)
	assert.Equal(t, 3, h.folder(child.ID).Level)
}

func TestMoveIntoOtherOwnersFolderWithSamePath(t *testing.T) {
	h := newHarness(t)

	yDocs := h.mkdir("yara", nil, "Docs")
	ySub := h.mkdir("yara", &yDocs.ID, "sub")
	h.grant("yara", ySub.ID, "xavier", drive.PermissionWrite)
	xDocs := h.mkdir("xavier", nil, "Docs")

	moved, err := h.folders.MoveFolder(h.ctx, "xavier", xDocs.ID, &ySub.ID)
	require.NoError(t, err)
	assert.Equal(t, "Docs/sub", moved.ParentPath)
	assert.Equal(t, "xavier", moved.OwnerID)
	assert.Equal(t, 1, h.folder(ySub.ID).SubfolderCount)
}

func TestMoveRejectsDepthOverflow(t *testing.T) {
	h := newHarness(t)

	var parent *string
	for level := 0; level < config.MaxFolderDepth; level++ {
		f := h.mkdir("alice", parent, fmt.Sprintf("L%d", level))
		parent = &f.ID
	}
	p0 := h.mkdir("alice", nil, "P0")
	h.mkdir("alice", &p0.ID, "P1")

	_, err := h.folders.MoveFolder(h.ctx, "alice", p0.ID, parent)
	assert.Equal(t, domain.ConflictDepthExceeded, conflictReason(t, err))
	assert.Equal(t, 0, h.folder(p0.ID).Level)
}

func TestDeleteFolderWithoutForce(t *testing.T) {
	h := newHarness(t)

	a := h.mkdir("alice", nil, "A")
	b := h.mkdir("alice", &a.ID, "B")

	_, err := h.folders.DeleteFolder(h.ctx, "alice", a.ID, false)
	assert.Equal(t, domain.ConflictNotEmpty, conflictReason(t, err))

	result, err := h.folders.DeleteFolder(h.ctx, "alice", b.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.FoldersDeleted)
	assert.Equal(t, 0, h.folder(a.ID).SubfolderCount)
}

func TestForceDeleteRemovesSubtree(t *testing.T) {
	h := newHarness(t)

	root := h.mkdir("alice", nil, "root")
	a := h.mkdir("alice", &root.ID, "A")
	b := h.mkdir("alice", &a.ID, "B")
	content := string(make([]byte, 1024))
	f := h.upload("alice", &b.ID, "F", content)
	keep := h.upload("alice", &root.ID, "keep", "x")
	usedBefore := h.used("alice")

	result, err := h.folders.DeleteFolder(h.ctx, "alice", a.ID, true)
	require.NoError(t, err)

	assert.Equal(t, 2, result.FoldersDeleted)
	assert.Equal(t, 1, result.FilesDeleted)
	assert.Equal(t, int64(1024), result.FreedBytes)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, usedBefore-1024, h.used("alice"))

	_, err = h.folderRepo.GetByID(h.ctx, b.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = h.fileRepo.GetByID(h.ctx, f.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, h.blobs.Has(f.BlobRef))
	assert.True(t, h.blobs.Has(keep.BlobRef))

	stats := h.folder(root.ID).Stats()
	assert.Equal(t, drive.Statistics{FileCount: 1, TotalSize: 1, SubfolderCount: 0}, stats)

	// Nothing that survives lies inside the deleted path
	queue := []string{root.ID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		children, err := h.folderRepo.ListChildren(h.ctx, id)
		require.NoError(t, err)
		for _, survivor := range children {
			assert.False(t, drive.IsWithin(drive.FolderPath(&survivor), "root/A"), survivor.ID)
			queue = append(queue, survivor.ID)
		}
		files, err := h.fileRepo.ListByFolder(h.ctx, id)
		require.NoError(t, err)
		for _, survivor := range files {
			assert.False(t, drive.IsWithin(survivor.ParentPath, "root/A"), survivor.ID)
		}
	}
}

func TestForceDeleteReportsBlobFailures(t *testing.T) {
	h := newHarness(t)

	a := h.mkdir("alice", nil, "A")
	bad := h.upload("alice", &a.ID, "bad", "12345")
	good := h.upload("alice", &a.ID, "good", "123")

	h.blobs.SetFault(func(op blobmem.Op, ref string) error {
		if op == blobmem.OpDelete && ref == bad.BlobRef {
			return errors.New("backend unavailable")
		}
		return nil
	})

	result, err := h.folders.DeleteFolder(h.ctx, "alice", a.ID, true)
	require.NoError(t, err, "blob failures never fail the delete")
	assert.Len(t, result.Warnings, 1)
	assert.Equal(t, int64(0), h.used("alice"))

	_, err = h.folderRepo.GetByID(h.ctx, a.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.True(t, h.blobs.Has(bad.BlobRef))
	assert.False(t, h.blobs.Has(good.BlobRef))
}

func TestFolderAccessControl(t *testing.T) {
	h := newHarness(t)

	shared := h.mkdir("alice", nil, "shared")
	private := h.mkdir("alice", nil, "private")

	_, err := h.folders.GetFolder(h.ctx, "bob", private.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = h.folders.CreateFolder(h.ctx, "bob", &driveSvc.CreateFolderRequest{ParentID: &shared.ID, Name: "x"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	h.grant("alice", shared.ID, "bob", drive.PermissionWrite)

	child := h.mkdir("bob", &shared.ID, "from-bob")
	assert.Equal(t, "bob", child.OwnerID)
	assert.Equal(t, "shared", child.ParentPath)

	// write does not allow permission edits
	public := true
	_, err = h.folders.UpdateFolder(h.ctx, "bob", shared.ID, &driveSvc.UpdateFolderRequest{IsPublic: &public})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.False(t, h.folder(shared.ID).Permissions.IsPublic)

	// public folders are readable by anyone
	_, err = h.folders.UpdateFolder(h.ctx, "alice", private.ID, &driveSvc.UpdateFolderRequest{IsPublic: &public})
	require.NoError(t, err)
	contents, err := h.folders.GetFolder(h.ctx, "carol", private.ID)
	require.NoError(t, err)
	assert.NotNil(t, contents.Folder.LastAccessedAt)

	_, err = h.folders.DeleteFolder(h.ctx, "carol", private.ID, true)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUpdateFolderRejectsInvalidGrants(t *testing.T) {
	h := newHarness(t)
	a := h.mkdir("alice", nil, "A")

	tests := []struct {
		name   string
		grants []drive.Grant
	}{
		{"unknown permission", []drive.Grant{{UserID: "bob", Permission: "owner"}}},
		{"missing user", []drive.Grant{{Permission: drive.PermissionRead}}},
		{"duplicate user", []drive.Grant{{UserID: "bob", Permission: drive.PermissionRead}, {UserID: "bob", Permission: drive.PermissionWrite}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.folders.UpdateFolder(h.ctx, "alice", a.ID, &driveSvc.UpdateFolderRequest{AllowedUsers: &tt.grants})
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	_, err := h.folders.UpdateFolder(h.ctx, "alice", a.ID, &driveSvc.UpdateFolderRequest{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateFolderMetadata(t *testing.T) {
	h := newHarness(t)
	a := h.mkdir("alice", nil, "A")
	h.clock = h.clock.Add(time.Hour)

	tags := []string{"red", "red", "blue"}
	updated, err := h.folders.UpdateFolder(h.ctx, "alice", a.ID, &driveSvc.UpdateFolderRequest{
		Description: ptr("quarterly"),
		Color:       ptr("#ff0000"),
		Icon:        ptr("star"),
		Tags:        &tags,
	})
	require.NoError(t, err)
	assert.Equal(t, "quarterly", updated.Description)
	assert.Equal(t, "#ff0000", updated.Color)
	assert.Equal(t, "star", updated.Icon)
	assert.Equal(t, []string{"red", "blue"}, updated.Tags)
	assert.True(t, h.clock.Equal(updated.LastModified))
}

func TestListFolders(t *testing.T) {
	h := newHarness(t)

	parent := h.mkdir("alice", nil, "parent")
	for _, name := range []string{"delta", "alpha", "charlie", "bravo", "Echo"} {
		h.mkdir("alice", &parent.ID, name)
	}
	h.mkdir("bob", nil, "bobs")

	page, err := h.folders.ListFolders(h.ctx, "alice", &drive.ListOptions{ParentID: &parent.ID, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.True(t, page.HasMore)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Echo", page.Items[0].Name)
	assert.Equal(t, "alpha", page.Items[1].Name)

	page, err = h.folders.ListFolders(h.ctx, "alice", &drive.ListOptions{ParentID: &parent.ID, Page: 3, Limit: 2, SortOrder: drive.SortDesc})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.False(t, page.HasMore)
	assert.Equal(t, "Echo", page.Items[0].Name)

	page, err = h.folders.ListFolders(h.ctx, "alice", &drive.ListOptions{ParentID: &parent.ID, Search: "HAR"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "charlie", page.Items[0].Name)

	roots, err := h.folders.ListFolders(h.ctx, "alice", &drive.ListOptions{})
	require.NoError(t, err)
	require.Len(t, roots.Items, 1, "root listings only show the caller's folders")
	assert.Equal(t, "parent", roots.Items[0].Name)

	_, err = h.folders.ListFolders(h.ctx, "bob", &drive.ListOptions{ParentID: &parent.ID})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = h.folders.ListFolders(h.ctx, "alice", &drive.ListOptions{Limit: drive.MaxListLimit + 1})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = h.folders.ListFolders(h.ctx, "alice", &drive.ListOptions{SortBy: "owner"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
