package drive

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"folio/internal/config"
	"folio/internal/domain"
	"folio/internal/domain/models/drive"
	"folio/internal/domain/repositories"
	driveRepo "folio/internal/domain/repositories/drive"
	"folio/internal/metrics"
	"folio/internal/service/access"
)

// tree holds the hierarchy primitives shared by the folder and file services.
// Every method except lock expects to run inside ExecTx after lock.
type tree struct {
	folderRepo driveRepo.FolderRepository
	fileRepo   driveRepo.FileRepository
	txManager  repositories.TransactionManager
	locker     repositories.OwnerLocker
	stats      *StatisticsAggregator
	metrics    *metrics.DriveMetrics
	logger     *slog.Logger
}

func newTree(deps Dependencies) *tree {
	return &tree{
		folderRepo: deps.FolderRepo,
		fileRepo:   deps.FileRepo,
		txManager:  deps.TxManager,
		locker:     deps.Locker,
		stats:      NewStatisticsAggregator(deps.FolderRepo, deps.FileRepo),
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
}

func (t *tree) observe(op string, start time.Time, err *error) {
	t.metrics.ObserveOperation(op, start, *err)
}

// lock takes the per-owner locks for the distinct non-empty ids
func (t *tree) lock(ctx context.Context, ownerIDs ...string) error {
	keys := uniqueSorted(ownerIDs)
	if err := t.locker.LockOwners(ctx, keys...); err != nil {
		return fmt.Errorf("lock owners: %w", err)
	}
	return nil
}

func uniqueSorted(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// loadFolder re-reads a folder under the lock and checks action
func (t *tree) loadFolder(ctx context.Context, userID, folderID string, action drive.Permission) (*drive.Folder, error) {
	folder, err := t.folderRepo.GetByID(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireFolder(folder, userID, action); err != nil {
		return nil, err
	}
	return folder, nil
}

// loadFile re-reads a file under the lock and checks action
func (t *tree) loadFile(ctx context.Context, userID, fileID string, action drive.Permission) (*drive.File, error) {
	file, err := t.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireFile(file, userID, action); err != nil {
		return nil, err
	}
	return file, nil
}

// destination loads a target folder with write access; nil means the root level
func (t *tree) destination(ctx context.Context, userID string, folderID *string) (*drive.Folder, error) {
	if folderID == nil {
		return nil, nil
	}
	return t.loadFolder(ctx, userID, *folderID, drive.PermissionWrite)
}

// ownerOf returns the owner of a destination folder without authorizing; used to pick lock keys
func (t *tree) ownerOf(ctx context.Context, folderID *string) (string, error) {
	if folderID == nil {
		return "", nil
	}
	folder, err := t.folderRepo.GetByID(ctx, *folderID)
	if err != nil {
		return "", err
	}
	return folder.OwnerID, nil
}

// ensureNameFree fails if a folder or file other than selfID already uses name under parentID
func (t *tree) ensureNameFree(ctx context.Context, ownerID string, parentID *string, name, selfID string) error {
	folder, err := t.folderRepo.FindByName(ctx, ownerID, parentID, name)
	if err != nil {
		return fmt.Errorf("failed to check for duplicate names: %w", err)
	}
	if folder != nil && folder.ID != selfID {
		return duplicateName("folder", folder.ID, name)
	}

	file, err := t.fileRepo.FindByName(ctx, ownerID, parentID, name)
	if err != nil {
		return fmt.Errorf("failed to check for duplicate names: %w", err)
	}
	if file != nil && file.ID != selfID {
		return duplicateName("file", file.ID, name)
	}
	return nil
}

func duplicateName(kind, id, name string) error {
	return &domain.ConflictError{
		Message:      fmt.Sprintf("a %s named %q already exists in this location", kind, name),
		Reason:       domain.ConflictDuplicateName,
		ResourceType: kind,
		ResourceID:   id,
	}
}

func depthExceeded(folderID string, level int) error {
	return &domain.ConflictError{
		Message:      fmt.Sprintf("folder depth %d exceeds the maximum of %d", level, config.MaxFolderDepth),
		Reason:       domain.ConflictDepthExceeded,
		ResourceType: "folder",
		ResourceID:   folderID,
	}
}

func circularMove(folderID, destID string) error {
	return &domain.ConflictError{
		Message:      fmt.Sprintf("cannot move folder %s into its own subtree", folderID),
		Reason:       domain.ConflictCircularMove,
		ResourceType: "folder",
		ResourceID:   destID,
	}
}

// subtree is everything beneath a folder
type subtree struct {
	root    *drive.Folder
	folders []drive.Folder // descendants in BFS order, root excluded
	files   []drive.File   // files at any depth, including directly in root
	ids     map[string]struct{}
}

func (s *subtree) containsFolder(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// maxLevel is the deepest level in the subtree, root included
func (s *subtree) maxLevel() int {
	deepest := s.root.Level
	for i := range s.folders {
		if s.folders[i].Level > deepest {
			deepest = s.folders[i].Level
		}
	}
	return deepest
}

// folderIDsDeepestFirst lists every folder id of the subtree, root last
func (s *subtree) folderIDsDeepestFirst() []string {
	ids := make([]string, 0, len(s.folders)+1)
	for i := len(s.folders) - 1; i >= 0; i-- {
		ids = append(ids, s.folders[i].ID)
	}
	return append(ids, s.root.ID)
}

func (s *subtree) fileIDs() []string {
	ids := make([]string, len(s.files))
	for i := range s.files {
		ids[i] = s.files[i].ID
	}
	return ids
}

// owners lists the distinct owners of nodes in the subtree
func (s *subtree) owners() []string {
	ids := []string{s.root.OwnerID}
	for i := range s.folders {
		ids = append(ids, s.folders[i].OwnerID)
	}
	for i := range s.files {
		ids = append(ids, s.files[i].OwnerID)
	}
	return uniqueSorted(ids)
}

// collectSubtree walks descendants by parent id. Paths are cross-checked against the
// root's path; a mismatch is logged since the id walk is authoritative.
func (t *tree) collectSubtree(ctx context.Context, root *drive.Folder) (*subtree, error) {
	rootPath := drive.FolderPath(root)
	st := &subtree{root: root, ids: map[string]struct{}{root.ID: {}}}

	queue := []string{root.ID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		files, err := t.fileRepo.ListByFolder(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("list files of %s: %w", id, err)
		}
		st.files = append(st.files, files...)

		children, err := t.folderRepo.ListChildren(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("list subfolders of %s: %w", id, err)
		}
		for _, child := range children {
			if st.containsFolder(child.ID) {
				return nil, fmt.Errorf("folder %s reached twice under %s", child.ID, root.ID)
			}
			if !drive.IsWithin(child.ParentPath, rootPath) {
				t.logger.Warn("descendant path outside its ancestor",
					"folder_id", child.ID,
					"parent_path", child.ParentPath,
					"ancestor_path", rootPath,
				)
			}
			st.ids[child.ID] = struct{}{}
			st.folders = append(st.folders, child)
			queue = append(queue, child.ID)
		}
	}
	return st, nil
}

// rebase rewrites the placement of every descendant after st.root changed path or level.
// st.root must already carry its new placement; oldPath is its full path before the change.
func (t *tree) rebase(ctx context.Context, st *subtree, oldPath string, levelDelta int, now time.Time) error {
	newRoot := drive.FolderPath(st.root)
	newPaths := map[string]string{st.root.ID: newRoot}

	folders := make([]drive.Folder, 0, len(st.folders))
	for _, f := range st.folders {
		fromParent := newPaths[*f.ParentID]
		rebased, ok := drive.RebasePath(f.ParentPath, oldPath, newRoot)
		if !ok || rebased != fromParent {
			t.logger.Warn("repairing descendant path", "folder_id", f.ID, "parent_path", f.ParentPath)
		}
		f.ParentPath = fromParent
		f.Level += levelDelta
		f.UpdatedAt = now
		newPaths[f.ID] = drive.FolderPath(&f)
		folders = append(folders, f)
	}

	files := make([]drive.File, 0, len(st.files))
	for _, f := range st.files {
		f.ParentPath = newPaths[*f.FolderID]
		f.UpdatedAt = now
		files = append(files, f)
	}

	if len(folders) > 0 {
		if err := t.folderRepo.UpdatePlacements(ctx, folders); err != nil {
			return fmt.Errorf("rebase descendant folders: %w", err)
		}
	}
	if len(files) > 0 {
		if err := t.fileRepo.UpdatePlacements(ctx, files); err != nil {
			return fmt.Errorf("rebase descendant files: %w", err)
		}
	}

	t.metrics.RecordCascade(len(folders) + len(files))
	t.logger.Debug("rebased subtree",
		"folder_id", st.root.ID,
		"old_path", oldPath,
		"new_path", newRoot,
		"level_delta", levelDelta,
		"folders", len(folders),
		"files", len(files),
	)
	return nil
}

func cloneID(id *string) *string {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
