package drive

import (
	"context"
	"fmt"

	"folio/internal/domain"
	"folio/internal/domain/models/drive"
	driveRepo "folio/internal/domain/repositories/drive"
	"folio/internal/repository/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const folderColumns = `id, name, description, parent_id, parent_path, level, owner_id, permissions,
	color, icon, tags, file_count, total_size, subfolder_count,
	created_at, updated_at, last_modified, last_accessed_at`

// PostgresFolderRepository implements the FolderRepository interface
type PostgresFolderRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewFolderRepository creates a new folder repository
func NewFolderRepository(config *postgres.RepositoryConfig) driveRepo.FolderRepository {
	return &PostgresFolderRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

func scanFolder(row scanner) (*drive.Folder, error) {
	var (
		folder drive.Folder
		perms  permissionsRecord
	)
	err := row.Scan(
		&folder.ID,
		&folder.Name,
		&folder.Description,
		&folder.ParentID,
		&folder.ParentPath,
		&folder.Level,
		&folder.OwnerID,
		&perms,
		&folder.Color,
		&folder.Icon,
		&folder.Tags,
		&folder.FileCount,
		&folder.TotalSize,
		&folder.SubfolderCount,
		&folder.CreatedAt,
		&folder.UpdatedAt,
		&folder.LastModified,
		&folder.LastAccessedAt,
	)
	if err != nil {
		return nil, err
	}
	folder.Permissions = perms.permissions()
	if folder.Tags == nil {
		folder.Tags = []string{}
	}
	folder.Path = drive.FolderPath(&folder)
	return &folder, nil
}

func (r *PostgresFolderRepository) queryFolders(ctx context.Context, query string, args ...any) ([]drive.Folder, error) {
	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	folders := []drive.Folder{}
	for rows.Next() {
		folder, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, *folder)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folders: %w", err)
	}
	return folders, nil
}

// Create inserts a folder
func (r *PostgresFolderRepository) Create(ctx context.Context, folder *drive.Folder) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, description, parent_id, parent_path, level, owner_id, permissions,
			share_token, color, icon, tags, created_at, updated_at, last_modified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		folder.ID,
		folder.Name,
		folder.Description,
		folder.ParentID,
		folder.ParentPath,
		folder.Level,
		folder.OwnerID,
		toRecord(folder.Permissions),
		shareToken(folder.Permissions),
		folder.Color,
		folder.Icon,
		tagsOrEmpty(folder.Tags),
		folder.CreatedAt,
		folder.UpdatedAt,
		folder.LastModified,
	)
	if err != nil {
		if postgres.IsPgSiblingNameConflict(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("a folder named %q already exists in this location", folder.Name),
				Reason:       domain.ConflictDuplicateName,
				ResourceType: "folder",
			}
		}
		if postgres.IsPgForeignKeyError(err) && folder.ParentID != nil {
			return &domain.NotFoundError{ResourceType: "folder", ResourceID: *folder.ParentID}
		}
		return fmt.Errorf("create folder: %w", err)
	}
	return nil
}

// GetByID retrieves a folder by ID
func (r *PostgresFolderRepository) GetByID(ctx context.Context, id string) (*drive.Folder, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, folderColumns, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	folder, err := scanFolder(executor.QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, &domain.NotFoundError{ResourceType: "folder", ResourceID: id}
		}
		return nil, fmt.Errorf("get folder: %w", err)
	}
	return folder, nil
}

// Update writes every mutable column. Cached statistics are left alone.
func (r *PostgresFolderRepository) Update(ctx context.Context, folder *drive.Folder) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, description = $2, parent_id = $3, parent_path = $4, level = $5,
			permissions = $6, share_token = $7, color = $8, icon = $9, tags = $10,
			updated_at = $11, last_modified = $12
		WHERE id = $13
	`, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		folder.Name,
		folder.Description,
		folder.ParentID,
		folder.ParentPath,
		folder.Level,
		toRecord(folder.Permissions),
		shareToken(folder.Permissions),
		folder.Color,
		folder.Icon,
		tagsOrEmpty(folder.Tags),
		folder.UpdatedAt,
		folder.LastModified,
		folder.ID,
	)
	if err != nil {
		if postgres.IsPgSiblingNameConflict(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("a folder named %q already exists in this location", folder.Name),
				Reason:       domain.ConflictDuplicateName,
				ResourceType: "folder",
			}
		}
		return fmt.Errorf("update folder: %w", err)
	}
	if result.RowsAffected() == 0 {
		return &domain.NotFoundError{ResourceType: "folder", ResourceID: folder.ID}
	}
	return nil
}

// UpdateStatistics writes the cached direct-children counters
func (r *PostgresFolderRepository) UpdateStatistics(ctx context.Context, id string, stats drive.Statistics) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET file_count = $1, total_size = $2, subfolder_count = $3
		WHERE id = $4
	`, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, stats.FileCount, stats.TotalSize, stats.SubfolderCount, id)
	if err != nil {
		return fmt.Errorf("update folder statistics: %w", err)
	}
	if result.RowsAffected() == 0 {
		return &domain.NotFoundError{ResourceType: "folder", ResourceID: id}
	}
	return nil
}

// TouchAccessed sets last_accessed_at to now
func (r *PostgresFolderRepository) TouchAccessed(ctx context.Context, id string) error {
	query := fmt.Sprintf(`UPDATE %s SET last_accessed_at = NOW() WHERE id = $1`, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("touch folder: %w", err)
	}
	if result.RowsAffected() == 0 {
		return &domain.NotFoundError{ResourceType: "folder", ResourceID: id}
	}
	return nil
}

// UpdatePlacements rewrites parent_path and level of many folders in one round trip
func (r *PostgresFolderRepository) UpdatePlacements(ctx context.Context, folders []drive.Folder) error {
	if len(folders) == 0 {
		return nil
	}
	query := fmt.Sprintf(`
		UPDATE %s
		SET parent_path = $1, level = $2, updated_at = $3
		WHERE id = $4
	`, r.tables.Folders)

	batch := &pgx.Batch{}
	for i := range folders {
		batch.Queue(query, folders[i].ParentPath, folders[i].Level, folders[i].UpdatedAt, folders[i].ID)
	}

	executor := postgres.GetExecutor(ctx, r.pool)
	results := executor.SendBatch(ctx, batch)
	defer results.Close()

	for i := range folders {
		tag, err := results.Exec()
		if err != nil {
			return fmt.Errorf("update placement of folder %s: %w", folders[i].ID, err)
		}
		if tag.RowsAffected() == 0 {
			return &domain.NotFoundError{ResourceType: "folder", ResourceID: folders[i].ID}
		}
	}
	return nil
}

// DeleteMany removes folders in one statement; the parent_id constraint is checked
// after all rows are gone, so a subtree can be removed together.
func (r *PostgresFolderRepository) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, ids); err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return &domain.ConflictError{
				Message:      "folder still has children",
				Reason:       domain.ConflictNotEmpty,
				ResourceType: "folder",
			}
		}
		return fmt.Errorf("delete folders: %w", err)
	}
	return nil
}

// ListChildren lists direct child folders ordered by name
func (r *PostgresFolderRepository) ListChildren(ctx context.Context, parentID string) ([]drive.Folder, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE parent_id = $1 %s`,
		folderColumns, r.tables.Folders, orderBy("name", drive.SortAsc))

	folders, err := r.queryFolders(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("list child folders: %w", err)
	}
	return folders, nil
}

// ListRoots lists an owner's root folders ordered by name
func (r *PostgresFolderRepository) ListRoots(ctx context.Context, ownerID string) ([]drive.Folder, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE parent_id IS NULL AND owner_id = $1 %s`,
		folderColumns, r.tables.Folders, orderBy("name", drive.SortAsc))

	folders, err := r.queryFolders(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list root folders: %w", err)
	}
	return folders, nil
}

// FindByName returns the sibling named name, or nil
func (r *PostgresFolderRepository) FindByName(ctx context.Context, ownerID string, parentID *string, name string) (*drive.Folder, error) {
	filter, args := parentFilter("parent_id", parentID, ownerID)
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s AND name = $2`, folderColumns, r.tables.Folders, filter)

	executor := postgres.GetExecutor(ctx, r.pool)
	folder, err := scanFolder(executor.QueryRow(ctx, query, append(args, name)...))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find folder by name: %w", err)
	}
	return folder, nil
}

// List returns one page of folders and the total match count
func (r *PostgresFolderRepository) List(ctx context.Context, opts *drive.ListOptions) ([]drive.Folder, int, error) {
	where, args := parentFilter("parent_id", opts.ParentID, opts.OwnerID)
	if opts.Search != "" {
		args = append(args, likePattern(opts.Search), opts.Search)
		where += fmt.Sprintf(` AND (name ILIKE $%[1]d OR description ILIKE $%[1]d
			OR EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE lower(tag) = lower($%[2]d)))`,
			len(args)-1, len(args))
	}

	executor := postgres.GetExecutor(ctx, r.pool)
	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, r.tables.Folders, where)
	if err := executor.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count folders: %w", err)
	}

	pageArgs := append(args, opts.Limit, opts.Offset())
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s %s LIMIT $%d OFFSET $%d`,
		folderColumns, r.tables.Folders, where,
		orderBy(folderSortColumn(opts.SortBy), opts.SortOrder),
		len(pageArgs)-1, len(pageArgs))

	folders, err := r.queryFolders(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list folders: %w", err)
	}
	return folders, total, nil
}

// GetByShareToken finds the folder carrying token
func (r *PostgresFolderRepository) GetByShareToken(ctx context.Context, token string) (*drive.Folder, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE share_token = $1`, folderColumns, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	folder, err := scanFolder(executor.QueryRow(ctx, query, token))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, &domain.NotFoundError{ResourceType: "share link", ResourceID: token}
		}
		return nil, fmt.Errorf("get folder by share token: %w", err)
	}
	return folder, nil
}

// Ensure PostgresFolderRepository implements driveRepo.FolderRepository.
var _ driveRepo.FolderRepository = (*PostgresFolderRepository)(nil)
