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

const fileColumns = `id, name, original_name, size, content_type, extension, blob_ref, folder_id,
	parent_path, owner_id, permissions, description, tags, extracted_text, version,
	previous_versions, status, processing_progress, error_message, uploaded_at, uploaded_by,
	download_count, created_at, updated_at`

// PostgresFileRepository implements the FileRepository interface
type PostgresFileRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewFileRepository creates a new file repository
func NewFileRepository(config *postgres.RepositoryConfig) driveRepo.FileRepository {
	return &PostgresFileRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

func scanFile(row scanner) (*drive.File, error) {
	var (
		file  drive.File
		perms permissionsRecord
	)
	err := row.Scan(
		&file.ID,
		&file.Name,
		&file.OriginalName,
		&file.Size,
		&file.ContentType,
		&file.Extension,
		&file.BlobRef,
		&file.FolderID,
		&file.ParentPath,
		&file.OwnerID,
		&perms,
		&file.Description,
		&file.Tags,
		&file.ExtractedText,
		&file.Version,
		&file.PreviousVersions,
		&file.Status,
		&file.ProcessingProgress,
		&file.ErrorMessage,
		&file.UploadedAt,
		&file.UploadedBy,
		&file.DownloadCount,
		&file.CreatedAt,
		&file.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	file.Permissions = perms.permissions()
	if file.Tags == nil {
		file.Tags = []string{}
	}
	if file.PreviousVersions == nil {
		file.PreviousVersions = []drive.FileVersion{}
	}
	file.Path = drive.FilePath(&file)
	return &file, nil
}

func (r *PostgresFileRepository) queryFiles(ctx context.Context, query string, args ...any) ([]drive.File, error) {
	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	files := []drive.File{}
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, *file)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}
	return files, nil
}

func duplicateFile(name string) error {
	return &domain.ConflictError{
		Message:      fmt.Sprintf("a file named %q already exists in this location", name),
		Reason:       domain.ConflictDuplicateName,
		ResourceType: "file",
	}
}

// Create inserts a file
func (r *PostgresFileRepository) Create(ctx context.Context, file *drive.File) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, original_name, size, content_type, extension, blob_ref, folder_id,
			parent_path, owner_id, permissions, share_token, description, tags, extracted_text,
			version, previous_versions, status, processing_progress, error_message,
			uploaded_at, uploaded_by, download_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
			$19, $20, $21, $22, $23, $24, $25)
	`, r.tables.Files)

	executor := postgres.GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		file.ID,
		file.Name,
		file.OriginalName,
		file.Size,
		file.ContentType,
		file.Extension,
		file.BlobRef,
		file.FolderID,
		file.ParentPath,
		file.OwnerID,
		toRecord(file.Permissions),
		shareToken(file.Permissions),
		file.Description,
		tagsOrEmpty(file.Tags),
		file.ExtractedText,
		file.Version,
		versionsOrEmpty(file.PreviousVersions),
		file.Status,
		file.ProcessingProgress,
		file.ErrorMessage,
		file.UploadedAt,
		file.UploadedBy,
		file.DownloadCount,
		file.CreatedAt,
		file.UpdatedAt,
	)
	if err != nil {
		if postgres.IsPgSiblingNameConflict(err) {
			return duplicateFile(file.Name)
		}
		if postgres.IsPgForeignKeyError(err) && file.FolderID != nil {
			return &domain.NotFoundError{ResourceType: "folder", ResourceID: *file.FolderID}
		}
		return fmt.Errorf("create file: %w", err)
	}
	return nil
}

// GetByID retrieves a file by ID
func (r *PostgresFileRepository) GetByID(ctx context.Context, id string) (*drive.File, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, fileColumns, r.tables.Files)

	executor := postgres.GetExecutor(ctx, r.pool)
	file, err := scanFile(executor.QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, &domain.NotFoundError{ResourceType: "file", ResourceID: id}
		}
		return nil, fmt.Errorf("get file: %w", err)
	}
	return file, nil
}

// Update writes every mutable column. download_count is only changed by IncrementDownloads.
func (r *PostgresFileRepository) Update(ctx context.Context, file *drive.File) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, size = $2, content_type = $3, extension = $4, blob_ref = $5, folder_id = $6,
			parent_path = $7, permissions = $8, share_token = $9, description = $10, tags = $11,
			extracted_text = $12, version = $13, previous_versions = $14, status = $15,
			processing_progress = $16, error_message = $17, uploaded_at = $18, uploaded_by = $19,
			updated_at = $20
		WHERE id = $21
	`, r.tables.Files)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		file.Name,
		file.Size,
		file.ContentType,
		file.Extension,
		file.BlobRef,
		file.FolderID,
		file.ParentPath,
		toRecord(file.Permissions),
		shareToken(file.Permissions),
		file.Description,
		tagsOrEmpty(file.Tags),
		file.ExtractedText,
		file.Version,
		versionsOrEmpty(file.PreviousVersions),
		file.Status,
		file.ProcessingProgress,
		file.ErrorMessage,
		file.UploadedAt,
		file.UploadedBy,
		file.UpdatedAt,
		file.ID,
	)
	if err != nil {
		if postgres.IsPgSiblingNameConflict(err) {
			return duplicateFile(file.Name)
		}
		return fmt.Errorf("update file: %w", err)
	}
	if result.RowsAffected() == 0 {
		return &domain.NotFoundError{ResourceType: "file", ResourceID: file.ID}
	}
	return nil
}

// IncrementDownloads bumps download_count atomically
func (r *PostgresFileRepository) IncrementDownloads(ctx context.Context, id string) error {
	query := fmt.Sprintf(`UPDATE %s SET download_count = download_count + 1 WHERE id = $1`, r.tables.Files)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("increment downloads: %w", err)
	}
	if result.RowsAffected() == 0 {
		return &domain.NotFoundError{ResourceType: "file", ResourceID: id}
	}
	return nil
}

// UpdatePlacements rewrites parent_path of many files in one round trip
func (r *PostgresFileRepository) UpdatePlacements(ctx context.Context, files []drive.File) error {
	if len(files) == 0 {
		return nil
	}
	query := fmt.Sprintf(`UPDATE %s SET parent_path = $1, updated_at = $2 WHERE id = $3`, r.tables.Files)

	batch := &pgx.Batch{}
	for i := range files {
		batch.Queue(query, files[i].ParentPath, files[i].UpdatedAt, files[i].ID)
	}

	executor := postgres.GetExecutor(ctx, r.pool)
	results := executor.SendBatch(ctx, batch)
	defer results.Close()

	for i := range files {
		tag, err := results.Exec()
		if err != nil {
			return fmt.Errorf("update placement of file %s: %w", files[i].ID, err)
		}
		if tag.RowsAffected() == 0 {
			return &domain.NotFoundError{ResourceType: "file", ResourceID: files[i].ID}
		}
	}
	return nil
}

// DeleteMany removes files by id
func (r *PostgresFileRepository) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, r.tables.Files)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, ids); err != nil {
		return fmt.Errorf("delete files: %w", err)
	}
	return nil
}

// ListByFolder lists files directly inside folderID ordered by name
func (r *PostgresFileRepository) ListByFolder(ctx context.Context, folderID string) ([]drive.File, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE folder_id = $1 %s`,
		fileColumns, r.tables.Files, orderBy("name", drive.SortAsc))

	files, err := r.queryFiles(ctx, query, folderID)
	if err != nil {
		return nil, fmt.Errorf("list files in folder: %w", err)
	}
	return files, nil
}

// ListRoots lists an owner's root files ordered by name
func (r *PostgresFileRepository) ListRoots(ctx context.Context, ownerID string) ([]drive.File, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE folder_id IS NULL AND owner_id = $1 %s`,
		fileColumns, r.tables.Files, orderBy("name", drive.SortAsc))

	files, err := r.queryFiles(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list root files: %w", err)
	}
	return files, nil
}

// FindByName returns the sibling file named name, or nil
func (r *PostgresFileRepository) FindByName(ctx context.Context, ownerID string, folderID *string, name string) (*drive.File, error) {
	filter, args := parentFilter("folder_id", folderID, ownerID)
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s AND name = $2`, fileColumns, r.tables.Files, filter)

	executor := postgres.GetExecutor(ctx, r.pool)
	file, err := scanFile(executor.QueryRow(ctx, query, append(args, name)...))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find file by name: %w", err)
	}
	return file, nil
}

// List returns one page of files and the total match count.
// Search also covers text extracted by the analyzer.
func (r *PostgresFileRepository) List(ctx context.Context, opts *drive.ListOptions) ([]drive.File, int, error) {
	where, args := parentFilter("folder_id", opts.ParentID, opts.OwnerID)
	if opts.Search != "" {
		args = append(args, likePattern(opts.Search), opts.Search)
		where += fmt.Sprintf(` AND (name ILIKE $%[1]d OR description ILIKE $%[1]d OR extracted_text ILIKE $%[1]d
			OR EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE lower(tag) = lower($%[2]d)))`,
			len(args)-1, len(args))
	}

	executor := postgres.GetExecutor(ctx, r.pool)
	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, r.tables.Files, where)
	if err := executor.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count files: %w", err)
	}

	pageArgs := append(args, opts.Limit, opts.Offset())
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s %s LIMIT $%d OFFSET $%d`,
		fileColumns, r.tables.Files, where,
		orderBy(fileSortColumn(opts.SortBy), opts.SortOrder),
		len(pageArgs)-1, len(pageArgs))

	files, err := r.queryFiles(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list files: %w", err)
	}
	return files, total, nil
}

// GetByShareToken finds the file carrying token
func (r *PostgresFileRepository) GetByShareToken(ctx context.Context, token string) (*drive.File, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE share_token = $1`, fileColumns, r.tables.Files)

	executor := postgres.GetExecutor(ctx, r.pool)
	file, err := scanFile(executor.QueryRow(ctx, query, token))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, &domain.NotFoundError{ResourceType: "share link", ResourceID: token}
		}
		return nil, fmt.Errorf("get file by share token: %w", err)
	}
	return file, nil
}

func versionsOrEmpty(versions []drive.FileVersion) []drive.FileVersion {
	if versions == nil {
		return []drive.FileVersion{}
	}
	return versions
}

// Ensure PostgresFileRepository implements driveRepo.FileRepository.
var _ driveRepo.FileRepository = (*PostgresFileRepository)(nil)
