package drive

import (
	"context"
	"fmt"

	"folio/internal/domain/models/drive"
	driveRepo "folio/internal/domain/repositories/drive"
)

// ComputeStatistics aggregates the direct children of a folder. Not recursive.
func ComputeStatistics(files []drive.File, subfolders []drive.Folder) drive.Statistics {
	stats := drive.Statistics{
		FileCount:      len(files),
		SubfolderCount: len(subfolders),
	}
	for i := range files {
		stats.TotalSize += files[i].Size
	}
	return stats
}

// StatisticsAggregator refreshes the cached counters of a folder
type StatisticsAggregator struct {
	folderRepo driveRepo.FolderRepository
	fileRepo   driveRepo.FileRepository
}

// NewStatisticsAggregator creates a new aggregator
func NewStatisticsAggregator(folderRepo driveRepo.FolderRepository, fileRepo driveRepo.FileRepository) *StatisticsAggregator {
	return &StatisticsAggregator{folderRepo: folderRepo, fileRepo: fileRepo}
}

// UpdateStatistics recomputes and stores the counters of folderID
func (a *StatisticsAggregator) UpdateStatistics(ctx context.Context, folderID string) (drive.Statistics, error) {
	files, err := a.fileRepo.ListByFolder(ctx, folderID)
	if err != nil {
		return drive.Statistics{}, fmt.Errorf("list files of %s: %w", folderID, err)
	}
	subfolders, err := a.folderRepo.ListChildren(ctx, folderID)
	if err != nil {
		return drive.Statistics{}, fmt.Errorf("list subfolders of %s: %w", folderID, err)
	}

	stats := ComputeStatistics(files, subfolders)
	if err := a.folderRepo.UpdateStatistics(ctx, folderID, stats); err != nil {
		return drive.Statistics{}, fmt.Errorf("update statistics of %s: %w", folderID, err)
	}
	return stats, nil
}

// refresh updates every distinct non-root folder in ids
func (a *StatisticsAggregator) refresh(ctx context.Context, ids ...*string) error {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == nil {
			continue
		}
		if _, done := seen[*id]; done {
			continue
		}
		seen[*id] = struct{}{}
		if _, err := a.UpdateStatistics(ctx, *id); err != nil {
			return err
		}
	}
	return nil
}
