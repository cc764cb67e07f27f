package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RefreshMissingResources retries the video search for stored questions that
// have no resources yet
func (m *CronManager) RefreshMissingResources(ctx context.Context) (string, map[string]interface{}, error) {
	checked, updated, err := m.refresher.RefreshResources(ctx, m.config.RefreshLimit)
	if err != nil {
		return "", nil, fmt.Errorf("refresh resources: %w", err)
	}

	message := fmt.Sprintf("Checked %d questions, attached resources to %d", checked, updated)
	return message, map[string]interface{}{
		"checked": checked,
		"updated": updated,
	}, nil
}

// CleanupOldBatches deletes analysis batches past the retention window along
// with their archived papers. A batch whose papers could not be deleted is
// kept so the next run retries it.
func (m *CronManager) CleanupOldBatches(ctx context.Context) (string, map[string]interface{}, error) {
	cutoff := time.Now().Add(-m.config.BatchRetention)

	old, err := m.batches.OlderThan(ctx, cutoff)
	if err != nil {
		return "", nil, err
	}

	archiveErrors := 0
	ids := make([]uuid.UUID, 0, len(old))
	for _, batch := range old {
		if batch.ArchivePrefix != "" && m.archive != nil {
			if err := m.archive.DeleteBatch(ctx, batch.ID.String()); err != nil {
				archiveErrors++
				m.logger.Warn("failed to delete archived papers", "batch_id", batch.ID.String(), "error", err)
				continue
			}
		}
		ids = append(ids, batch.ID)
	}

	deleted, err := m.batches.Delete(ctx, ids)
	if err != nil {
		return "", nil, err
	}

	message := fmt.Sprintf("Deleted %d batches older than %s", deleted, cutoff.Format(time.RFC3339))
	if archiveErrors > 0 {
		message += fmt.Sprintf(", kept %d with archive errors", archiveErrors)
	}
	return message, map[string]interface{}{
		"deleted":        deleted,
		"archive_errors": archiveErrors,
	}, nil
}
