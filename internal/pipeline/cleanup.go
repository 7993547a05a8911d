package pipeline

import (
	"context"
	"fmt"

	"github.com/mustafamaahir/Meeting-Minutes/pkg/log"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/qdrant"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/tasks"
)

// CleanupWorker removes orphaned vector points left behind when a meeting
// was deleted but the synchronous vector delete did not go through. It is
// driven by the Kafka consumer.
type CleanupWorker struct {
	store qdrant.Store
}

// NewCleanupWorker creates a CleanupWorker.
func NewCleanupWorker(store qdrant.Store) *CleanupWorker {
	return &CleanupWorker{store: store}
}

// Process handles one cleanup task. Errors bubble up so the consumer's
// retry accounting takes over.
func (w *CleanupWorker) Process(ctx context.Context, task tasks.VectorCleanupTask) error {
	log.Infof("[CleanupWorker] removing vectors for meeting %d, task_id: %s, requested_by: %d",
		task.MeetingDBID, task.TaskID, task.RequestedBy)

	if err := w.store.DeleteByMeeting(ctx, task.MeetingDBID); err != nil {
		return fmt.Errorf("failed to delete vectors for meeting %d: %w", task.MeetingDBID, err)
	}

	log.Infof("[CleanupWorker] vectors removed for meeting %d", task.MeetingDBID)
	return nil
}
