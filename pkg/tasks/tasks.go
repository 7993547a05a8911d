// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

// VectorCleanupTask asks the cleanup worker to remove a deleted meeting's
// points from the vector store. TaskID keys the retry counter.
type VectorCleanupTask struct {
	TaskID      string `json:"task_id"`
	MeetingDBID uint   `json:"meeting_db_id"`
	RequestedBy uint   `json:"requested_by"`
}
