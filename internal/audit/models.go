package audit

import "time"

// Action identifies which archive operation an event describes.
type Action string

const (
	ActionRecordQueued      Action = "record_queued"
	ActionManualRegistered  Action = "manual_registered"
	ActionArchiveExecuted   Action = "archive_executed"
	ActionVisibilityToggled Action = "visibility_toggled"
	ActionRecordUnarchived  Action = "record_unarchived"
	ActionFileDeleted       Action = "file_deleted"
	ActionQueueRemoved      Action = "queue_removed"
	ActionNoteAdded         Action = "note_added"
	ActionChecksumRecorded  Action = "checksum_recorded"
	ActionExemptionVoided   Action = "exemption_voided"
	ActionSweepCompleted    Action = "sweep_completed"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	Actor     string    `json:"actor"`
	RecordID  string    `json:"record_id,omitempty"`
	AssetRef  string    `json:"asset_ref,omitempty"`
	Status    string    `json:"status,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Client    string    `json:"client,omitempty"`
}
