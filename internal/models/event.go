package models

type PipelineEventType string

const (
	PipelineUploadProgress PipelineEventType = "upload_progress"
	PipelineUploadComplete PipelineEventType = "upload_complete"
	PipelineUploadError    PipelineEventType = "upload_error"
)

// PipelineEvent is the unit fanned out to realtime observers. Delivery is
// best-effort: publishers never block on slow consumers.
type PipelineEvent struct {
	Type    PipelineEventType `json:"type"`
	AssetID string            `json:"asset_id"`
	Data    map[string]any    `json:"data,omitempty"`
}
