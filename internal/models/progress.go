package models

type ProgressEventType string

const (
	ProgressFetchingMetadata ProgressEventType = "fetching_metadata"
	ProgressFetchingDiff     ProgressEventType = "fetching_diff"
	ProgressBuildingPrompt   ProgressEventType = "building_prompt"
	ProgressEstimating       ProgressEventType = "estimating"
	ProgressRequestingReview ProgressEventType = "requesting_review"
	ProgressRetrying         ProgressEventType = "retrying"
	ProgressNormalizing      ProgressEventType = "normalizing"
)

// ProgressEvent is emitted while a review runs so the UI can keep the user informed.
type ProgressEvent struct {
	Type    ProgressEventType
	Message string
	Data    map[string]interface{}
}
