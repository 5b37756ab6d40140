package job

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a job
type Status string

// Job lifecycle states
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transition can occur
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// rank orders statuses along the lifecycle; terminal states share a rank
func (s Status) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusProcessing:
		return 1
	case StatusCompleted, StatusFailed:
		return 2
	}
	return -1
}

// CanTransition reports whether moving from s to next is forward progress
func (s Status) CanTransition(next Status) bool {
	return !s.Terminal() && next.rank() == s.rank()+1
}

// Result is the structured outcome of a finished pipeline run. It is set
// exactly once, together with CompletedAt.
type Result struct {
	Optimized        bool   `json:"optimized"`
	ThumbnailCreated bool   `json:"thumbnailCreated"`
	SizeSaved        int64  `json:"sizeSaved,omitempty"`
	Error            string `json:"error,omitempty"`
}

// Job represents one upload's processing lifecycle. The ID doubles as the
// client-visible correlation token for status polling.
type Job struct {
	ID          string     `json:"jobId"`
	FileName    string     `json:"fileName"`
	FileType    string     `json:"fileType"`
	FileSize    int64      `json:"fileSize"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Result      *Result    `json:"result,omitempty"`
}

// IsImage reports whether the captured MIME type denotes an image
func (j Job) IsImage() bool {
	return strings.HasPrefix(j.FileType, "image/")
}
