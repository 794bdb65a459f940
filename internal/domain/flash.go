package domain

// FlashType distinguishes success from error notifications.
type FlashType string

const (
	FlashSuccess FlashType = "success"
	FlashError   FlashType = "error"
)

// Flash is a one-shot notification queued for display on the next rendered
// page only.
type Flash struct {
	ID      int64     `json:"id"`
	Type    FlashType `json:"type"`
	Message string    `json:"message"`
}
