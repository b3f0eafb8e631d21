package domain

import "time"

// Upload describes a stored file attachment.
type Upload struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UploadedBy  string    `json:"uploaded_by"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"created_at"`
}
