// File: internal/domain/attachment.go
package domain

// AttachmentProvider names the object store holding the file.
type AttachmentProvider string

const (
	AttachmentProviderCloudinary AttachmentProvider = "cloudinary"
	AttachmentProviderUploadcare AttachmentProvider = "uploadcare"
	AttachmentProviderS3         AttachmentProvider = "s3"
	AttachmentProviderGCS        AttachmentProvider = "gcs"
	AttachmentProviderLocal      AttachmentProvider = "local"
	AttachmentProviderOther      AttachmentProvider = "other"
)

// Attachment is a reference to a file kept in an external object store.
// Only the URL and descriptive metadata live here.
type Attachment struct {
	URL          string             `json:"url"`
	Filename     string             `json:"filename,omitempty"`
	MimeType     string             `json:"mime_type,omitempty"`
	Size         int64              `json:"size,omitempty"`
	Provider     AttachmentProvider `json:"provider,omitempty"`
	ThumbnailURL string             `json:"thumbnail_url,omitempty"`
}
