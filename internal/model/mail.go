package model

import "time"

// Folder is a server-defined tag partitioning mail into views. The client
// never computes membership; it only requests listings filtered by a tag.
type Folder string

const (
	FolderInbox     Folder = "inbox"
	FolderSent      Folder = "sent"
	FolderDrafts    Folder = "drafts"
	FolderScheduled Folder = "scheduled"
	FolderTrash     Folder = "trash"
)

// Folders lists all folder tags in sidebar order.
var Folders = []Folder{
	FolderInbox,
	FolderSent,
	FolderDrafts,
	FolderScheduled,
	FolderTrash,
}

// Valid reports whether f is one of the known folder tags.
func (f Folder) Valid() bool {
	for _, known := range Folders {
		if f == known {
			return true
		}
	}
	return false
}

// Label returns the display name for the folder.
func (f Folder) Label() string {
	switch f {
	case FolderInbox:
		return "Inbox"
	case FolderSent:
		return "Sent"
	case FolderDrafts:
		return "Drafts"
	case FolderScheduled:
		return "Scheduled"
	case FolderTrash:
		return "Trash"
	default:
		return string(f)
	}
}

// ParseFolder returns the folder for the given tag, or FolderInbox when the
// tag is unknown.
func ParseFolder(tag string) Folder {
	f := Folder(tag)
	if !f.Valid() {
		return FolderInbox
	}
	return f
}

// Attachment describes an uploaded file referenced by a mail. The URL points
// at the server's file storage; the client never holds file content after
// upload.
type Attachment struct {
	FileName string `json:"fileName"`
	URL      string `json:"url"`
	FileSize int64  `json:"fileSize"`
	FileType string `json:"fileType"`
}

// Mail is a single message as served by the Modern Mail API. List responses
// carry summaries; the detail endpoint populates every field. Folder
// membership is server-side state and is not part of the record.
type Mail struct {
	ID          string       `json:"_id"`
	From        string       `json:"from"`
	To          string       `json:"to"`
	Cc          string       `json:"cc,omitempty"`
	Bcc         string       `json:"bcc,omitempty"`
	Subject     string       `json:"subject"`
	Body        string       `json:"body"`
	HTMLBody    string       `json:"htmlBody,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	IsScheduled bool         `json:"isScheduled,omitempty"`
	ScheduledAt *time.Time   `json:"scheduledAt,omitempty"`
}

// HasAttachments reports whether the mail references any uploaded files.
func (m Mail) HasAttachments() bool {
	return len(m.Attachments) > 0
}

// DraftPayload is the body of POST /mail/draft. A non-empty ID updates the
// existing draft; an empty ID creates a new one.
type DraftPayload struct {
	ID          string       `json:"id,omitempty"`
	To          string       `json:"to"`
	Cc          string       `json:"cc,omitempty"`
	Bcc         string       `json:"bcc,omitempty"`
	Subject     string       `json:"subject"`
	Body        string       `json:"body"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// SendPayload is the body of POST /mail/send. DraftID links the send to an
// existing draft so the server can retire it; ScheduledAt defers delivery.
type SendPayload struct {
	To          string       `json:"to"`
	Cc          string       `json:"cc,omitempty"`
	Bcc         string       `json:"bcc,omitempty"`
	Subject     string       `json:"subject"`
	Body        string       `json:"body"`
	DraftID     string       `json:"draftId,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	ScheduledAt *time.Time   `json:"scheduledAt,omitempty"`
}
