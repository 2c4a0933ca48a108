package mailbox

import (
	"context"

	"github.com/modernmail/mmail/internal/model"
)

// Actions is the full action set of the mailbox store. View code depends on
// this interface rather than the concrete Store so tests can substitute a
// fake mailbox.
type Actions interface {
	// Session
	User() *model.User
	Authenticated() bool
	SetSession(token string, user *model.User) error
	Authenticate(ctx context.Context, mode model.AuthMode, creds model.Credentials) (*model.AuthResult, error)
	Logout() error

	// Navigation
	Folder() model.Folder
	SetFolder(folder model.Folder)
	Mails() []model.Mail
	Selected() *model.Mail
	Loading() bool
	LastError() string
	FetchMails(ctx context.Context, folder model.Folder) ([]model.Mail, error)
	FetchMail(ctx context.Context, id string) (*model.Mail, error)

	// Compose and drafts
	IsComposeOpen() bool
	ComposeDraft() *model.Mail
	ToggleCompose(open *bool, draft *model.Mail)
	SaveDraft(ctx context.Context, payload model.DraftPayload) (*model.Mail, error)
	SendMail(ctx context.Context, payload model.SendPayload) (*model.Mail, error)

	// Mutations
	DeleteMail(ctx context.Context, id string) error
	RestoreMail(ctx context.Context, id string, target model.Folder) error
	EmptyTrash(ctx context.Context) error

	// Remote helpers
	UploadAttachments(ctx context.Context, paths []string) ([]model.Attachment, error)
	GenerateFormal(ctx context.Context, message string) (string, error)
}
