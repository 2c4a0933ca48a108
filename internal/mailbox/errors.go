package mailbox

import (
	"errors"

	"github.com/modernmail/mmail/internal/api"
)

// Per-action fallback messages shown when the server response carries no
// message of its own.
const (
	msgLoadFailed     = "Failed to load mail"
	msgFetchFailed    = "Failed to fetch mail"
	msgDraftFailed    = "Failed to save draft"
	msgSendFailed     = "Failed to send mail"
	msgDeleteFailed   = "Unable to delete mail"
	msgRestoreFailed  = "Unable to restore mail"
	msgTrashFailed    = "Unable to empty trash"
	msgAuthFailed     = "Authentication failed"
	msgUploadFailed   = "Failed to upload attachments"
	msgGenerateFailed = "Failed to generate text"
)

// userError normalizes a failed API call into an error whose Error() string
// can be shown to the user as-is: the server-supplied message when present,
// otherwise the per-action fallback. Raw transport errors never escape.
func userError(err error, fallback string) error {
	if msg := api.ServerMessage(err); msg != "" {
		return errors.New(msg)
	}
	return errors.New(fallback)
}
