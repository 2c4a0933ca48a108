// Package mailbox holds the client-side mailbox state: session, current
// folder, listing, selection, and compose state. Every remote operation is
// one REST call through the api client; on success the store reconciles its
// fields from the response, on failure state is left untouched and the
// returned error carries a user-displayable message.
package mailbox

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/modernmail/mmail/internal/api"
	"github.com/modernmail/mmail/internal/credential"
	"github.com/modernmail/mmail/internal/model"
)

// Store is the process-wide mailbox state container. Actions may be invoked
// from Bubble Tea command goroutines, so all state access goes through the
// mutex; each action's success mutation is applied in one critical section.
type Store struct {
	api   *api.Client
	creds credential.Store
	log   zerolog.Logger

	mu            sync.Mutex
	token         string
	user          *model.User
	folder        model.Folder
	mails         []model.Mail
	selected      *model.Mail
	isComposeOpen bool
	composeDraft  *model.Mail
	loading       bool
	lastError     string

	// fetchGen tags in-flight fetches; a response is discarded when a newer
	// fetch started or the folder changed after it was issued.
	fetchGen uint64
}

var _ Actions = (*Store)(nil)

// New creates a mailbox store and hydrates the session from the credential
// slots. A missing, malformed, or expired session leaves the store logged
// out without error.
func New(client *api.Client, creds credential.Store, log zerolog.Logger) *Store {
	s := &Store{
		api:    client,
		creds:  creds,
		log:    log,
		folder: model.FolderInbox,
	}
	s.hydrate()
	return s
}

// --- Read accessors ---

// User returns the authenticated user profile, or nil when logged out.
func (s *Store) User() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Authenticated reports whether a session token is present.
func (s *Store) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != ""
}

// Folder returns the currently selected folder tag.
func (s *Store) Folder() model.Folder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.folder
}

// Mails returns a copy of the current folder listing.
func (s *Store) Mails() []model.Mail {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Mail, len(s.mails))
	copy(out, s.mails)
	return out
}

// Selected returns the currently open mail, or nil.
func (s *Store) Selected() *model.Mail {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return nil
	}
	m := *s.selected
	return &m
}

// IsComposeOpen reports whether the composer is visible.
func (s *Store) IsComposeOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isComposeOpen
}

// ComposeDraft returns the draft being edited, or nil when composing fresh.
func (s *Store) ComposeDraft() *model.Mail {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.composeDraft == nil {
		return nil
	}
	d := *s.composeDraft
	return &d
}

// Loading reports whether a list fetch is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// LastError returns the user-facing message of the last failed list or
// detail fetch, or "".
func (s *Store) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// --- Session actions ---

// Authenticate posts the credentials to /auth/login or /auth/register and,
// on success, stores the returned session atomically.
func (s *Store) Authenticate(
	ctx context.Context,
	mode model.AuthMode,
	creds model.Credentials,
) (*model.AuthResult, error) {
	var result model.AuthResult
	err := s.api.Post(ctx, "/auth/"+string(mode), creds, &result)
	if err != nil {
		s.log.Warn().Str("mode", string(mode)).Err(err).Msg("authentication failed")
		return nil, userError(err, msgAuthFailed)
	}

	if err := s.SetSession(result.Token, &result.User); err != nil {
		return nil, err
	}
	s.log.Info().Str("email", result.User.Email).Msg("authenticated")
	return &result, nil
}

// Logout clears the credential slots and resets the store to its defaults.
// No network call is made.
func (s *Store) Logout() error {
	if err := s.clearSession(); err != nil {
		return err
	}

	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mails = nil
	s.selected = nil
	s.folder = model.FolderInbox
	s.isComposeOpen = false
	s.composeDraft = nil
	s.loading = false
	s.lastError = ""
	s.fetchGen++
	s.mu.Unlock()

	s.api.SetToken("")
	s.log.Info().Msg("logged out")
	return nil
}

// --- Navigation actions ---

// SetFolder switches the current folder and unconditionally clears the
// selection; a selection from one folder is not meaningful in another.
// Pure local state change.
func (s *Store) SetFolder(folder model.Folder) {
	if !folder.Valid() {
		folder = model.FolderInbox
	}

	s.mu.Lock()
	s.folder = folder
	s.selected = nil
	// Invalidate in-flight fetches issued for the previous folder. A
	// superseded fetch never touches loading or lastError again, so both
	// reset here.
	s.loading = false
	s.lastError = ""
	s.fetchGen++
	s.mu.Unlock()
}

// FetchMails replaces the listing with the server's view of the given
// folder (the current folder when empty). Responses that have been
// superseded by a newer fetch or a folder switch are discarded.
func (s *Store) FetchMails(ctx context.Context, folder model.Folder) ([]model.Mail, error) {
	s.mu.Lock()
	if folder == "" {
		folder = s.folder
	}
	s.loading = true
	s.lastError = ""
	s.fetchGen++
	gen := s.fetchGen
	s.mu.Unlock()

	var mails []model.Mail
	path := "/mail?folder=" + url.QueryEscape(string(folder))
	err := s.api.Get(ctx, path, &mails)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.fetchGen {
		s.log.Debug().Str("folder", string(folder)).Msg("discarding stale listing")
		if err != nil {
			return nil, userError(err, msgLoadFailed)
		}
		return mails, nil
	}

	s.loading = false
	if err != nil {
		norm := userError(err, msgLoadFailed)
		s.lastError = norm.Error()
		s.log.Warn().Str("folder", string(folder)).Err(err).Msg("listing fetch failed")
		return nil, norm
	}

	s.mails = mails
	s.folder = folder
	return mails, nil
}

// FetchMail fetches one mail's full detail and selects it. The selection is
// left unchanged on failure or when the folder changed while the request
// was in flight.
func (s *Store) FetchMail(ctx context.Context, id string) (*model.Mail, error) {
	s.mu.Lock()
	gen := s.fetchGen
	s.mu.Unlock()

	var mail model.Mail
	err := s.api.Get(ctx, "/mail/"+url.PathEscape(id), &mail)
	if err != nil {
		norm := userError(err, msgFetchFailed)
		s.mu.Lock()
		s.lastError = norm.Error()
		s.mu.Unlock()
		return nil, norm
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.fetchGen {
		s.log.Debug().Str("id", id).Msg("discarding stale detail")
		return &mail, nil
	}
	s.selected = &mail
	return &mail, nil
}

// --- Compose and draft actions ---

// ToggleCompose opens or closes the composer. A nil open toggles the
// current state. The compose draft is always set to a copy of the given
// mail, or cleared when nil; the caller keeps no alias into store state.
func (s *Store) ToggleCompose(open *bool, draft *model.Mail) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if open != nil {
		s.isComposeOpen = *open
	} else {
		s.isComposeOpen = !s.isComposeOpen
	}
	if draft != nil {
		d := *draft
		s.composeDraft = &d
	} else {
		s.composeDraft = nil
	}
}

// SaveDraft creates or updates a draft (keyed by payload ID). When the
// drafts folder is open the saved record is upserted into the listing, the
// one place a single-item response is merged instead of refetched.
func (s *Store) SaveDraft(ctx context.Context, payload model.DraftPayload) (*model.Mail, error) {
	var saved model.Mail
	if err := s.api.Post(ctx, "/mail/draft", payload, &saved); err != nil {
		return nil, userError(err, msgDraftFailed)
	}

	s.mu.Lock()
	s.composeDraft = &saved
	if s.folder == model.FolderDrafts {
		s.mails = applyMutation(s.mails, saved.ID, opUpsert, &saved)
	}
	s.mu.Unlock()

	return &saved, nil
}

// SendMail posts the payload to the send endpoint. A missing recipient is
// rejected before any network call. On success the listing is reconciled:
// prepended in sent, and the source draft removed (and deselected) in
// drafts. Failure leaves mails and the selection exactly as before.
func (s *Store) SendMail(ctx context.Context, payload model.SendPayload) (*model.Mail, error) {
	if strings.TrimSpace(payload.To) == "" {
		return nil, errors.New("Recipient is required")
	}

	var sent model.Mail
	if err := s.api.Post(ctx, "/mail/send", payload, &sent); err != nil {
		return nil, userError(err, msgSendFailed)
	}

	s.mu.Lock()
	if s.folder == model.FolderSent {
		s.mails = applyMutation(s.mails, sent.ID, opUpsert, &sent)
	}
	if s.folder == model.FolderDrafts && payload.DraftID != "" {
		s.mails = applyMutation(s.mails, payload.DraftID, opRemove, nil)
		if s.selected != nil && s.selected.ID == payload.DraftID {
			s.selected = nil
		}
	}
	s.mu.Unlock()

	return &sent, nil
}

// --- Mutation actions ---

// DeleteMail soft-deletes a mail (the server moves it to trash), removes it
// from the listing, and clears a matching selection.
func (s *Store) DeleteMail(ctx context.Context, id string) error {
	err := s.api.Patch(ctx, "/mail/delete/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return userError(err, msgDeleteFailed)
	}

	s.mu.Lock()
	s.mails = applyMutation(s.mails, id, opRemove, nil)
	if s.selected != nil && s.selected.ID == id {
		s.selected = nil
	}
	s.mu.Unlock()

	return nil
}

// RestoreMail moves a trashed mail back to the target folder (inbox when
// empty). The mail leaves the currently viewed listing; a matching
// selection is replaced with the server's updated record.
func (s *Store) RestoreMail(ctx context.Context, id string, target model.Folder) error {
	if target == "" {
		target = model.FolderInbox
	}

	var restored model.Mail
	body := struct {
		Folder model.Folder `json:"folder"`
	}{Folder: target}

	err := s.api.Patch(ctx, "/mail/restore/"+url.PathEscape(id), body, &restored)
	if err != nil {
		return userError(err, msgRestoreFailed)
	}

	s.mu.Lock()
	s.mails = applyMutation(s.mails, id, opRemove, nil)
	if s.selected != nil && s.selected.ID == id {
		s.selected = &restored
	}
	s.mu.Unlock()

	return nil
}

// EmptyTrash permanently deletes everything in trash. When the trash folder
// is open the listing and selection are cleared.
func (s *Store) EmptyTrash(ctx context.Context) error {
	if err := s.api.Delete(ctx, "/mail/trash"); err != nil {
		return userError(err, msgTrashFailed)
	}

	s.mu.Lock()
	if s.folder == model.FolderTrash {
		s.mails = []model.Mail{}
		s.selected = nil
	}
	s.mu.Unlock()

	return nil
}

// GenerateFormal asks the server's AI endpoint to rewrite the message in a
// formal register.
func (s *Store) GenerateFormal(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", errors.New("Nothing to formalize")
	}

	body := struct {
		Message string `json:"message"`
	}{Message: message}
	var result struct {
		Message string `json:"message"`
	}

	if err := s.api.Post(ctx, "/mail/generate-formal", body, &result); err != nil {
		return "", userError(err, msgGenerateFailed)
	}
	return result.Message, nil
}

