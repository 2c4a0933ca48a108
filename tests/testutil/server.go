// Package testutil provides an in-memory stand-in for the Modern Mail API
// so store behavior can be exercised over real HTTP round trips.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/modernmail/mmail/internal/api"
	"github.com/modernmail/mmail/internal/credential"
	"github.com/modernmail/mmail/internal/mailbox"
	"github.com/modernmail/mmail/internal/model"
)

// TestToken is the session token the fake server issues on every
// successful authentication.
const TestToken = "test-session-token"

// MailServer is a fake Modern Mail API backed by in-memory state.
type MailServer struct {
	Server *httptest.Server

	mu      sync.Mutex
	nextID  int
	mails   map[string]*storedMail
	failMsg string
	failNum int
	user    model.User
}

type storedMail struct {
	mail   model.Mail
	folder model.Folder
}

// NewMailServer starts a fake mail API and shuts it down when the test
// completes.
func NewMailServer(t *testing.T) *MailServer {
	t.Helper()

	s := &MailServer{
		mails: make(map[string]*storedMail),
		user: model.User{
			ID:    "user-1",
			Name:  "Test User",
			Email: "test@example.com",
		},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Server.Close)
	return s
}

// URL returns the base URL of the fake API.
func (s *MailServer) URL() string {
	return s.Server.URL
}

// FailNext makes the next n requests fail with a 500 and the given
// message in the JSON error body. An empty message sends an empty body.
func (s *MailServer) FailNext(n int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNum = n
	s.failMsg = message
}

// Seed inserts a mail into the given folder and returns its ID.
func (s *MailServer) Seed(folder model.Folder, mail model.Mail) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if mail.ID == "" {
		mail.ID = s.newID()
	}
	if mail.CreatedAt.IsZero() {
		mail.CreatedAt = time.Now()
	}
	s.mails[mail.ID] = &storedMail{mail: mail, folder: folder}
	return mail.ID
}

// FolderIDs returns the IDs currently stored in a folder.
func (s *MailServer) FolderIDs(folder model.Folder) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for id, sm := range s.mails {
		if sm.folder == folder {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *MailServer) newID() string {
	s.nextID++
	return fmt.Sprintf("mail-%d", s.nextID)
}

func (s *MailServer) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.failNum > 0 {
		s.failNum--
		msg := s.failMsg
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		if msg != "" {
			json.NewEncoder(w).Encode(map[string]string{"message": msg})
		}
		return
	}
	s.mu.Unlock()

	path := r.URL.Path
	switch {
	case r.Method == http.MethodPost && strings.HasPrefix(path, "/auth/"):
		s.handleAuth(w, r)
	case r.Method == http.MethodGet && path == "/mail":
		s.handleList(w, r)
	case r.Method == http.MethodPost && path == "/mail/draft":
		s.handleDraft(w, r)
	case r.Method == http.MethodPost && path == "/mail/send":
		s.handleSend(w, r)
	case r.Method == http.MethodPost && path == "/mail/generate-formal":
		s.handleGenerateFormal(w, r)
	case r.Method == http.MethodPatch && strings.HasPrefix(path, "/mail/delete/"):
		s.handleDelete(w, r, strings.TrimPrefix(path, "/mail/delete/"))
	case r.Method == http.MethodPatch && strings.HasPrefix(path, "/mail/restore/"):
		s.handleRestore(w, r, strings.TrimPrefix(path, "/mail/restore/"))
	case r.Method == http.MethodDelete && path == "/mail/trash":
		s.handleEmptyTrash(w)
	case r.Method == http.MethodGet && strings.HasPrefix(path, "/mail/"):
		s.handleDetail(w, strings.TrimPrefix(path, "/mail/"))
	case r.Method == http.MethodPost && path == "/upload/multiple":
		s.handleUpload(w, r)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *MailServer) handleAuth(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if creds.Email == "" || creds.Password == "" {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	s.mu.Lock()
	user := s.user
	user.Email = creds.Email
	s.mu.Unlock()

	writeJSON(w, model.AuthResult{Token: TestToken, User: user})
}

func (s *MailServer) handleList(w http.ResponseWriter, r *http.Request) {
	folder := model.ParseFolder(r.URL.Query().Get("folder"))

	s.mu.Lock()
	mails := []model.Mail{}
	for _, sm := range s.mails {
		if sm.folder == folder {
			mails = append(mails, sm.mail)
		}
	}
	s.mu.Unlock()

	writeJSON(w, mails)
}

func (s *MailServer) handleDetail(w http.ResponseWriter, id string) {
	s.mu.Lock()
	sm, ok := s.mails[id]
	var mail model.Mail
	if ok {
		mail = sm.mail
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "Mail not found")
		return
	}
	writeJSON(w, mail)
}

func (s *MailServer) handleDraft(w http.ResponseWriter, r *http.Request) {
	var payload model.DraftPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	id := payload.ID
	if id == "" {
		id = s.newID()
	}
	mail := model.Mail{
		ID:          id,
		From:        s.user.Email,
		To:          payload.To,
		Cc:          payload.Cc,
		Bcc:         payload.Bcc,
		Subject:     payload.Subject,
		Body:        payload.Body,
		Attachments: payload.Attachments,
		CreatedAt:   time.Now(),
	}
	s.mails[id] = &storedMail{mail: mail, folder: model.FolderDrafts}
	s.mu.Unlock()

	writeJSON(w, mail)
}

func (s *MailServer) handleSend(w http.ResponseWriter, r *http.Request) {
	var payload model.SendPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if payload.To == "" {
		writeError(w, http.StatusBadRequest, "Recipient is required")
		return
	}

	s.mu.Lock()
	if payload.DraftID != "" {
		delete(s.mails, payload.DraftID)
	}
	id := s.newID()
	folder := model.FolderSent
	mail := model.Mail{
		ID:          id,
		From:        s.user.Email,
		To:          payload.To,
		Cc:          payload.Cc,
		Bcc:         payload.Bcc,
		Subject:     payload.Subject,
		Body:        payload.Body,
		Attachments: payload.Attachments,
		CreatedAt:   time.Now(),
	}
	if payload.ScheduledAt != nil {
		folder = model.FolderScheduled
		mail.IsScheduled = true
		mail.ScheduledAt = payload.ScheduledAt
	}
	s.mails[id] = &storedMail{mail: mail, folder: folder}
	s.mu.Unlock()

	writeJSON(w, mail)
}

func (s *MailServer) handleDelete(w http.ResponseWriter, _ *http.Request, id string) {
	s.mu.Lock()
	sm, ok := s.mails[id]
	if ok {
		if sm.folder == model.FolderTrash {
			delete(s.mails, id)
		} else {
			sm.folder = model.FolderTrash
		}
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "Mail not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *MailServer) handleRestore(w http.ResponseWriter, r *http.Request, id string) {
	var body struct {
		Folder model.Folder `json:"folder"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	sm, ok := s.mails[id]
	var mail model.Mail
	if ok {
		sm.folder = model.ParseFolder(string(body.Folder))
		mail = sm.mail
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "Mail not found")
		return
	}
	writeJSON(w, mail)
}

func (s *MailServer) handleEmptyTrash(w http.ResponseWriter) {
	s.mu.Lock()
	for id, sm := range s.mails {
		if sm.folder == model.FolderTrash {
			delete(s.mails, id)
		}
	}
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *MailServer) handleGenerateFormal(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	writeJSON(w, map[string]string{
		"message": "Dear recipient,\n\n" + body.Message + "\n\nKind regards",
	})
}

func (s *MailServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Files []struct {
			FileName string `json:"fileName"`
			FileData string `json:"fileData"`
			FileType string `json:"fileType"`
		} `json:"files"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	files := make([]model.Attachment, 0, len(body.Files))
	for i, f := range body.Files {
		files = append(files, model.Attachment{
			FileName: f.FileName,
			URL:      fmt.Sprintf("%s/files/%d/%s", s.Server.URL, i, f.FileName),
			FileSize: int64(len(f.FileData)),
			FileType: f.FileType,
		})
	}
	writeJSON(w, map[string][]model.Attachment{"files": files})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// NewTestStore creates a mailbox store wired to the fake server with an
// in-memory credential store.
func NewTestStore(t *testing.T, server *MailServer) (*mailbox.Store, *credential.MemoryStore) {
	t.Helper()

	creds := credential.NewMemoryStore()
	client := api.NewClient(server.URL(), 5*time.Second, zerolog.Nop())
	return mailbox.New(client, creds, zerolog.Nop()), creds
}
