// Package eml exports a mail to an RFC 5322 message file for use outside
// the client.
package eml

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/modernmail/mmail/internal/model"
)

// Write serializes the mail as an RFC 5322 message. When both a plain and
// an HTML body are present they are written as multipart/alternative.
func Write(w io.Writer, m model.Mail) error {
	var h mail.Header
	h.Set("From", m.From)
	h.Set("To", m.To)
	if m.Cc != "" {
		h.Set("Cc", m.Cc)
	}
	h.SetSubject(m.Subject)
	if !m.CreatedAt.IsZero() {
		h.SetDate(m.CreatedAt)
	} else {
		h.SetDate(time.Now())
	}

	mw, err := mail.CreateWriter(w, h)
	if err != nil {
		return fmt.Errorf("creating message writer: %w", err)
	}
	defer mw.Close()

	iw, err := mw.CreateInline()
	if err != nil {
		return fmt.Errorf("creating inline part: %w", err)
	}
	defer iw.Close()

	var th mail.InlineHeader
	th.Set("Content-Type", "text/plain; charset=utf-8")
	tp, err := iw.CreatePart(th)
	if err != nil {
		return fmt.Errorf("creating text part: %w", err)
	}
	if _, err := io.WriteString(tp, m.Body); err != nil {
		tp.Close()
		return fmt.Errorf("writing text body: %w", err)
	}
	tp.Close()

	if m.HTMLBody != "" {
		var hh mail.InlineHeader
		hh.Set("Content-Type", "text/html; charset=utf-8")
		hp, err := iw.CreatePart(hh)
		if err != nil {
			return fmt.Errorf("creating html part: %w", err)
		}
		if _, err := io.WriteString(hp, m.HTMLBody); err != nil {
			hp.Close()
			return fmt.Errorf("writing html body: %w", err)
		}
		hp.Close()
	}

	return nil
}

// Export writes the mail to <dir>/<slug>.eml and returns the file path.
func Export(dir string, m model.Mail) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, fileName(m))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := Write(f, m); err != nil {
		return "", err
	}
	return path, nil
}

// fileName derives a filesystem-safe name from the subject, suffixed with
// the mail id to keep exports unique.
func fileName(m model.Mail) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '-'
		default:
			return -1
		}
	}, m.Subject)

	slug = strings.Trim(slug, "-")
	if len(slug) > 40 {
		slug = slug[:40]
	}
	if slug == "" {
		slug = "mail"
	}

	id := m.ID
	if len(id) > 8 {
		id = id[len(id)-8:]
	}
	return slug + "-" + id + ".eml"
}
