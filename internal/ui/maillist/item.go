package maillist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/modernmail/mmail/internal/model"
	"github.com/modernmail/mmail/internal/theme"
)

// MailItem wraps a model.Mail so it can be used in a bubbles/list.
type MailItem struct {
	Mail model.Mail

	// Folder is the listing the item belongs to; sent and drafts show the
	// recipient instead of the sender.
	Folder model.Folder
}

// FilterValue returns the string used for fuzzy filtering.
func (i MailItem) FilterValue() string { return i.Mail.Subject }

// Title returns the mail subject for the list.
func (i MailItem) Title() string { return i.Mail.Subject }

// Description returns a short summary line for the list.
func (i MailItem) Description() string {
	parts := []string{
		i.correspondent(),
		relativeTime(i.Mail.CreatedAt),
	}
	return strings.Join(parts, " | ")
}

// correspondent returns the address shown next to the subject: the
// recipient for outgoing folders, the sender everywhere else.
func (i MailItem) correspondent() string {
	switch i.Folder {
	case model.FolderSent, model.FolderDrafts, model.FolderScheduled:
		if i.Mail.To == "" {
			return "(no recipient)"
		}
		return "To: " + i.Mail.To
	default:
		return i.Mail.From
	}
}

// ItemDelegate implements list.ItemDelegate for rendering mail rows.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single mail row.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	mi, ok := item.(MailItem)
	if !ok {
		return
	}

	isSelected := index == m.Index()

	correspondent := truncate(mi.correspondent(), 28)

	subject := mi.Mail.Subject
	if subject == "" {
		subject = "(No subject)"
	}

	markers := ""
	if mi.Mail.HasAttachments() {
		markers += lipgloss.NewStyle().
			Foreground(theme.ColorYellow).
			Render(" [a]")
	}
	if mi.Mail.IsScheduled {
		when := ""
		if mi.Mail.ScheduledAt != nil {
			when = mi.Mail.ScheduledAt.Format(" Jan 02 15:04")
		}
		markers += lipgloss.NewStyle().
			Foreground(theme.ColorMagenta).
			Render(" [scheduled" + when + "]")
	}

	timeStr := theme.DimmedStyle.Render(relativeTime(mi.Mail.CreatedAt))

	line := fmt.Sprintf(
		"%-28s  %s%s  %s",
		correspondent, subject, markers, timeStr,
	)

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// truncate shortens s to at most max runes, ending in an ellipsis. Rune
// boundaries are respected so multi-byte names and addresses stay intact.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < 0:
		return t.Format("Jan 02 15:04")
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case d < 24*time.Hour:
		hrs := int(d.Hours())
		if hrs == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hrs)
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		return t.Format("Jan 02, 2006")
	}
}
