package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/modernmail/mmail/internal/api"
	"github.com/modernmail/mmail/internal/app"
	"github.com/modernmail/mmail/internal/contacts"
	"github.com/modernmail/mmail/internal/credential"
	"github.com/modernmail/mmail/internal/mailbox"
	"github.com/modernmail/mmail/internal/model"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(),
		"path to the configuration file")
	serverURL := flag.String("server", "",
		"mail server base URL (overrides the config file)")
	flag.Parse()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mmail: %v\n", err)
		os.Exit(1)
	}
	if *serverURL != "" {
		cfg.Server.BaseURL = *serverURL
	}

	log, closeLog, err := openLogger(cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mmail: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	creds, err := credential.OpenKeyring()
	var credStore credential.Store = creds
	if err != nil {
		// A broken keyring backend degrades to an in-memory session that
		// lasts for this run only.
		log.Warn().Err(err).Msg("keyring unavailable, sessions will not persist")
		credStore = credential.NewMemoryStore()
	}

	client := api.NewClient(
		cfg.Server.BaseURL,
		time.Duration(cfg.Server.TimeoutSec)*time.Second,
		log,
	)
	store := mailbox.New(client, credStore, log)

	var contactStore *contacts.Store
	if cs, err := contacts.NewStore(cfg.ContactsDB); err != nil {
		log.Warn().Err(err).Msg("contacts database unavailable, suggestions disabled")
	} else {
		contactStore = cs
		defer cs.Close()
	}

	p := tea.NewProgram(
		app.New(store, contactStore, log),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "mmail: %v\n", err)
		os.Exit(1)
	}
}

// openLogger writes structured logs to the configured file; stdout belongs
// to the TUI.
func openLogger(path string) (zerolog.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("creating log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("opening log file %s: %w", path, err)
	}

	log := zerolog.New(f).With().Timestamp().Logger()
	return log, func() { _ = f.Close() }, nil
}
