package mailbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/modernmail/mmail/internal/model"
)

// Credential slot keys. Both slots are always written and removed together.
const (
	tokenKey = "mmd-token"
	userKey  = "mmd-user"
)

// SetSession sets or clears the session atomically: a non-empty token
// persists both slots, an empty token removes both. The in-memory fields
// and the API client's bearer token follow the same rule.
func (s *Store) SetSession(token string, user *model.User) error {
	if token == "" {
		if err := s.clearSession(); err != nil {
			return err
		}
		s.mu.Lock()
		s.token = ""
		s.user = nil
		s.mu.Unlock()
		s.api.SetToken("")
		return nil
	}

	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encoding user profile: %w", err)
	}

	if err := s.creds.Set(tokenKey, token); err != nil {
		return fmt.Errorf("persisting session token: %w", err)
	}
	if err := s.creds.Set(userKey, string(raw)); err != nil {
		// Roll the token slot back so the slots never diverge.
		_ = s.creds.Delete(tokenKey)
		return fmt.Errorf("persisting user profile: %w", err)
	}

	s.mu.Lock()
	s.token = token
	if user != nil {
		u := *user
		s.user = &u
	} else {
		s.user = nil
	}
	s.mu.Unlock()

	s.api.SetToken(token)
	return nil
}

// clearSession removes both credential slots.
func (s *Store) clearSession() error {
	if err := s.creds.Delete(tokenKey); err != nil {
		return fmt.Errorf("clearing session token: %w", err)
	}
	if err := s.creds.Delete(userKey); err != nil {
		return fmt.Errorf("clearing user profile: %w", err)
	}
	return nil
}

// hydrate loads the session from the credential slots at startup. Storage
// may hold stale or partial data; anything missing, malformed, or expired
// leaves the store logged out and scrubs both slots.
func (s *Store) hydrate() {
	token, err := s.creds.Get(tokenKey)
	if err != nil || token == "" {
		return
	}

	if sessionExpired(token, time.Now()) {
		s.log.Info().Msg("persisted session expired, clearing")
		_ = s.clearSession()
		return
	}

	raw, err := s.creds.Get(userKey)
	if err != nil {
		s.log.Warn().Msg("session token without user profile, clearing")
		_ = s.clearSession()
		return
	}

	var user model.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		s.log.Warn().Err(err).Msg("malformed user profile, clearing session")
		_ = s.clearSession()
		return
	}

	s.mu.Lock()
	s.token = token
	s.user = &user
	s.mu.Unlock()

	s.api.SetToken(token)
	s.log.Info().Str("email", user.Email).Msg("session restored")
}

// sessionExpired reports whether the token is a JWT whose exp claim is in
// the past. The signature is not verified; the server remains the
// authority, this only avoids starting with a session that is certain to be
// rejected. Opaque tokens and JWTs without exp never count as expired.
func sessionExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Time.Before(now)
}
