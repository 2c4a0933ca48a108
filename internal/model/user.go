package model

// User is the profile of the authenticated account as returned by the auth
// endpoints and persisted alongside the session token.
type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthMode selects the auth endpoint used by Authenticate.
type AuthMode string

const (
	AuthLogin    AuthMode = "login"
	AuthRegister AuthMode = "register"
)

// Credentials is the body of POST /auth/login and /auth/register.
// Name is only used by register.
type Credentials struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is the response of both auth endpoints.
type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
