package domain

import "strings"

// Identity mirrors the authenticated principal.
type Identity struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

// Validate reports whether every identity field is populated.
func (i *Identity) Validate() error {
	var missing []string
	if i.ID == 0 {
		missing = append(missing, "id")
	}
	if i.Email == "" {
		missing = append(missing, "email")
	}
	if i.FirstName == "" {
		missing = append(missing, "firstName")
	}
	if i.LastName == "" {
		missing = append(missing, "lastName")
	}
	if i.Role == "" {
		missing = append(missing, "role")
	}
	if len(missing) > 0 {
		return ErrSessionInvalid.WithDetails("identity missing " + strings.Join(missing, ", "))
	}
	return nil
}

// DisplayName returns "First Last".
func (i *Identity) DisplayName() string {
	return strings.TrimSpace(i.FirstName + " " + i.LastName)
}

// Session is the credential and identity of a logged-in principal.
//
// A nil *Session means logged out. A non-nil Session always carries both
// a credential and a complete identity; Validate enforces it at every
// boundary where a session is constructed.
type Session struct {
	Credential string   `json:"credential"`
	Identity   Identity `json:"identity"`
}

// NewSession builds and validates a session.
func NewSession(credential string, identity Identity) (*Session, error) {
	s := &Session{Credential: credential, Identity: identity}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks that the session is fully populated.
func (s *Session) Validate() error {
	if s == nil {
		return ErrSessionInvalid.WithDetails("nil session")
	}
	if strings.TrimSpace(s.Credential) == "" {
		return ErrSessionInvalid.WithDetails("empty credential")
	}
	return s.Identity.Validate()
}

// Clone returns a copy of the session. Clone of nil is nil.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// AuthorizationHeader returns the canonical bearer form of the credential.
func (s *Session) AuthorizationHeader() string {
	return BearerPrefix + s.Credential
}

// BearerPrefix is the scheme prefix of the Authorization header.
const BearerPrefix = "Bearer "
