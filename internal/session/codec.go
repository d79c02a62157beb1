package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yndnr/adminctl/internal/core/domain"
	"github.com/yndnr/adminctl/pkg/crypto/adaptive"
)

var errPartialState = errors.New("partial session state")

// encode renders a session into its two slot values.
func (s *Store) encode(sess *domain.Session) (credential, identity []byte, err error) {
	identity, err = json.Marshal(sess.Identity)
	if err != nil {
		return nil, nil, fmt.Errorf("encode identity: %w", err)
	}

	if s.passphrase == "" {
		return []byte(sess.Credential), identity, nil
	}

	blob, err := adaptive.Seal(s.passphrase, []byte(sess.Credential), s.credentialKey())
	if err != nil {
		return nil, nil, fmt.Errorf("seal credential: %w", err)
	}
	return []byte(blob), identity, nil
}

// decode rebuilds a session from its slot values.
// Both nil means logged out; anything short of a valid session is an error.
func (s *Store) decode(credential, identity []byte) (*domain.Session, error) {
	if credential == nil && identity == nil {
		return nil, nil
	}
	if credential == nil || identity == nil {
		return nil, errPartialState
	}

	raw := string(credential)
	switch {
	case s.passphrase != "":
		plain, err := adaptive.Open(s.passphrase, raw, s.credentialKey())
		if err != nil {
			return nil, fmt.Errorf("open credential: %w", err)
		}
		raw = string(plain)
	case adaptive.IsSealed(raw):
		return nil, errors.New("credential is sealed but no passphrase is configured")
	}

	var id domain.Identity
	if err := json.Unmarshal(identity, &id); err != nil {
		return nil, fmt.Errorf("decode identity: %w", err)
	}

	return domain.NewSession(raw, id)
}
