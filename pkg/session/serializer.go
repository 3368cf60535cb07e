package session

import (
	"encoding/json"
	"fmt"
)

// Serializer converts sessions to and from store values.
type Serializer interface {
	Marshal(s *Session) ([]byte, error)
	Unmarshal(data []byte) (*Session, error)
}

// Cipher seals store values at rest. *secrets.Cipher satisfies it.
type Cipher interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(sealed []byte) ([]byte, error)
}

// JSONSerializer writes the session JSON document.
type JSONSerializer struct{}

func (JSONSerializer) Marshal(s *Session) ([]byte, error) {
	if s == nil {
		return nil, ErrInvalidSession
	}
	return json.Marshal(s)
}

func (JSONSerializer) Unmarshal(data []byte) (*Session, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty value", ErrInvalidSession)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}
	return &s, nil
}

// EncryptedSerializer seals the output of another serializer.
type EncryptedSerializer struct {
	Next   Serializer
	Cipher Cipher
}

func (e EncryptedSerializer) Marshal(s *Session) ([]byte, error) {
	raw, err := e.Next.Marshal(s)
	if err != nil {
		return nil, err
	}
	return e.Cipher.Encrypt(raw)
}

func (e EncryptedSerializer) Unmarshal(data []byte) (*Session, error) {
	raw, err := e.Cipher.Decrypt(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}
	return e.Next.Unmarshal(raw)
}
