package session

import "errors"

var ErrInvalidSession = errors.New("session: invalid session")
