package registry

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindNotFound Kind = iota + 1
	KindAlreadyExists
	KindAlreadyClaimed
	KindNotOwner
	KindPersistence
	KindInvalid
)

var (
	ErrNotFound       = errors.New("not found")
	ErrAlreadyExists  = errors.New("already exists")
	ErrAlreadyClaimed = errors.New("already claimed")
	ErrNotOwner       = errors.New("not the claimant")
	ErrPersistence    = errors.New("could not persist registry")
	ErrInvalid        = errors.New("invalid name")
)

var sentinels = map[Kind]error{
	KindNotFound:       ErrNotFound,
	KindAlreadyExists:  ErrAlreadyExists,
	KindAlreadyClaimed: ErrAlreadyClaimed,
	KindNotOwner:       ErrNotOwner,
	KindPersistence:    ErrPersistence,
	KindInvalid:        ErrInvalid,
}

func (kind Kind) String() string {
	if err, ok := sentinels[kind]; ok {
		return err.Error()
	}
	return fmt.Sprintf("kind(%d)", int(kind))
}

// Error returned by every registry operation. Challenge is empty when
// the error is about the event itself. Claimant is filled in for
// ownership conflicts so callers can say who holds the challenge
type Error struct {
	Kind      Kind
	Event     string
	Challenge string
	Claimant  string
	Err       error
}

func (e *Error) Error() string {
	subject := fmt.Sprintf("event %q", e.Event)
	if e.Challenge != "" {
		subject = fmt.Sprintf("challenge %q in event %q", e.Challenge, e.Event)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", subject, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", subject, e.Kind)
}

func (e *Error) Is(target error) bool {
	return sentinels[e.Kind] == target
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Kind of a registry error, or zero if err does not come from the registry
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
