package errors

import "errors"

var (
	ErrNotFound               = errors.New("not found")
	ErrInvalid                = errors.New("invalid")
	ErrInternal               = errors.New("internal")
	ErrConfigurationConflict  = errors.New("collection configuration conflict")
	ErrRetrievalUnavailable   = errors.New("retrieval unavailable")
	ErrTranslationUnavailable = errors.New("translation unavailable")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConfigurationConflict(err error) bool {
	return errors.Is(err, ErrConfigurationConflict)
}

func IsRetrievalUnavailable(err error) bool {
	return errors.Is(err, ErrRetrievalUnavailable)
}
