package megadoc

import "errors"

var (
	ErrNotFound          = errors.New("megadoc not found")
	ErrBadStatus         = errors.New("illegal status transition")
	ErrUnsupportedFiletype = errors.New("unsupported megadoc filetype")
)
