package scan

import "errors"

var (
	ErrNotFound  = errors.New("scan not found")
	ErrDuplicate = errors.New("scan already exists for album and index")
)
