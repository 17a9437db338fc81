package search

import "errors"

var (
	ErrNotFound  = errors.New("search not found")
	ErrNoCorpus  = errors.New("no corpus available")
	ErrBadStatus = errors.New("illegal status transition")
)
