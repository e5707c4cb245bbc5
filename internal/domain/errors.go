package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrNoData            = errors.New("no data available")
	ErrRefreshInProgress = errors.New("refresh already in progress")
)
