package utils

import "errors"

var (
	ErrorRecordNotFound = errors.New("record not found")
	ErrorNotReady       = errors.New("service not ready")
)
