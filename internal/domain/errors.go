package domain

import "errors"

var (
	ErrUpstreamFailed      = errors.New("upstream failed")
	ErrUncacheableResponse = errors.New("response must not be shared")
)
