package opensearch

import "errors"

var (
	ErrNoAddresses       = errors.New("opensearch: no cluster addresses configured")
	ErrConnectionFailed  = errors.New("opensearch connection failed")
	ErrHealthcheckFailed = errors.New("opensearch healthcheck failed")
	ErrIndexFailed       = errors.New("opensearch: failed to index impression")
)
