package utils

import (
	"errors"
	"time"
)

// DefaultUserAgent identifies every request; symbol servers reject unknown agents.
const DefaultUserAgent = "Mozilla/5.0 (X11; Fedora; Linux x86_64; rv:66.0) Gecko/20100101 Firefox/66.0"

const (
	DefaultBufferSize = 512 * 1024 // stream copy buffer
	DefaultChunkSize  = 512 * 1024 // width of one range request
	DefaultBaseURL    = "https://msdl.microsoft.com/download/symbols"
	DefaultLogFile    = "symfetch.log"
	DefaultTimeout    = 3 * time.Minute
	DefaultKATimeout  = 90 * time.Second
)

var ErrInvalidConfig = errors.New("invalid configuration")
