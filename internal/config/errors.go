package config

import "errors"

// ErrInvalid is returned when the configuration fails validation.
var ErrInvalid = errors.New("config: invalid configuration")
