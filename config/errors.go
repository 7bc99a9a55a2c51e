package config

import "errors"

var (
	// ErrInvalidConfig indicates the configuration failed validation.
	ErrInvalidConfig = errors.New("config: invalid configuration")

	// ErrInvalidEnv indicates an environment variable could not be parsed.
	ErrInvalidEnv = errors.New("config: invalid environment variable")

	// ErrReadFile indicates the YAML file could not be read or decoded.
	ErrReadFile = errors.New("config: cannot read config file")

	// ErrResolveKey indicates the API key reference could not be resolved.
	ErrResolveKey = errors.New("config: cannot resolve api key")
)
