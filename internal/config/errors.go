package config

import "fmt"

type MissingConfigError struct {
	Path string
}

func (e *MissingConfigError) Error() string {
	return fmt.Sprintf("runner config %s does not exist", e.Path)
}

type InvalidYAMLError struct {
	Wrapped error
}

func (e *InvalidYAMLError) Error() string {
	return fmt.Sprintf("runner config is not a valid yaml document: %v", e.Wrapped)
}

func (e *InvalidYAMLError) Unwrap() error {
	return e.Wrapped
}

type MissingPropertyError struct {
	Property string
}

func (e *MissingPropertyError) Error() string {
	return fmt.Sprintf("runner config is missing required property: %s", e.Property)
}

type InvalidPropertyError struct {
	Property string
	Value    string
	Reason   string
}

func (e *InvalidPropertyError) Error() string {
	return fmt.Sprintf("runner config property %s has invalid value '%s': %s", e.Property, e.Value, e.Reason)
}
