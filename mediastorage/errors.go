package mediastorage

import "fmt"

// NotFoundError reports a referenced stored file (or record) that does
// not exist.
type NotFoundError struct {
	Disk string
	Path string
}

func (e *NotFoundError) Error() string {
	switch {
	case e.Path == "":
		return "media record does not exist"
	case e.Disk != "":
		return fmt.Sprintf("file %s does not exist on disk %s", e.Path, e.Disk)
	default:
		return fmt.Sprintf("%s does not exist", e.Path)
	}
}

// IntakeError reports a malformed or unreadable file reference in a
// create batch.
type IntakeError struct {
	Name string
	Err  error
}

func (e *IntakeError) Error() string {
	return fmt.Sprintf("failed to resolve file %s: %v", e.Name, e.Err)
}

func (e *IntakeError) Unwrap() error {
	return e.Err
}

// ConversionError reports a failed render, encode or store of a
// derivative. The primary file is never substituted silently.
type ConversionError struct {
	Path string
	Err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("failed to generate conversion %s: %v", e.Path, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// PersistenceError reports a record-store write failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("media store %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
