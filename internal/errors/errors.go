package errors

import (
	"fmt"
	"time"
)

// Error types for the datamut scanner
type ErrorType string

const (
	// Scan errors
	ErrorTypeScan  ErrorType = "scan"
	ErrorTypeParse ErrorType = "parse"

	// File errors
	ErrorTypeFileNotFound ErrorType = "file_not_found"
	ErrorTypeFileTooLarge ErrorType = "file_too_large"
	ErrorTypePermission   ErrorType = "permission"

	// Rule catalogue errors
	ErrorTypeCatalog ErrorType = "catalog"

	// Detector errors
	ErrorTypeDetector ErrorType = "detector"

	// Configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// ScanError represents an error during the scanning process
type ScanError struct {
	Type        ErrorType
	FilePath    string
	Operation   string
	Underlying  error
	Timestamp   time.Time
	Recoverable bool
}

// NewScanError creates a new scan error with context
func NewScanError(op string, err error) *ScanError {
	return &ScanError{
		Type:       ErrorTypeScan,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// WithFile adds file information to the error
func (e *ScanError) WithFile(path string) *ScanError {
	e.FilePath = path
	return e
}

// WithRecoverable marks the error as recoverable
func (e *ScanError) WithRecoverable(recoverable bool) *ScanError {
	e.Recoverable = recoverable
	return e
}

// Error implements the error interface
func (e *ScanError) Error() string {
	if e.FilePath != "" {
		return fmt.Sprintf("%s %s failed for %s: %v", e.Type, e.Operation, e.FilePath, e.Underlying)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Type, e.Operation, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/As
func (e *ScanError) Unwrap() error {
	return e.Underlying
}

// IsRecoverable checks if the scan can continue past this error
func (e *ScanError) IsRecoverable() bool {
	return e.Recoverable
}

// ParseError represents a failure to parse a source file into a tree
type ParseError struct {
	Type       ErrorType
	FilePath   string
	Underlying error
	Timestamp  time.Time
}

// NewParseError creates a new parse error
func NewParseError(path string, err error) *ParseError {
	return &ParseError{
		Type:       ErrorTypeParse,
		FilePath:   path,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s: %v", e.FilePath, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ParseError) Unwrap() error {
	return e.Underlying
}

// DetectorError represents a detector that panicked or failed mid-traversal.
// The orchestrator recovers these; partial findings from the detector are kept.
type DetectorError struct {
	Type      ErrorType
	Detector  string
	FilePath  string
	Panic     any
	Timestamp time.Time
}

// NewDetectorError creates a new detector error from a recovered panic value
func NewDetectorError(detector, path string, recovered any) *DetectorError {
	return &DetectorError{
		Type:      ErrorTypeDetector,
		Detector:  detector,
		FilePath:  path,
		Panic:     recovered,
		Timestamp: time.Now(),
	}
}

// Error implements the error interface
func (e *DetectorError) Error() string {
	return fmt.Sprintf("detector %s failed for %s: %v", e.Detector, e.FilePath, e.Panic)
}

// CatalogError represents a rule bundle that could not be loaded or validated
type CatalogError struct {
	Type       ErrorType
	BundlePath string
	Library    string
	Underlying error
	Timestamp  time.Time
}

// NewCatalogError creates a new catalogue error
func NewCatalogError(bundlePath, library string, err error) *CatalogError {
	return &CatalogError{
		Type:       ErrorTypeCatalog,
		BundlePath: bundlePath,
		Library:    library,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *CatalogError) Error() string {
	if e.Library != "" {
		return fmt.Sprintf("catalog bundle %s (library %s) failed: %v", e.BundlePath, e.Library, e.Underlying)
	}
	return fmt.Sprintf("catalog bundle %s failed: %v", e.BundlePath, e.Underlying)
}

// Unwrap returns the underlying error
func (e *CatalogError) Unwrap() error {
	return e.Underlying
}
