// Package document provides the shared spreadsheet document that operators
// use to request reconciliations and read results.
package document

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/entitleops/licensesync/internal/shared/config"
	"github.com/entitleops/licensesync/internal/shared/logger"
)

// Supported backends.
const (
	BackendSheets = "sheets"
	BackendXLSX   = "xlsx"
	BackendMemory = "memory"
)

var (
	// ErrInvalidAddress is returned for a malformed A1 address.
	ErrInvalidAddress = errors.New("invalid cell address")

	// ErrDocumentNotFound is returned when a document cannot be opened.
	ErrDocumentNotFound = errors.New("document not found")
)

// Target selects a document and the sheet within it.
type Target struct {
	DocumentID string `json:"document_id"`
	Sheet      string `json:"sheet"`
}

// IsZero reports whether no document was configured.
func (t Target) IsZero() bool {
	return strings.TrimSpace(t.DocumentID) == ""
}

func (t Target) String() string {
	if t.Sheet == "" {
		return t.DocumentID
	}
	return t.DocumentID + "!" + t.Sheet
}

// Document reads and writes cells of one sheet. Addresses use A1 notation
// and may carry an explicit "Sheet!" prefix; otherwise the target sheet is
// used. Range addresses may leave the end row open, as in "A14:G".
type Document interface {
	ReadCell(ctx context.Context, addr string) (string, error)
	WriteCell(ctx context.Context, addr string, value any) error
	WriteRange(ctx context.Context, addr string, rows [][]any) error
	ClearRange(ctx context.Context, addr string) error
}

// Provider opens documents.
type Provider interface {
	Open(ctx context.Context, target Target) (Document, error)
}

// NewProvider builds the provider for the configured backend.
func NewProvider(ctx context.Context, cfg config.DocumentConfig, log logger.Interface) (Provider, error) {
	switch strings.ToLower(cfg.Backend) {
	case BackendSheets:
		return NewSheetsProvider(ctx, cfg.CredentialsFile, log)
	case BackendXLSX:
		return NewXLSXProvider(log), nil
	case BackendMemory, "":
		return NewMemoryProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported document backend %q", cfg.Backend)
	}
}
