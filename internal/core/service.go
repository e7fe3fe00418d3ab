package core

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/JonMunkholm/addrbook/internal/logging"
	"github.com/google/uuid"
)

// Service ties the import pipeline and record queries to a store.
type Service struct {
	store   AddressStore
	limiter *ImportLimiter
}

// NewService creates a Service. A nil limiter gets the defaults.
func NewService(store AddressStore, limiter *ImportLimiter) *Service {
	if limiter == nil {
		limiter = NewImportLimiter(DefaultMaxConcurrentImports, DefaultImportWait)
	}
	return &Service{store: store, limiter: limiter}
}

// ImportRequest is one uploaded file.
type ImportRequest struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Import parses req and inserts every valid row.
//
// Rows are written one at a time without a surrounding transaction, so rows
// inserted before a failure stay committed. A record marked for labels is
// inserted first and then flagged with a second update that leaves every
// other column unset.
func (s *Service) Import(ctx context.Context, req ImportRequest) (*ImportSummary, error) {
	if !IsCSVUpload(req.Filename, req.ContentType) {
		return nil, ErrNotCSV
	}

	importID := uuid.NewString()
	logger := logging.WithFields(ctx, "import_id", importID, "file", req.Filename)

	if !s.limiter.TryAcquire() {
		logger.Info("import waiting for a slot",
			"active", s.limiter.Active(),
			"capacity", s.limiter.Capacity(),
		)
		if err := s.limiter.Acquire(ctx); err != nil {
			logger.Warn("import refused", "error", err)
			return nil, err
		}
	}
	defer s.limiter.Release()
	start := time.Now()

	parsed, err := Normalize(req.Data)
	if err != nil {
		logger.Warn("import rejected", "error", err)
		return nil, err
	}
	logger.Info("import started",
		"delimiter", string(parsed.Delimiter),
		"rows", parsed.TotalRows,
		"valid", len(parsed.Records),
	)

	errs := slices.Clone(parsed.Errors)
	imported := 0
	for _, rec := range parsed.Records {
		if err := ctx.Err(); err != nil {
			logger.Warn("import interrupted", "imported", imported, "error", err)
			return nil, fmt.Errorf("import interrupted after %d rows: %w", imported, err)
		}

		payload := rec.Address
		marked := payload.LabelMarked
		payload.LabelMarked = false

		stored, err := s.store.Insert(ctx, payload)
		if err != nil {
			logger.Debug("row insert failed", "row", rec.Row, "error", err)
			errs = append(errs, RowError{Row: rec.Row, Message: fmt.Sprintf("insert failed: %v", err)})
			continue
		}
		imported++

		if marked {
			if _, err := s.store.Update(ctx, stored.ID, AddressPatch{LabelMarked: Set(true)}); err != nil {
				logger.Debug("label flag update failed", "row", rec.Row, "id", stored.ID, "error", err)
				errs = append(errs, RowError{Row: rec.Row, Message: fmt.Sprintf("label flag update failed: %v", err)})
			}
		}
	}

	slices.SortStableFunc(errs, func(a, b RowError) int { return a.Row - b.Row })

	summary := NewImportSummary(parsed, imported, errs)
	summary.ImportID = importID

	logger.Info("import completed",
		"imported", summary.ImportedCount,
		"total_rows", summary.TotalRows,
		"errors", summary.ErrorCount,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return summary, nil
}

// Addresses returns every record in export order.
func (s *Service) Addresses(ctx context.Context) ([]Address, error) {
	records, err := s.store.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch addresses: %w", err)
	}
	if err := SortAddresses(records, DefaultOrder...); err != nil {
		return nil, err
	}
	return records, nil
}

// Address returns one record.
func (s *Service) Address(ctx context.Context, id int64) (Address, error) {
	a, err := s.store.Get(ctx, id)
	if err != nil {
		return Address{}, fmt.Errorf("get address %d: %w", id, err)
	}
	return a, nil
}

// LabelAddresses returns the records selected for label printing, in
// export order.
func (s *Service) LabelAddresses(ctx context.Context) ([]Address, error) {
	records, err := s.Addresses(ctx)
	if err != nil {
		return nil, err
	}
	return LabelMarked(records), nil
}

// Limiter exposes the import limiter for shutdown draining.
func (s *Service) Limiter() *ImportLimiter {
	return s.limiter
}
