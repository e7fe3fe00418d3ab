package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeStore records every call so tests can assert on the forwarded patches.
type fakeStore struct {
	mu      sync.Mutex
	nextID  int64
	records map[int64]Address
	patches []AddressPatch
	failOn  map[string]error // keyed by last name
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[int64]Address), failOn: make(map[string]error)}
}

func (f *fakeStore) FetchAll(ctx context.Context) ([]Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Address, 0, len(f.records))
	for _, a := range f.records {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeStore) Get(ctx context.Context, id int64) (Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.records[id]
	if !ok {
		return Address{}, ErrNotFound
	}
	return a, nil
}

func (f *fakeStore) Insert(ctx context.Context, rec NewAddress) (Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failOn[rec.LastName]; err != nil {
		return Address{}, err
	}
	f.nextID++
	a := Address{
		ID:          f.nextID,
		FirstName:   rec.FirstName,
		LastName:    rec.LastName,
		Street:      rec.Street,
		ApartmentNo: rec.ApartmentNo,
		City:        rec.City,
		PostalCode:  rec.PostalCode,
		Description: rec.Description,
		LabelMarked: rec.LabelMarked,
		CreatedAt:   time.Now(),
	}
	f.records[a.ID] = a
	return a, nil
}

func (f *fakeStore) Update(ctx context.Context, id int64, patch AddressPatch) (Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.records[id]
	if !ok {
		return Address{}, ErrNotFound
	}
	f.patches = append(f.patches, patch)
	a = patch.Apply(a)
	f.records[id] = a
	return a, nil
}

func importCSV(t *testing.T, svc *Service, lines ...string) *ImportSummary {
	t.Helper()
	summary, err := svc.Import(context.Background(), ImportRequest{
		Filename: "adresy.csv",
		Data:     csvOf(lines...),
	})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	return summary
}

func TestService_Import_LabelFlagKeepsDescription(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)

	summary := importCSV(t, svc,
		"first_name;last_name;street;apartment_no;city;postal_code;uwagi;label_marked",
		"Jan;Kowalski;Długa;3;Lublin;20-806;dzwonić dwa razy;tak",
	)
	if summary.ImportedCount != 1 {
		t.Fatalf("ImportedCount = %d, want 1", summary.ImportedCount)
	}

	got, err := store.Get(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if !got.LabelMarked {
		t.Error("LabelMarked = false, want true")
	}
	if got.Description != "dzwonić dwa razy" {
		t.Errorf("Description = %q, want it preserved", got.Description)
	}

	if len(store.patches) != 1 {
		t.Fatalf("patches = %d, want 1", len(store.patches))
	}
	p := store.patches[0]
	if !p.Description.IsUnset() || !p.FirstName.IsUnset() || !p.PostalCode.IsUnset() {
		t.Error("flag update must leave every other field unset")
	}
	if v, ok := p.LabelMarked.Value(); !ok || !v {
		t.Error("flag update must set LabelMarked to true")
	}
}

func TestService_Import_UnmarkedRowsSkipUpdate(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)

	importCSV(t, svc,
		fullHeader,
		",Jan,Kowalski,Długa,,Lublin,20-806,,0",
	)
	if len(store.patches) != 0 {
		t.Errorf("patches = %d, want 0", len(store.patches))
	}
}

func TestService_Import_Summary(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)

	summary := importCSV(t, svc,
		fullHeader,
		",Jan,Kowalski,Długa,,Lublin,20-806,,1",
		",,Nowak,Polna,,Kraków,30-001,,0",
		",,,,,,,,",
		",Ewa,Zielińska,Leśna,,Gdańsk,80-001,opis,0",
	)

	if summary.ImportedCount != 2 {
		t.Errorf("ImportedCount = %d, want 2", summary.ImportedCount)
	}
	if summary.TotalRows != 4 {
		t.Errorf("TotalRows = %d, want 4", summary.TotalRows)
	}
	if len(summary.Errors) != 1 || summary.Errors[0].Row != 3 {
		t.Errorf("Errors = %+v, want one error on row 3", summary.Errors)
	}
	if summary.DetectedDelimiter != "," {
		t.Errorf("DetectedDelimiter = %q, want \",\"", summary.DetectedDelimiter)
	}
	if !summary.OptionalColumnsPresent {
		t.Error("OptionalColumnsPresent = false, want true")
	}
	if summary.ImportID == "" {
		t.Error("ImportID should be set")
	}
}

func TestService_Import_InsertFailureBecomesRowError(t *testing.T) {
	store := newFakeStore()
	store.failOn["Nowak"] = errors.New("duplicate key value violates unique constraint")
	svc := NewService(store, nil)

	summary := importCSV(t, svc,
		fullHeader,
		",,Kowalski,Długa,,Lublin,20-806,,0",
		",Anna,Nowak,Polna,,Kraków,30-001,,0",
		",Ewa,Zielińska,Leśna,,Gdańsk,80-001,,0",
	)

	if summary.ImportedCount != 1 {
		t.Errorf("ImportedCount = %d, want 1", summary.ImportedCount)
	}
	if len(summary.Errors) != 2 {
		t.Fatalf("Errors = %+v, want 2", summary.Errors)
	}
	if summary.Errors[0].Row != 2 || summary.Errors[1].Row != 3 {
		t.Errorf("errors should be ordered by row, got %+v", summary.Errors)
	}
	if !strings.Contains(summary.Errors[1].Message, "insert failed") {
		t.Errorf("Errors[1] = %q", summary.Errors[1].Message)
	}
}

func TestService_Import_StructuralFailureWritesNothing(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)

	_, err := svc.Import(context.Background(), ImportRequest{
		Filename: "adresy.csv",
		Data:     csvOf("first_name,last_name", "Jan,Kowalski"),
	})
	if !errors.Is(err, ErrStructural) {
		t.Fatalf("Import() error = %v, want structural", err)
	}
	if len(store.records) != 0 {
		t.Errorf("records = %d, want 0", len(store.records))
	}
}

func TestService_Import_RejectsNonCSV(t *testing.T) {
	svc := NewService(newFakeStore(), nil)
	_, err := svc.Import(context.Background(), ImportRequest{
		Filename:    "adresy.xlsx",
		ContentType: "application/octet-stream",
		Data:        csvOf(fullHeader),
	})
	if !errors.Is(err, ErrNotCSV) {
		t.Errorf("Import() error = %v, want ErrNotCSV", err)
	}
}

func TestService_Import_Busy(t *testing.T) {
	limiter := NewImportLimiter(1, 10*time.Millisecond)
	if !limiter.TryAcquire() {
		t.Fatal("TryAcquire failed")
	}
	defer limiter.Release()

	svc := NewService(newFakeStore(), limiter)
	_, err := svc.Import(context.Background(), ImportRequest{Filename: "a.csv", Data: csvOf(fullHeader)})
	if !errors.Is(err, ErrTooManyImports) {
		t.Errorf("Import() error = %v, want ErrTooManyImports", err)
	}
}

func TestService_Import_WaitsForSlot(t *testing.T) {
	limiter := NewImportLimiter(1, 5*time.Second)
	if !limiter.TryAcquire() {
		t.Fatal("TryAcquire failed")
	}

	svc := NewService(newFakeStore(), limiter)
	type result struct {
		summary *ImportSummary
		err     error
	}
	done := make(chan result, 1)
	go func() {
		s, err := svc.Import(context.Background(), ImportRequest{
			Filename: "a.csv",
			Data:     csvOf(fullHeader, ",Jan,Kowalski,Długa,,Lublin,20-806,,0"),
		})
		done <- result{s, err}
	}()

	select {
	case <-done:
		t.Fatal("Import() finished while every slot was taken")
	case <-time.After(50 * time.Millisecond):
	}

	limiter.Release()
	select {
	case r := <-done:
		if r.err != nil {
			t.Fatalf("Import() error = %v", r.err)
		}
		if r.summary.ImportedCount != 1 {
			t.Errorf("ImportedCount = %d, want 1", r.summary.ImportedCount)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Import() did not resume after the slot was released")
	}
	if got := limiter.Active(); got != 0 {
		t.Errorf("Active() = %d after import, want 0", got)
	}
}

func TestService_Import_CancelledContext(t *testing.T) {
	store := newFakeStore()
	limiter := NewImportLimiter(1, time.Second)
	svc := NewService(store, limiter)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// No row may be written under a cancelled context.
	_, err := svc.Import(ctx, ImportRequest{Filename: "a.csv", Data: csvOf(fullHeader, ",Jan,Kowalski,Długa,,Lublin,20-806,,0")})
	if err == nil {
		t.Fatal("Import() error = nil, want cancellation")
	}
	if len(store.records) != 0 {
		t.Errorf("records = %d, want 0", len(store.records))
	}
}

func TestService_ExportRoundTrip(t *testing.T) {
	source := newFakeStore()
	svc := NewService(source, nil)
	importCSV(t, svc,
		fullHeader,
		",Jan,Kowalski,Długa,3,Lublin,20-806,brama,1",
		",Anna,Nowak,Polna,,Kraków,30-001,,0",
	)

	records, err := svc.Addresses(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	specs, err := LookupFields(FieldNames()...)
	if err != nil {
		t.Fatal(err)
	}
	lines := []string{strings.Join(FieldNames(), ",")}
	for _, r := range records {
		cells := make([]string, len(specs))
		for i, s := range specs {
			cells[i] = s.Cell(r)
		}
		lines = append(lines, strings.Join(cells, ","))
	}

	target := newFakeStore()
	importCSV(t, NewService(target, nil), lines...)

	again, err := NewService(target, nil).Addresses(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != len(records) {
		t.Fatalf("round trip records = %d, want %d", len(again), len(records))
	}
	for i := range records {
		a, b := records[i], again[i]
		a.ID, b.ID = 0, 0
		a.CreatedAt, b.CreatedAt = time.Time{}, time.Time{}
		a.UpdatedAt, b.UpdatedAt = time.Time{}, time.Time{}
		if a != b {
			t.Errorf("record %d = %+v, want %+v", i, b, a)
		}
	}
}

func TestService_LabelAddresses(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)
	importCSV(t, svc,
		fullHeader,
		",Jan,Kowalski,Długa,,Lublin,20-806,,1",
		",Anna,Nowak,Polna,,Kraków,30-001,,0",
		",Ewa,Adamska,Leśna,,Gdańsk,80-001,,yes",
	)

	got, err := svc.LabelAddresses(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].LastName != "Adamska" || got[1].LastName != "Kowalski" {
		t.Errorf("LabelAddresses() = %+v, want Adamska then Kowalski", got)
	}
}

func TestService_AddressNotFound(t *testing.T) {
	svc := NewService(newFakeStore(), nil)
	_, err := svc.Address(context.Background(), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Address() error = %v, want ErrNotFound", err)
	}
}
