package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/addrbook/internal/config"
	"github.com/JonMunkholm/addrbook/internal/core"
	"github.com/JonMunkholm/addrbook/internal/export"
	"github.com/JonMunkholm/addrbook/internal/layout"
	"github.com/JonMunkholm/addrbook/internal/store"
)

const importHeader = "first_name,last_name,street,apartment_no,city,postal_code,description,label_marked"

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{RequestTimeout: 10 * time.Second},
		Upload:   config.UploadConfig{MaxFileSize: 1 << 20, MaxConcurrent: 2, MaxWaitTime: time.Second, Timeout: time.Minute},
		Security: config.SecurityConfig{EnableCSP: true},
	}
}

func newTestServer(t *testing.T, mutate func(*config.Config)) (*Server, *store.Memory) {
	t.Helper()

	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	fonts := layout.NewFontRegistry(layout.FontCandidates{}, layout.WithRegistryLogger(quiet))
	printer := layout.NewPrinter(fonts, layout.Sender{Lines: []string{"Nadawca", "ul. Testowa 1"}}, "test",
		layout.WithClock(func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }))

	mem := store.NewMemory()
	svc := core.NewService(mem, core.NewImportLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime))
	srv := NewServer(cfg, svc, export.NewDefaultRegistry(fonts, cfg.Export.DisabledFormats...), printer)
	t.Cleanup(func() {
		for _, rl := range srv.limiters {
			rl.stop()
		}
	})
	return srv, mem
}

func do(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteString(fw, content); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/addresses/import", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return resp
}

func seed(t *testing.T, mem *store.Memory, marked ...bool) []core.Address {
	t.Helper()
	names := []string{"Kowalski", "Nowak", "Wiśniewska", "Zając"}
	var out []core.Address
	for i, m := range marked {
		a, err := mem.Insert(context.Background(), core.NewAddress{
			FirstName: "Jan", LastName: names[i%len(names)], Street: "Długa 3",
			City: "Lublin", PostalCode: "20-806", LabelMarked: m,
		})
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, a)
	}
	return out
}

// =============================================================================
// Health and middleware
// =============================================================================

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := do(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing X-Content-Type-Options header")
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("missing Content-Security-Policy header")
	}
}

func TestAPIKeyGate(t *testing.T) {
	srv, _ := newTestServer(t, func(c *config.Config) {
		c.Security.RequireAPIKey = true
		c.Security.APIKeys = []string{"secret"}
	})

	if rec := do(srv, httptest.NewRequest(http.MethodGet, "/api/print/labels", nil)); rec.Code != http.StatusUnauthorized {
		t.Errorf("no key: status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/print/labels", nil)
	req.Header.Set("X-API-Key", "secret")
	if rec := do(srv, req); rec.Code != http.StatusOK {
		t.Errorf("with key: status = %d, want %d", rec.Code, http.StatusOK)
	}

	if rec := do(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil)); rec.Code != http.StatusOK {
		t.Errorf("healthz should bypass auth: status = %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	srv, _ := newTestServer(t, func(c *config.Config) {
		c.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2, ImportLimit: 1}
	})

	for i := 0; i < 2; i++ {
		if rec := do(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil)); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, rec.Code)
		}
	}
	rec := do(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if got := decodeError(t, rec).Code; got != "RATE001" {
		t.Errorf("code = %q, want RATE001", got)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want 60", rec.Header().Get("Retry-After"))
	}
}

func TestRateLimiter_WindowReset(t *testing.T) {
	rl := newRateLimiter(1, time.Minute)
	defer rl.stop()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.allow("1.2.3.4") {
		t.Fatal("first request should pass")
	}
	if rl.allow("1.2.3.4") {
		t.Error("second request in window should be refused")
	}
	if !rl.allow("5.6.7.8") {
		t.Error("other IP should have its own budget")
	}

	now = now.Add(2 * time.Minute)
	if !rl.allow("1.2.3.4") {
		t.Error("request after window should pass")
	}
}

// =============================================================================
// Import
// =============================================================================

func TestImport(t *testing.T) {
	srv, mem := newTestServer(t, nil)

	content := strings.Join([]string{
		importHeader,
		"Jan,Kowalski,Długa 3,4,Lublin,20-806,brama,tak",
		"Anna,,Krótka 1,,Lublin,20-001,,",
		"Ewa,Nowak,Polna 2,,Lublin,!!,,",
		"Piotr,Zając,Leśna 5,,Lublin,20-400,,0",
	}, "\n")

	rec := do(srv, uploadRequest(t, "adresy.csv", content))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var summary core.ImportSummary
	if err := json.NewDecoder(rec.Body).Decode(&summary); err != nil {
		t.Fatal(err)
	}
	if summary.ImportedCount != 2 {
		t.Errorf("imported_count = %d, want 2", summary.ImportedCount)
	}
	if summary.TotalRows != 4 {
		t.Errorf("total_rows = %d, want 4", summary.TotalRows)
	}
	if summary.ErrorCount != 2 || len(summary.Errors) != 2 {
		t.Fatalf("errors = %+v (count %d), want 2", summary.Errors, summary.ErrorCount)
	}
	if summary.Errors[0].Row != 3 || summary.Errors[1].Row != 4 {
		t.Errorf("error rows = %d, %d, want 3, 4", summary.Errors[0].Row, summary.Errors[1].Row)
	}
	if summary.DetectedDelimiter != "," {
		t.Errorf("detected_delimiter = %q, want %q", summary.DetectedDelimiter, ",")
	}
	if !summary.OptionalColumnsPresent {
		t.Error("optional_columns_present = false, want true")
	}

	all, _ := mem.FetchAll(context.Background())
	if len(all) != 2 {
		t.Fatalf("stored = %d, want 2", len(all))
	}
	if !all[0].LabelMarked || all[0].LastName != "Kowalski" {
		t.Errorf("first stored = %+v, want marked Kowalski", all[0])
	}
}

func TestImport_Errors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
		status   int
		code     string
	}{
		{"not csv", "adresy.txt.exe", importHeader + "\n", http.StatusBadRequest, "FILE002"},
		{"empty file", "a.csv", "  \n", http.StatusBadRequest, "FILE005"},
		{"missing columns", "a.csv", "first_name;last_name\nJan;Kowalski\n", http.StatusBadRequest, "VAL002"},
		{"invalid utf8", "a.csv", "first_name\n\xff\n", http.StatusBadRequest, "FILE003"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, nil)
			rec := do(srv, uploadRequest(t, tt.filename, tt.content))
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
			if got := decodeError(t, rec).Code; got != tt.code {
				t.Errorf("code = %q, want %q", got, tt.code)
			}
		})
	}
}

func TestImport_MissingColumnsListed(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := do(srv, uploadRequest(t, "a.csv", "first_name;last_name\nJan;Kowalski\n"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
	}

	resp := decodeError(t, rec)
	want := []string{"apartment_no", "city", "label_marked", "postal_code", "street"}
	if !reflect.DeepEqual(resp.Columns, want) {
		t.Errorf("Columns = %v, want %v", resp.Columns, want)
	}
	if !strings.Contains(resp.Message, "apartment_no, city, label_marked, postal_code, street") {
		t.Errorf("Message = %q, want the missing columns listed", resp.Message)
	}
	if resp.Error != "Required column is missing from the file" {
		t.Errorf("Error = %q", resp.Error)
	}
}

func TestRespondError_NoColumnsForOtherErrors(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := do(srv, uploadRequest(t, "a.csv", "  \n"))
	if resp := decodeError(t, rec); resp.Columns != nil {
		t.Errorf("Columns = %v, want none", resp.Columns)
	}
}

func TestImport_NoFile(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	_ = mw.WriteField("other", "x")
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/addresses/import", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := do(srv, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if got := decodeError(t, rec).Code; got != "FILE004" {
		t.Errorf("code = %q, want FILE004", got)
	}
}

func TestImport_TooLarge(t *testing.T) {
	srv, _ := newTestServer(t, func(c *config.Config) { c.Upload.MaxFileSize = 64 })

	rec := do(srv, uploadRequest(t, "a.csv", importHeader+"\n"+strings.Repeat("x", 256)))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusRequestEntityTooLarge)
	}
	if got := decodeError(t, rec).Code; got != "FILE001" {
		t.Errorf("code = %q, want FILE001", got)
	}
}

func TestImport_Busy(t *testing.T) {
	srv, _ := newTestServer(t, func(c *config.Config) {
		c.Upload.MaxConcurrent = 1
		c.Upload.MaxWaitTime = 10 * time.Millisecond
	})
	if !srv.service.Limiter().TryAcquire() {
		t.Fatal("TryAcquire() = false")
	}
	defer srv.service.Limiter().Release()

	rec := do(srv, uploadRequest(t, "a.csv", importHeader+"\nJan,K,S,,C,12345,,\n"))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if got := decodeError(t, rec).Code; got != "IMP001" {
		t.Errorf("code = %q, want IMP001", got)
	}
}

// =============================================================================
// Export
// =============================================================================

func TestExport(t *testing.T) {
	srv, mem := newTestServer(t, nil)
	seed(t, mem, false, true)

	tests := []struct {
		format      string
		contentType string
		prefix      string
	}{
		{"csv", "text/csv; charset=utf-8", "\xef\xbb\xbfid,"},
		{"xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "PK"},
		{"pdf", "application/pdf", "%PDF-"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			rec := do(srv, httptest.NewRequest(http.MethodGet, "/api/addresses/export/"+tt.format, nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
			if got := rec.Header().Get("Content-Type"); got != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", got, tt.contentType)
			}
			wantDisp := "attachment; filename=addresses." + tt.format
			if got := rec.Header().Get("Content-Disposition"); got != wantDisp {
				t.Errorf("Content-Disposition = %q, want %q", got, wantDisp)
			}
			if !strings.HasPrefix(rec.Body.String(), tt.prefix) {
				t.Errorf("body starts with %q, want %q", rec.Body.String()[:min(8, rec.Body.Len())], tt.prefix)
			}
		})
	}
}

func TestExport_Errors(t *testing.T) {
	srv, _ := newTestServer(t, func(c *config.Config) { c.Export.DisabledFormats = []string{"xlsx"} })

	rec := do(srv, httptest.NewRequest(http.MethodGet, "/api/addresses/export/xlsx", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("disabled: status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	if got := decodeError(t, rec).Code; got != "EXP001" {
		t.Errorf("disabled: code = %q, want EXP001", got)
	}

	rec = do(srv, httptest.NewRequest(http.MethodGet, "/api/addresses/export/ods", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown: status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if got := decodeError(t, rec).Code; got != "VAL005" {
		t.Errorf("unknown: code = %q, want VAL005", got)
	}

	if rec := do(srv, httptest.NewRequest(http.MethodGet, "/api/addresses/export/csv", nil)); rec.Code != http.StatusOK {
		t.Errorf("csv should stay available: status = %d", rec.Code)
	}
}

// =============================================================================
// Print
// =============================================================================

func TestPrintEnvelope(t *testing.T) {
	srv, mem := newTestServer(t, nil)
	addrs := seed(t, mem, false)

	rec := do(srv, httptest.NewRequest(http.MethodGet,
		"/api/print/envelope/"+itoa(addrs[0].ID)+"?bold=true&font_size=18&format=c6", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Content-Type") != "application/pdf" {
		t.Errorf("Content-Type = %q", rec.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")) {
		t.Error("body is not a PDF")
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("/Count 1")) {
		t.Error("envelope should have exactly one page")
	}
}

func TestPrintEnvelope_Errors(t *testing.T) {
	srv, mem := newTestServer(t, nil)
	id := itoa(seed(t, mem, false)[0].ID)

	tests := []struct {
		name   string
		path   string
		status int
		code   string
	}{
		{"unknown id", "/api/print/envelope/999", http.StatusNotFound, "DB001"},
		{"non-numeric id", "/api/print/envelope/abc", http.StatusBadRequest, "VAL005"},
		{"zero id", "/api/print/envelope/0", http.StatusBadRequest, "VAL005"},
		{"bad bold", "/api/print/envelope/" + id + "?bold=maybe", http.StatusBadRequest, "VAL005"},
		{"bad font size", "/api/print/envelope/" + id + "?font_size=big", http.StatusBadRequest, "VAL005"},
		{"bad format", "/api/print/envelope/" + id + "?format=B5", http.StatusBadRequest, "VAL005"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(srv, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if got := decodeError(t, rec).Code; got != tt.code {
				t.Errorf("code = %q, want %q", got, tt.code)
			}
		})
	}
}

func TestPrintEnvelope_FontSizeClamped(t *testing.T) {
	srv, mem := newTestServer(t, nil)
	id := itoa(seed(t, mem, false)[0].ID)

	rec := do(srv, httptest.NewRequest(http.MethodGet, "/api/print/envelope/"+id+"?font_size=200", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestPrintLabels(t *testing.T) {
	srv, mem := newTestServer(t, nil)

	marked := make([]bool, 25)
	for i := range marked {
		marked[i] = i != 3
	}
	seed(t, mem, marked...)

	rec := do(srv, httptest.NewRequest(http.MethodGet, "/api/print/labels?font_size=12", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	// 24 marked records fill one sheet of 21 and three labels on a second.
	if !bytes.Contains(rec.Body.Bytes(), []byte("/Count 2")) {
		t.Error("labels should span two pages")
	}

	if rec := do(srv, httptest.NewRequest(http.MethodGet, "/api/print/labels?font_size=x", nil)); rec.Code != http.StatusBadRequest {
		t.Errorf("bad font_size: status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrNotFound, http.StatusNotFound},
		{core.ErrEmptyFile, http.StatusBadRequest},
		{&core.MissingColumnsError{Columns: []string{"city"}}, http.StatusBadRequest},
		{core.ErrTooManyImports, http.StatusTooManyRequests},
		{export.ErrUnsupportedFormat, http.StatusServiceUnavailable},
		{export.ErrUnknownFormat, http.StatusBadRequest},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
