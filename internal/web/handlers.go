package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/addrbook/internal/core"
	"github.com/JonMunkholm/addrbook/internal/export"
	"github.com/JonMunkholm/addrbook/internal/layout"
	"github.com/JonMunkholm/addrbook/internal/logging"
)

// handleHealth reports liveness. It sits outside the API key gate.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// handleImport reads a multipart "file" field and imports its rows.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	if r.ContentLength > maxSize {
		respondError(w, r, fmt.Errorf("%w: limit is %d bytes", errFileTooLarge, maxSize), http.StatusRequestEntityTooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, fmt.Errorf("%w: limit is %d bytes", errFileTooLarge, maxSize), http.StatusRequestEntityTooLarge)
			return
		}
		respondError(w, r, fmt.Errorf("%w: %v", errNoFile, err), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, errNoFile, http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, r, fmt.Errorf("read upload: %w", err), http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Upload.Timeout)
	defer cancel()

	summary, err := s.service.Import(ctx, core.ImportRequest{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	writeJSON(w, r, http.StatusOK, summary)
}

// handleExport streams every record in the requested format as an attachment.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ser, err := s.exports.Lookup(chi.URLParam(r, "format"))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	records, err := s.service.Addresses(r.Context())
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	var buf bytes.Buffer
	if err := ser.Write(&buf, records); err != nil {
		respondError(w, r, fmt.Errorf("render %s export: %w", ser.Extension(), err), http.StatusInternalServerError)
		return
	}

	logging.FromContext(r.Context()).Info("export written",
		"format", ser.Extension(),
		"records", len(records),
		"bytes", buf.Len(),
	)
	writeDocument(w, ser.ContentType(), "attachment", export.Filename(ser), buf.Bytes())
}

// handlePrintEnvelope renders one envelope for the address in the path.
func (s *Server) handlePrintEnvelope(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, r, fmt.Errorf("%w: id must be a positive integer", errBadRequest), http.StatusBadRequest)
		return
	}

	opts, err := envelopeOptions(r)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	addr, err := s.service.Address(r.Context(), id)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	pdf, err := s.printer.Envelope(addr, opts)
	if err != nil {
		respondError(w, r, fmt.Errorf("render envelope %d: %w", id, err), http.StatusInternalServerError)
		return
	}

	writeDocument(w, "application/pdf", "inline", fmt.Sprintf("envelope-%d.pdf", id), pdf)
}

// handlePrintLabels renders label sheets for every flag-marked address.
func (s *Server) handlePrintLabels(w http.ResponseWriter, r *http.Request) {
	fontSize, err := intParam(r, "font_size", layout.DefaultLabelFontSize)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	records, err := s.service.LabelAddresses(r.Context())
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	pdf, err := s.printer.Labels(records, fontSize)
	if err != nil {
		respondError(w, r, fmt.Errorf("render labels: %w", err), http.StatusInternalServerError)
		return
	}

	logging.FromContext(r.Context()).Info("labels rendered", "records", len(records))
	writeDocument(w, "application/pdf", "inline", "labels.pdf", pdf)
}

// envelopeOptions reads bold, font_size and format from the query string.
func envelopeOptions(r *http.Request) (layout.EnvelopeOptions, error) {
	opts := layout.DefaultEnvelopeOptions()
	q := r.URL.Query()

	if v := q.Get("bold"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("%w: bold must be true or false", errBadRequest)
		}
		opts.Bold = b
	}

	size, err := intParam(r, "font_size", layout.DefaultEnvelopeFontSize)
	if err != nil {
		return opts, err
	}
	opts.FontSize = size

	format, err := layout.ParsePageFormat(q.Get("format"))
	if err != nil {
		return opts, err
	}
	opts.Format = format
	return opts, nil
}

// intParam parses an optional integer query parameter. Range clamping is
// left to the composers.
func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", errBadRequest, name)
	}
	return n, nil
}

func writeDocument(w http.ResponseWriter, contentType, disposition, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%s", disposition, filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
