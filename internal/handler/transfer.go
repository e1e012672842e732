package handler

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/templui/secureshare/internal/ctxkeys"
	"github.com/templui/secureshare/internal/service"
	"github.com/templui/secureshare/internal/validation"
)

const (
	maxMemory      = 32 << 20
	checksumHeader = "x-hash-sha256"
	formFile       = "file"
	formFilename   = "fname"
	formExpires    = "expires"
	formOneShot    = "oneshot"
	formChecksum   = "sha256sum"
	queryRaw       = "raw"
	queryCommand   = "c"
	commandDelete  = "delete"
	pathID         = "id"
	pathKey        = "key"
	pathFilename   = "filename"
)

type TransferHandler struct {
	transfer      *service.TransferService
	maxUploadSize int64
}

func NewTransferHandler(transfer *service.TransferService, maxUploadSize int64) *TransferHandler {
	return &TransferHandler{
		transfer:      transfer,
		maxUploadSize: maxUploadSize,
	}
}

type uploadResponse struct {
	URL     string    `json:"url"`
	Expires time.Time `json:"expires"`
}

func (h *TransferHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}

	err := r.ParseMultipartForm(maxMemory)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
			return
		}
		// no multipart body means no file
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(formFile)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ttl, ok := parseExpires(r.FormValue(formExpires))
	if !ok {
		http.Error(w, "Invalid expires", http.StatusBadRequest)
		return
	}

	filename := r.FormValue(formFilename)
	if filename == "" {
		filename = header.Filename
	}

	res, err := h.transfer.Upload(r.Context(), service.UploadInput{
		Content:  content,
		Filename: filename,
		Checksum: r.FormValue(formChecksum),
		TTL:      ttl,
		OneShot:  validation.ParseBool(r.FormValue(formOneShot)),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("object uploaded",
		"id", res.ID,
		"size", len(content),
		"expires_at", res.ExpiresAt,
		"grant", ctxkeys.Grant(r.Context()),
	)

	noCache(w)
	w.Header().Set("Location", res.URL)
	w.Header().Set("Expires", res.ExpiresAt.UTC().Format(http.TimeFormat))
	writeJSON(w, http.StatusCreated, uploadResponse{URL: res.URL, Expires: res.ExpiresAt})
}

func (h *TransferHandler) Download(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	res, err := h.transfer.Download(r.Context(), service.DownloadInput{
		ID:        r.PathValue(pathID),
		Key:       r.PathValue(pathKey),
		Filename:  r.PathValue(pathFilename),
		Delete:    query.Get(queryCommand) == commandDelete,
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	noCache(w)

	switch {
	case res.Filtered:
		w.WriteHeader(http.StatusOK)
		return
	case res.Deleted:
		writeJSON(w, http.StatusOK, okResponse{OK: true})
		return
	}

	w.Header().Set("Content-Type", res.MimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Content)))
	w.Header().Set(checksumHeader, res.Checksum)
	if validation.ParseBool(query.Get(queryRaw)) {
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.Filename}))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Content)
}

// maxExpiresSeconds is the largest lifetime a time.Duration can hold.
const maxExpiresSeconds = math.MaxInt64 / int64(time.Second)

// parseExpires reads an optional lifetime in whole seconds. Empty yields
// zero, which selects the configured default downstream.
func parseExpires(v string) (time.Duration, bool) {
	if v == "" {
		return 0, true
	}
	secs, err := strconv.ParseInt(v, 10, 64)
	if err != nil || secs <= 0 || secs > maxExpiresSeconds {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

// Remove deletes an object by id and filename; the key segment is ignored.
func (h *TransferHandler) Remove(w http.ResponseWriter, r *http.Request) {
	err := h.transfer.Remove(r.Context(), r.PathValue(pathID), r.PathValue(pathFilename))
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("object removed", "id", r.PathValue(pathID), "grant", ctxkeys.Grant(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}
