package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gabriel-vasile/mimetype"

	"github.com/JonMunkholm/ledgerimport/internal/hash"
	"github.com/JonMunkholm/ledgerimport/internal/ledger"
	"github.com/JonMunkholm/ledgerimport/internal/logging"
)

// maxCreateBody bounds a CreateItems request body.
const maxCreateBody = 8 << 20

type createItemsRequest struct {
	Items []ledger.NewItem `json:"items"`
}

type createItemsResponse struct {
	Created int `json:"created"`
}

// handleGetItem returns the stored item or 404.
func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	l, err := s.collection(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	id, err := hashParam(r, "itemID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	item, err := l.ItemExists(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if item == nil {
		s.respondError(w, r, fmt.Errorf("%w: %s", ledger.ErrItemNotFound, id))
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// handleCreateItems stores a batch; the whole batch fails on any known id.
func (s *Server) handleCreateItems(w http.ResponseWriter, r *http.Request) {
	l, err := s.collection(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req createItemsRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCreateBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: invalid request body: %w", errBadRequest, err))
		return
	}
	if len(req.Items) == 0 {
		s.respondError(w, r, fmt.Errorf("%w: no items", errBadRequest))
		return
	}
	for i, it := range req.Items {
		if it.ID.IsZero() {
			s.respondError(w, r, fmt.Errorf("%w: item %d has no id", errBadRequest, i))
			return
		}
	}

	if err := l.CreateItems(r.Context(), req.Items); err != nil {
		createdTotal.WithLabelValues(resultRejected).Inc()
		s.respondError(w, r, err)
		return
	}

	createdTotal.WithLabelValues(resultOK).Add(float64(len(req.Items)))
	logging.FromContext(r.Context()).Info("Items created", "count", len(req.Items))
	writeJSON(w, http.StatusCreated, createItemsResponse{Created: len(req.Items)})
}

// handleUploadFile fills one file slot with the raw request body.
func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	l, err := s.collection(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	itemID, err := hashParam(r, "itemID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	fileHash, err := hashParam(r, "fileHash")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if !s.limiter.TryAcquire() {
		logging.FromContext(r.Context()).Info("Waiting for upload slot",
			"active", s.limiter.ActiveCount(), "max", s.limiter.MaxConcurrent())
		if err := s.limiter.Acquire(r.Context()); err != nil {
			uploadsTotal.WithLabelValues(resultBusy).Inc()
			s.respondError(w, r, err)
			return
		}
	}
	defer s.limiter.Release()

	content, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize))
	if err != nil {
		uploadsTotal.WithLabelValues(resultRejected).Inc()
		s.respondError(w, r, fmt.Errorf("file too large or unreadable: %w", err))
		return
	}

	logger := logging.WithFields(r.Context(), "item_id", itemID.Hex(), "file_hash", fileHash.Hex())
	detected := mimetype.Detect(content)
	if declared, ok := s.declaredType(r, l, itemID, fileHash); ok && !detected.Is(declared) {
		logger.Info("Uploaded content differs from declared type",
			"declared", declared, "detected", detected.String())
	}

	if err := l.UploadFile(r.Context(), itemID, fileHash, content); err != nil {
		uploadsTotal.WithLabelValues(resultRejected).Inc()
		s.respondError(w, r, err)
		return
	}

	uploadsTotal.WithLabelValues(resultOK).Inc()
	uploadedBytes.Add(float64(len(content)))
	logger.Info("File uploaded", "bytes", len(content))
	w.WriteHeader(http.StatusNoContent)
}

// declaredType looks up the content type recorded for the slot.
func (s *Server) declaredType(r *http.Request, l ledger.Ledger, itemID, fileHash hash.Hash) (string, bool) {
	item, err := l.ItemExists(r.Context(), itemID)
	if err != nil || item == nil {
		return "", false
	}
	f, ok := item.FileByHash(fileHash)
	if !ok || f.ContentType == "" {
		return "", false
	}
	return f.ContentType, true
}

type healthResponse struct {
	Status  string `json:"status"`
	Uploads any    `json:"uploads"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Uploads: s.limiter.Status()})
}
