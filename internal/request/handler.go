package request

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi"
	"github.com/google/uuid"

	"github.com/helpdeskhq/helpdesk-portal/internal"
	"github.com/helpdeskhq/helpdesk-portal/internal/transport"
	"github.com/helpdeskhq/helpdesk-portal/pkg/logger"
)

type ServiceAPI interface {
	Create(ctx context.Context, authorID int64, dto CreateDTO) (*Request, error)
	Update(ctx context.Context, id, updatedByID int64, dto UpdateDTO) (*Request, error)
	AddComment(ctx context.Context, requestID, commenterID int64, dto CommentDTO) (*Comment, error)
	GetByID(id int64) (*Request, error)
	List(filter ListFilter) ([]*Request, error)
	Delete(id int64) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	uploads internal.UploadsConfig
}

func NewHandler(svc ServiceAPI, uploads internal.UploadsConfig) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
		uploads:     uploads,
	}
}

// Create accepts either a JSON body or a multipart form with attachments.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := internal.PrincipalFromContext(r.Context())
	if !ok || principal == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateDTO
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		parsed, err := h.parseMultipart(r)
		if err != nil {
			h.Logger.Error("failed to parse multipart form", "error", err)
			h.WriteError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		dto = *parsed
	} else {
		if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	req, err := h.Service.Create(r.Context(), principal.ID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, req)
}

func (h *Handler) parseMultipart(r *http.Request) (*CreateDTO, error) {
	maxBytes := int64(h.uploads.MaxSizeMB) << 20
	if maxBytes <= 0 {
		maxBytes = 20 << 20
	}
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return nil, err
	}

	dto := &CreateDTO{
		Title:    r.FormValue("title"),
		Content:  r.FormValue("content"),
		Priority: r.FormValue("priority"),
		Source:   r.FormValue("source"),
	}
	if v := r.FormValue("category"); v != "" {
		dto.Category = &v
	}
	if v := r.FormValue("expected_resolution_date"); v != "" {
		dto.ExpectedResolutionDate = &v
	}
	if v := r.FormValue("equipment_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			dto.EquipmentID = &id
		}
	}
	if v := r.FormValue("user_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			dto.UserID = &id
		}
	}
	if v := r.FormValue("executor_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			dto.ExecutorID = &id
		}
	}

	if r.MultipartForm != nil {
		files := r.MultipartForm.File["files"]
		if limit := h.uploads.MaxPerEntry; limit > 0 && len(files) > limit {
			files = files[:limit]
		}
		for _, fh := range files {
			url, err := h.storeFile(fh)
			if err != nil {
				return nil, err
			}
			dto.FileURLs = append(dto.FileURLs, url)
		}
	}
	return dto, nil
}

// storeFile writes the attachment under a random name and returns its
// public URL.
func (h *Handler) storeFile(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := uuid.New().String() + filepath.Ext(fh.Filename)
	if err := os.MkdirAll(h.uploads.Dir, 0o755); err != nil {
		return "", err
	}

	dst, err := os.Create(filepath.Join(h.uploads.Dir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return strings.TrimSuffix(h.uploads.PublicPath, "/") + "/" + name, nil
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{Status: strings.ToUpper(r.URL.Query().Get("status"))}

	if v := r.URL.Query().Get("userId"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.UserID = &id
		}
	}
	if v := r.URL.Query().Get("executorId"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.ExecutorID = &id
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	items, err := h.Service.List(filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, items)
}

// My lists the caller's own tickets.
func (h *Handler) My(w http.ResponseWriter, r *http.Request) {
	principal, ok := internal.PrincipalFromContext(r.Context())
	if !ok || principal == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	items, err := h.Service.List(ListFilter{UserID: &principal.ID})
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	req, err := h.Service.GetByID(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := internal.PrincipalFromContext(r.Context())
	if !ok || principal == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var dto UpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := h.Service.Update(r.Context(), id, principal.ID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	principal, ok := internal.PrincipalFromContext(r.Context())
	if !ok || principal == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var dto CommentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.Service.AddComment(r.Context(), id, principal.ID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request id")
		return 0, false
	}
	return id, true
}
