package documents

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hkf/crm/internal/middleware"
	"github.com/hkf/crm/internal/models"
	"github.com/hkf/crm/internal/realtime"
	"github.com/hkf/crm/pkg/response"
	"github.com/hkf/crm/pkg/storage"
)

// Store is the persistence the handler needs; *Repository satisfies it.
type Store interface {
	List(ctx context.Context, orgID uuid.UUID, f Filter) ([]*models.Document, error)
	Get(ctx context.Context, orgID, id uuid.UUID) (*models.Document, error)
	Create(ctx context.Context, orgID uuid.UUID, d *models.Document) error
	UpdateStatus(ctx context.Context, orgID, id uuid.UUID, status models.DocumentStatus, errMsg string) (*models.Document, error)
	AttachFile(ctx context.Context, orgID, id uuid.UUID, key string) (*models.Document, error)
	Delete(ctx context.Context, orgID, id uuid.UUID) error
}

// ObjectStore is the object storage the handler needs; *storage.S3 satisfies it.
type ObjectStore interface {
	PresignDownload(ctx context.Context, key string) (string, error)
	PresignUpload(ctx context.Context, key, contentType string) (string, error)
	Upload(ctx context.Context, key, contentType string, body io.Reader, contentLength int64) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) bool
	PresignExpire() time.Duration
}

// Handler handles document HTTP endpoints.
type Handler struct {
	repo    Store
	objects ObjectStore
	inv     realtime.Invalidator
	logger  *zap.Logger
}

// NewHandler creates a documents handler. objects may be nil when storage is not configured;
// URL and upload endpoints then answer 503.
func NewHandler(repo Store, objects ObjectStore, inv realtime.Invalidator, logger *zap.Logger) *Handler {
	if inv == nil {
		inv = realtime.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, objects: objects, inv: inv, logger: logger}
}

func (h *Handler) invalidate(c *gin.Context, op realtime.Op, id uuid.UUID) {
	h.inv.Invalidate(c.Request.Context(), middleware.OrganizationID(c), realtime.Mutation{Entity: realtime.EntityDocument, Op: op, ID: id})
}

func (h *Handler) load(c *gin.Context) (*models.Document, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid document id")
		return nil, false
	}
	d, err := h.repo.Get(c.Request.Context(), middleware.OrganizationID(c), id)
	if err != nil {
		response.Error(c, err, "failed to load document")
		return nil, false
	}
	return d, true
}

// List handles GET /documents?person_id=&status=.
func (h *Handler) List(c *gin.Context) {
	f := Filter{Status: models.DocumentStatus(c.Query("status"))}
	if f.Status != "" && !f.Status.Valid() {
		response.BadRequest(c, "invalid status")
		return
	}
	if raw := c.Query("person_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid person_id")
			return
		}
		f.PersonID = &id
	}
	list, err := h.repo.List(c.Request.Context(), middleware.OrganizationID(c), f)
	if err != nil {
		response.Error(c, err, "failed to load documents")
		return
	}
	response.OK(c, list)
}

// Get handles GET /documents/:id.
func (h *Handler) Get(c *gin.Context) {
	d, ok := h.load(c)
	if !ok {
		return
	}
	response.OK(c, d)
}

// CreateRequest is the body for POST /documents. Filename fixes the storage path.
type CreateRequest struct {
	Title    string     `json:"title" binding:"required"`
	Kind     string     `json:"kind"`
	PersonID *uuid.UUID `json:"person_id"`
	Filename string     `json:"filename"`
}

// Create handles POST /documents. The record starts pending; when a filename is given and
// storage is configured the response carries a pre-signed upload URL for the generator.
func (h *Handler) Create(c *gin.Context) {
	var body CreateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "title required")
		return
	}
	orgID := middleware.OrganizationID(c)
	d := &models.Document{
		ID:       uuid.New(),
		PersonID: body.PersonID,
		Title:    strings.TrimSpace(body.Title),
		Kind:     strings.TrimSpace(body.Kind),
		Status:   models.DocumentPending,
	}
	if userID := middleware.UserID(c); userID != uuid.Nil {
		d.CreatedBy = &userID
	}
	if body.Filename != "" {
		if !storage.ValidDocumentFile(body.Filename) {
			response.BadRequest(c, "unsupported document type")
			return
		}
		key := storage.DocumentKey(orgID.String(), d.ID.String(), body.Filename)
		d.StoragePath = &key
	}
	if err := h.repo.Create(c.Request.Context(), orgID, d); err != nil {
		response.Error(c, err, "failed to create document")
		return
	}
	h.invalidate(c, realtime.OpCreated, d.ID)

	out := gin.H{"document": d}
	if d.StoragePath != nil && h.objects != nil {
		url, err := h.objects.PresignUpload(c.Request.Context(), *d.StoragePath, storage.ContentTypeForFilename(*d.StoragePath))
		if err != nil {
			h.logger.Warn("presign document upload failed", zap.Error(err), zap.String("document_id", d.ID.String()))
		} else {
			out["upload_url"] = url
			out["expires_in"] = int(h.objects.PresignExpire().Seconds())
		}
	}
	response.Created(c, out)
}

// Upload handles POST /documents/:id/file (multipart field "file"). The bytes are stored at
// the document's storage path and the document becomes ready.
func (h *Handler) Upload(c *gin.Context) {
	if h.objects == nil {
		response.ServiceUnavailable(c, "document storage not configured")
		return
	}
	d, ok := h.load(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file required")
		return
	}
	if fh.Size > storage.MaxDocumentSize {
		c.JSON(http.StatusRequestEntityTooLarge, response.Body{Success: false, Error: "file too large"})
		return
	}
	if d.StoragePath == nil {
		if !storage.ValidDocumentFile(fh.Filename) {
			response.BadRequest(c, "unsupported document type")
			return
		}
		key := storage.DocumentKey(d.OrganizationID.String(), d.ID.String(), fh.Filename)
		d.StoragePath = &key
	}
	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, "unreadable file")
		return
	}
	defer f.Close()

	orgID := middleware.OrganizationID(c)
	if err := h.objects.Upload(c.Request.Context(), *d.StoragePath, storage.ContentTypeForFilename(*d.StoragePath), f, fh.Size); err != nil {
		h.logger.Error("document upload failed", zap.Error(err), zap.String("document_id", d.ID.String()))
		if _, uerr := h.repo.UpdateStatus(c.Request.Context(), orgID, d.ID, models.DocumentFailed, "upload failed"); uerr != nil {
			h.logger.Warn("mark document failed", zap.Error(uerr))
		}
		response.Internal(c, "failed to store document")
		return
	}
	updated, err := h.repo.AttachFile(c.Request.Context(), orgID, d.ID, *d.StoragePath)
	if err != nil {
		response.Error(c, err, "failed to update document")
		return
	}
	h.invalidate(c, realtime.OpUpdated, d.ID)
	response.OK(c, updated)
}

// Confirm handles POST /documents/:id/confirm after a client uploaded through the
// pre-signed URL. The document becomes ready once its object is present.
func (h *Handler) Confirm(c *gin.Context) {
	if h.objects == nil {
		response.ServiceUnavailable(c, "document storage not configured")
		return
	}
	d, ok := h.load(c)
	if !ok {
		return
	}
	if d.StoragePath == nil || !h.objects.Exists(c.Request.Context(), *d.StoragePath) {
		response.Conflict(c, "file not uploaded")
		return
	}
	updated, err := h.repo.AttachFile(c.Request.Context(), middleware.OrganizationID(c), d.ID, *d.StoragePath)
	if err != nil {
		response.Error(c, err, "failed to update document")
		return
	}
	h.invalidate(c, realtime.OpUpdated, d.ID)
	response.OK(c, updated)
}

// StatusRequest is the body for PATCH /documents/:id/status.
type StatusRequest struct {
	Status       string `json:"status" binding:"required"`
	ErrorMessage string `json:"error_message"`
}

// UpdateStatus handles PATCH /documents/:id/status, reported by the external generator.
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid document id")
		return
	}
	var body StatusRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "status required")
		return
	}
	d, err := h.repo.UpdateStatus(c.Request.Context(), middleware.OrganizationID(c), id, models.DocumentStatus(body.Status), body.ErrorMessage)
	if err != nil {
		response.Error(c, err, "failed to update document")
		return
	}
	h.invalidate(c, realtime.OpUpdated, id)
	response.OK(c, d)
}

// DownloadURL handles GET /documents/:id/download-url. Only ready documents can be fetched.
func (h *Handler) DownloadURL(c *gin.Context) {
	if h.objects == nil {
		response.ServiceUnavailable(c, "document storage not configured")
		return
	}
	d, ok := h.load(c)
	if !ok {
		return
	}
	if d.Status != models.DocumentReady || d.StoragePath == nil {
		response.Conflict(c, "document not ready for download")
		return
	}
	url, err := h.objects.PresignDownload(c.Request.Context(), *d.StoragePath)
	if err != nil {
		h.logger.Error("presign document download failed", zap.Error(err), zap.String("document_id", d.ID.String()))
		response.Internal(c, "failed to generate download URL")
		return
	}
	response.OK(c, gin.H{"download_url": url, "expires_in": int(h.objects.PresignExpire().Seconds())})
}

// Delete handles DELETE /documents/:id. The stored object is removed first; if that fails
// the record is kept so the delete can be retried.
func (h *Handler) Delete(c *gin.Context) {
	d, ok := h.load(c)
	if !ok {
		return
	}
	if d.StoragePath != nil {
		if h.objects == nil {
			response.ServiceUnavailable(c, "document storage not configured")
			return
		}
		if err := h.objects.Delete(c.Request.Context(), *d.StoragePath); err != nil {
			h.logger.Error("delete document object failed", zap.Error(err), zap.String("document_id", d.ID.String()))
			response.Internal(c, "failed to delete document")
			return
		}
	}
	if err := h.repo.Delete(c.Request.Context(), middleware.OrganizationID(c), d.ID); err != nil {
		response.Error(c, err, "failed to delete document")
		return
	}
	h.invalidate(c, realtime.OpDeleted, d.ID)
	response.NoContent(c)
}
