package httptransport

import (
	"io"
	"net/http"
	"os"
	"path/filepath"

	"heirloom/internal/platform/middleware"
	"heirloom/internal/vault"
	"heirloom/pkg/domain"
	dErrors "heirloom/pkg/domain-errors"
	"heirloom/pkg/platform/httputil"
)

// maxUploadSize bounds the multipart body of an asset upload.
const maxUploadSize = 64 << 20

// HandleAssetUpload handles POST /vault/assets. The file lands in a staging
// directory only long enough for the encryption engine to fragment it; the
// vault service removes it afterwards whatever the outcome.
func (h *Handler) HandleAssetUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, err := domain.ParseOwnerID(middleware.GetOwnerID(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid session subject"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "multipart form with a file field is required"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "file field is required"))
		return
	}
	defer file.Close()

	category, err := vault.ParseAssetCategory(r.FormValue("category"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	name := r.FormValue("name")
	if name == "" {
		name = filepath.Base(header.Filename)
	}
	if name == "" || name == "." {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "asset name is required"))
		return
	}

	tempPath, err := h.stageUpload(file)
	if err != nil {
		h.logger.ErrorContext(ctx, "staging upload failed",
			"request_id", middleware.GetRequestID(ctx),
			"owner_id", ownerID.String(),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(dErrors.CodeInternal, "failed to store upload", err))
		return
	}

	asset, err := h.vault.Upload(ctx, ownerID, tempPath, name, category, r.FormValue("description"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "asset secured",
		"request_id", middleware.GetRequestID(ctx),
		"owner_id", ownerID.String(),
		"asset_id", asset.ID.String(),
	)
	httputil.WriteJSON(w, http.StatusCreated, fromAsset(asset))
}

// stageUpload copies the multipart file into the staging directory and
// returns its path.
func (h *Handler) stageUpload(src io.Reader) (string, error) {
	if err := os.MkdirAll(h.uploadDir, 0o700); err != nil {
		return "", err
	}
	dst, err := os.CreateTemp(h.uploadDir, "upload-*")
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	return dst.Name(), nil
}

// HandleAssetList handles GET /vault/assets for the authenticated owner.
func (h *Handler) HandleAssetList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, err := domain.ParseOwnerID(middleware.GetOwnerID(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid session subject"))
		return
	}
	assets, err := h.vault.ListAssets(ctx, ownerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"assets": fromAssets(assets)})
}

type noteCreateRequest struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	Visibility string `json:"visibility"`
	Category   string `json:"category"`
}

// HandleNoteCreate handles POST /vault/notes.
func (h *Handler) HandleNoteCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, err := domain.ParseOwnerID(middleware.GetOwnerID(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid session subject"))
		return
	}
	req, ok := httputil.Decode[noteCreateRequest](w, r, h.logger, ctx)
	if !ok {
		return
	}
	visibility, err := vault.ParseNoteVisibility(req.Visibility)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	note, err := h.vault.CreateNote(ctx, ownerID, req.Title, req.Content, visibility, req.Category)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, fromNote(note))
}

// HandleNoteList handles GET /vault/notes for the authenticated owner.
func (h *Handler) HandleNoteList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, err := domain.ParseOwnerID(middleware.GetOwnerID(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid session subject"))
		return
	}
	notes, err := h.vault.ListNotes(ctx, ownerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"notes": fromNotes(notes)})
}
