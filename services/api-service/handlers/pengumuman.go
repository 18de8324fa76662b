package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"desa-feedback-system/pkg/response"
	"desa-feedback-system/services/api-service/models"
	"desa-feedback-system/services/api-service/reconcile"
	"desa-feedback-system/services/api-service/store"
	"desa-feedback-system/services/api-service/upload"
)

func (a *App) pengumumanCollection(admin func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	create := admin(a.createPengumuman)
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			a.listPengumuman(w, r)
		case http.MethodPost:
			create(w, r)
		default:
			response.Error(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		}
	}
}

func (a *App) pengumumanDetail(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/pengumuman/")
	if id == "" || strings.Contains(id, "/") {
		response.Error(w, http.StatusNotFound, "Pengumuman not found", "")
		return
	}

	switch r.Method {
	case http.MethodPut:
		a.updatePengumuman(w, r, id)
	case http.MethodDelete:
		a.deletePengumuman(w, r, id)
	default:
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed", "")
	}
}

func (a *App) listPengumuman(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	pengumuman, err := a.Pengumuman.All(ctx)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to fetch pengumuman", err.Error())
		return
	}
	response.Success(w, http.StatusOK, "Pengumuman fetched successfully", pengumuman)
}

func (a *App) createPengumuman(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid multipart form", err.Error())
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	body := strings.TrimSpace(r.FormValue("body"))
	if title == "" || body == "" {
		response.Error(w, http.StatusBadRequest, "Title and Body are required", "")
		return
	}

	files := formFiles(r, "imageUrls")
	if len(files) > maxPengumumanFiles {
		response.Error(w, http.StatusBadRequest, fmt.Sprintf("At most %d files are allowed", maxPengumumanFiles), "")
		return
	}

	// Create accepts zero attachments; updates enforce a non-empty result.
	uploadCtx, cancelUpload := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancelUpload()

	attachments, err := a.Uploader.UploadAll(uploadCtx, files)
	if err != nil {
		if errors.Is(err, upload.ErrUnsupportedType) {
			response.Error(w, http.StatusBadRequest, "Unsupported file type", err.Error())
			return
		}
		log.Printf("[ERROR] Failed to upload attachments: %v", err)
		response.Error(w, http.StatusInternalServerError, "Failed to store attachments", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	saved, err := a.Pengumuman.Insert(ctx, models.Pengumuman{
		Title:       title,
		Body:        body,
		Attachments: attachments,
	})
	if err != nil {
		log.Printf("[ERROR] Failed to save pengumuman: %v", err)
		response.Error(w, http.StatusBadRequest, "Failed to save pengumuman", err.Error())
		return
	}

	log.Printf("[OK] Pengumuman saved - ID: %s", saved.ID.Hex())
	response.Success(w, http.StatusCreated, "Pengumuman created successfully", saved)
}

func (a *App) updatePengumuman(w http.ResponseWriter, r *http.Request, id string) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid multipart form", err.Error())
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	body := strings.TrimSpace(r.FormValue("body"))
	if title == "" || body == "" {
		response.Error(w, http.StatusBadRequest, "Title and Body are required", "")
		return
	}

	keep, err := reconcile.ParseKeepList(r.FormValue("existingFiles"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Malformed existingFiles payload", err.Error())
		return
	}

	files := formFiles(r, "imageUrls")
	if len(files) > maxPengumumanFiles {
		response.Error(w, http.StatusBadRequest, fmt.Sprintf("At most %d files are allowed", maxPengumumanFiles), "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	current, err := a.Pengumuman.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		response.Error(w, http.StatusNotFound, "Pengumuman not found", "")
		return
	}
	if err != nil {
		log.Printf("[ERROR] Failed to fetch pengumuman %s: %v", id, err)
		response.Error(w, http.StatusInternalServerError, "Failed to fetch pengumuman", err.Error())
		return
	}

	kept, dropped := reconcile.Diff(current.Attachments, keep)

	// Reject before any upload or deletion when the edit would leave the
	// record without a single attachment.
	if len(kept) == 0 && len(files) == 0 {
		response.Error(w, http.StatusBadRequest, "Pengumuman must keep at least one attachment", "")
		return
	}

	uploadCtx, cancelUpload := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancelUpload()

	uploaded, err := a.Uploader.UploadAll(uploadCtx, files)
	if err != nil {
		if errors.Is(err, upload.ErrUnsupportedType) {
			response.Error(w, http.StatusBadRequest, "Unsupported file type", err.Error())
			return
		}
		log.Printf("[ERROR] Failed to upload attachments: %v", err)
		response.Error(w, http.StatusInternalServerError, "Failed to store attachments", "")
		return
	}

	final := reconcile.Merge(kept, uploaded)

	saveCtx, cancelSave := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancelSave()

	updated, err := a.Pengumuman.Replace(saveCtx, id, title, body, final)
	if errors.Is(err, store.ErrNotFound) {
		response.Error(w, http.StatusNotFound, "Pengumuman not found", "")
		return
	}
	if err != nil {
		log.Printf("[ERROR] Failed to update pengumuman %s: %v", id, err)
		response.Error(w, http.StatusInternalServerError, "Failed to update pengumuman", err.Error())
		return
	}

	// Dropped attachments are only deleted remotely once the record persists
	// without them.
	a.Cleaner.Cleanup(dropped)

	log.Printf("[OK] Pengumuman updated - ID: %s, kept: %d, added: %d, dropped: %d",
		updated.ID.Hex(), len(kept), len(uploaded), len(dropped))
	response.Success(w, http.StatusOK, "Pengumuman updated successfully", updated)
}

func (a *App) deletePengumuman(w http.ResponseWriter, r *http.Request, id string) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	deleted, err := a.Pengumuman.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		response.Error(w, http.StatusNotFound, "Pengumuman not found", "")
		return
	}
	if err != nil {
		log.Printf("[ERROR] Failed to delete pengumuman %s: %v", id, err)
		response.Error(w, http.StatusInternalServerError, "Failed to delete pengumuman", err.Error())
		return
	}

	a.Cleaner.Cleanup(deleted.Attachments)

	response.Success(w, http.StatusOK, "Pengumuman deleted successfully", deleted)
}

func formFiles(r *http.Request, field string) []*multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	return r.MultipartForm.File[field]
}
