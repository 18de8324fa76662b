package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"desa-feedback-system/pkg/response"
	"desa-feedback-system/services/api-service/models"
	"desa-feedback-system/services/api-service/store"
	"desa-feedback-system/services/api-service/upload"
)

func (a *App) laporanCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listLaporan(w, r)
	case http.MethodPost:
		a.createLaporan(w, r)
	default:
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed", "")
	}
}

func (a *App) laporanDetail(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/laporan/")
	if id == "" || strings.Contains(id, "/") {
		response.Error(w, http.StatusNotFound, "Laporan not found", "")
		return
	}

	switch r.Method {
	case http.MethodPut:
		a.updateLaporan(w, r, id)
	case http.MethodDelete:
		a.deleteLaporan(w, r, id)
	default:
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed", "")
	}
}

func (a *App) createLaporan(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid multipart form", err.Error())
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	phone := strings.TrimSpace(r.FormValue("phone"))
	category := strings.TrimSpace(r.FormValue("category"))
	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))

	if name == "" || category == "" || title == "" || description == "" {
		response.Error(w, http.StatusBadRequest, "Name, Category, Title, and Description are required", "")
		return
	}

	var files []*multipart.FileHeader
	if r.MultipartForm != nil {
		files = r.MultipartForm.File["files"]
	}
	if len(files) > maxLaporanFiles {
		response.Error(w, http.StatusBadRequest, fmt.Sprintf("At most %d files are allowed", maxLaporanFiles), "")
		return
	}

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

	saved, err := a.Laporan.Insert(ctx, models.Laporan{
		Name:        name,
		Phone:       phone,
		Category:    category,
		Title:       title,
		Description: description,
		Attachments: attachments,
	})
	if err != nil {
		log.Printf("[ERROR] Failed to save laporan: %v", err)
		response.Error(w, http.StatusBadRequest, "Failed to save laporan", err.Error())
		return
	}

	event := models.LaporanEvent{
		ID:        saved.ID.Hex(),
		Name:      saved.Name,
		Category:  saved.Category,
		Title:     saved.Title,
		CreatedAt: saved.CreatedAt,
	}
	if err := a.Publisher.Publish(r.Context(), event); err != nil {
		log.Printf("[WARN] Laporan saved but failed to publish event: %v", err)
	}

	log.Printf("[OK] Laporan saved - ID: %s, attachments: %d", saved.ID.Hex(), len(saved.Attachments))
	response.Success(w, http.StatusCreated, "Laporan submitted successfully", saved)
}

func (a *App) listLaporan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	laporan, err := a.Laporan.All(ctx)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to fetch laporan", err.Error())
		return
	}
	response.Success(w, http.StatusOK, "Laporan fetched successfully", laporan)
}

func (a *App) updateLaporan(w http.ResponseWriter, r *http.Request, id string) {
	var input struct {
		Status   string `json:"status"`
		Priority string `json:"priority"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	if input.Status != "" && !models.ValidStatus(input.Status) {
		response.Error(w, http.StatusBadRequest, "Invalid status", "")
		return
	}
	if input.Priority != "" && !models.ValidPriority(input.Priority) {
		response.Error(w, http.StatusBadRequest, "Invalid priority", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	updated, err := a.Laporan.UpdateTriage(ctx, id, input.Status, input.Priority)
	if errors.Is(err, store.ErrNotFound) {
		response.Error(w, http.StatusNotFound, "Laporan not found", "")
		return
	}
	if err != nil {
		log.Printf("[ERROR] Failed to update laporan %s: %v", id, err)
		response.Error(w, http.StatusInternalServerError, "Failed to update laporan", err.Error())
		return
	}

	response.Success(w, http.StatusOK, "Laporan updated successfully", updated)
}

func (a *App) deleteLaporan(w http.ResponseWriter, r *http.Request, id string) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	deleted, err := a.Laporan.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		response.Error(w, http.StatusNotFound, "Laporan not found", "")
		return
	}
	if err != nil {
		log.Printf("[ERROR] Failed to delete laporan %s: %v", id, err)
		response.Error(w, http.StatusInternalServerError, "Failed to delete laporan", err.Error())
		return
	}

	// The record is gone; remote cleanup is best-effort and never fails the
	// response.
	a.Cleaner.Cleanup(deleted.Attachments)

	response.Success(w, http.StatusOK, "Laporan deleted successfully", deleted)
}
