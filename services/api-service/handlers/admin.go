package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"desa-feedback-system/pkg/response"
	"desa-feedback-system/services/api-service/auth"
	"desa-feedback-system/services/api-service/models"
	"desa-feedback-system/services/api-service/store"
)

// invalidCredentials is returned for unknown usernames and wrong passwords
// alike, so the response never reveals which half failed.
const invalidCredentials = "Invalid username or password"

func (a *App) register(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", "")
		return
	}

	if input.Username == "" || input.Password == "" {
		response.Error(w, http.StatusBadRequest, "Username and password must not be empty", "")
		return
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		log.Printf("[ERROR] Failed to hash password: %v", err)
		response.Error(w, http.StatusInternalServerError, "Failed to process registration", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, err := a.Admins.Insert(ctx, models.Admin{
		Username:     input.Username,
		PasswordHash: hash,
	})
	if errors.Is(err, store.ErrDuplicate) {
		response.Error(w, http.StatusBadRequest, "Username already taken", "")
		return
	}
	if err != nil {
		log.Printf("[ERROR] Failed to save admin: %v", err)
		response.Error(w, http.StatusInternalServerError, "Failed to register admin", "")
		return
	}

	log.Printf("[OK] Admin registered - ID: %s", id)
	response.Success(w, http.StatusCreated, "Admin registered successfully", map[string]string{"id": id})
}

func (a *App) login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", "")
		return
	}

	if input.Username == "" || input.Password == "" {
		response.Error(w, http.StatusBadRequest, "Username and password must not be empty", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	admin, err := a.Admins.FindByUsername(ctx, input.Username)
	if errors.Is(err, store.ErrNotFound) {
		log.Printf("[WARN] Failed login attempt")
		response.Error(w, http.StatusUnauthorized, invalidCredentials, "")
		return
	}
	if err != nil {
		log.Printf("[ERROR] Failed to look up admin: %v", err)
		response.Error(w, http.StatusInternalServerError, "Failed to process login", "")
		return
	}

	if !auth.CheckPasswordHash(input.Password, admin.PasswordHash) {
		log.Printf("[WARN] Failed login attempt")
		response.Error(w, http.StatusUnauthorized, invalidCredentials, "")
		return
	}

	token, err := a.Tokens.Issue(admin.ID.Hex(), admin.Username)
	if err != nil {
		log.Printf("[ERROR] Failed to issue token for admin id: %s", admin.ID.Hex())
		response.Error(w, http.StatusInternalServerError, "Failed to generate token", "")
		return
	}

	log.Printf("[OK] Admin logged in - ID: %s", admin.ID.Hex())
	response.Success(w, http.StatusOK, "Login successful", map[string]string{"token": token})
}
