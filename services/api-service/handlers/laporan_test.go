package handlers

import (
	"context"
	"net/http"
	"testing"

	"desa-feedback-system/pkg/media"
	"desa-feedback-system/services/api-service/models"
)

func laporanFields() map[string]string {
	return map[string]string{
		"name":        "Budi",
		"phone":       "08123456789",
		"category":    "Sampah",
		"title":       "Tumpukan sampah di RT 03",
		"description": "Sampah menumpuk di depan balai warga sejak minggu lalu.",
	}
}

func TestCreateLaporan(t *testing.T) {
	app, f := newTestApp()

	req := multipartRequest(t, http.MethodPost, "/api/laporan", laporanFields(),
		map[string][]string{"files": {"foto.jpg", "surat.pdf"}})
	rr := serve(app, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rr.Code, rr.Body.String())
	}

	var saved models.Laporan
	decodeData(t, rr, &saved)
	if saved.Status != models.StatusPending || saved.Priority != models.PriorityLow {
		t.Fatalf("defaults = %s/%s, want pending/low", saved.Status, saved.Priority)
	}
	if len(saved.Attachments) != 2 {
		t.Fatalf("attachments = %d, want 2", len(saved.Attachments))
	}
	if saved.Attachments[0].Kind != media.KindImage {
		t.Fatalf("first attachment kind = %s, want image", saved.Attachments[0].Kind)
	}
	if saved.Attachments[1].Kind != media.KindRaw {
		t.Fatalf("second attachment kind = %s, want raw", saved.Attachments[1].Kind)
	}
	if len(f.laporan.records) != 1 {
		t.Fatalf("stored records = %d, want 1", len(f.laporan.records))
	}
}

func TestCreateLaporanRequiresFields(t *testing.T) {
	for _, missing := range []string{"name", "category", "title", "description"} {
		t.Run(missing, func(t *testing.T) {
			app, f := newTestApp()
			fields := laporanFields()
			delete(fields, missing)
			rr := serve(app, multipartRequest(t, http.MethodPost, "/api/laporan", fields, nil))
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rr.Code)
			}
			if f.uploader.calls != 0 {
				t.Fatal("upload ran despite rejected input")
			}
		})
	}
}

func TestCreateLaporanPhoneOptional(t *testing.T) {
	app, _ := newTestApp()
	fields := laporanFields()
	delete(fields, "phone")
	rr := serve(app, multipartRequest(t, http.MethodPost, "/api/laporan", fields, nil))
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rr.Code, rr.Body.String())
	}
}

func TestCreateLaporanTooManyFiles(t *testing.T) {
	app, f := newTestApp()
	files := []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg", "e.jpg", "f.jpg"}
	rr := serve(app, multipartRequest(t, http.MethodPost, "/api/laporan", laporanFields(),
		map[string][]string{"files": files}))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if f.uploader.calls != 0 {
		t.Fatal("upload ran despite too many files")
	}
}

func TestCreateLaporanUnsupportedType(t *testing.T) {
	app, f := newTestApp()
	rr := serve(app, multipartRequest(t, http.MethodPost, "/api/laporan", laporanFields(),
		map[string][]string{"files": {"foto.jpg", "virus.exe"}}))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rr.Code, rr.Body.String())
	}
	if len(f.laporan.records) != 0 {
		t.Fatal("record saved despite unsupported attachment")
	}
}

func TestListLaporanIsPublic(t *testing.T) {
	app, f := newTestApp()
	f.laporan.Insert(context.Background(), models.Laporan{Name: "Budi", Category: "Jalan", Title: "t", Description: "d"})

	rr := serve(app, httptestGet("/api/laporan"))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var list []models.Laporan
	decodeData(t, rr, &list)
	if len(list) != 1 {
		t.Fatalf("list length = %d, want 1", len(list))
	}
}

func TestUpdateLaporanTriage(t *testing.T) {
	app, f := newTestApp()
	saved, _ := f.laporan.Insert(context.Background(), models.Laporan{Name: "Budi", Category: "Air", Title: "t", Description: "d"})
	token := adminToken(t, app)

	req := jsonRequest(t, http.MethodPut, "/api/laporan/"+saved.ID.Hex(),
		map[string]string{"status": models.StatusInProgress})
	req.Header.Set("Authorization", "Bearer "+token)
	rr := serve(app, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}

	var updated models.Laporan
	decodeData(t, rr, &updated)
	if updated.Status != models.StatusInProgress {
		t.Fatalf("status = %s, want in-progress", updated.Status)
	}
	// Omitted priority stays untouched.
	if updated.Priority != models.PriorityLow {
		t.Fatalf("priority = %s, want low", updated.Priority)
	}
}

func TestUpdateLaporanInvalidVocabulary(t *testing.T) {
	app, f := newTestApp()
	saved, _ := f.laporan.Insert(context.Background(), models.Laporan{Name: "Budi", Category: "Air", Title: "t", Description: "d"})
	token := adminToken(t, app)

	for _, payload := range []map[string]string{
		{"status": "done"},
		{"priority": "urgent"},
	} {
		req := jsonRequest(t, http.MethodPut, "/api/laporan/"+saved.ID.Hex(), payload)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := serve(app, req)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("payload %v: status = %d, want 400", payload, rr.Code)
		}
	}
	if f.laporan.updates != 0 {
		t.Fatalf("store updates = %d, want 0", f.laporan.updates)
	}
}

func TestUpdateLaporanNotFound(t *testing.T) {
	app, _ := newTestApp()
	token := adminToken(t, app)

	req := jsonRequest(t, http.MethodPut, "/api/laporan/0123456789abcdef01234567",
		map[string]string{"status": models.StatusResolved})
	req.Header.Set("Authorization", "Bearer "+token)
	if rr := serve(app, req); rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestUpdateLaporanRequiresAuth(t *testing.T) {
	app, f := newTestApp()
	saved, _ := f.laporan.Insert(context.Background(), models.Laporan{Name: "Budi", Category: "Air", Title: "t", Description: "d"})

	req := jsonRequest(t, http.MethodPut, "/api/laporan/"+saved.ID.Hex(),
		map[string]string{"status": models.StatusResolved})
	rr := serve(app, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
	if f.laporan.updates != 0 {
		t.Fatal("store touched despite missing token")
	}
}

func TestDeleteLaporanCleansUpPerKind(t *testing.T) {
	app, f := newTestApp()
	saved, _ := f.laporan.Insert(context.Background(), models.Laporan{
		Name: "Budi", Category: "Jalan", Title: "t", Description: "d",
		Attachments: []models.Attachment{
			{StorageKey: "kritik_saran_desa/image/a", Kind: media.KindImage},
			{StorageKey: "kritik_saran_desa/video/b", Kind: media.KindVideo},
			{StorageKey: "kritik_saran_desa/raw/c", Kind: media.KindRaw},
		},
	})
	token := adminToken(t, app)

	req := jsonRequest(t, http.MethodDelete, "/api/laporan/"+saved.ID.Hex(), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := serve(app, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
	if len(f.laporan.records) != 0 {
		t.Fatal("record still present after delete")
	}

	// One batch per kind, each carrying only its own keys.
	if len(f.media.batches) != 3 {
		t.Fatalf("kinds deleted = %d, want 3", len(f.media.batches))
	}
	for kind, want := range map[media.Kind]string{
		media.KindImage: "kritik_saran_desa/image/a",
		media.KindVideo: "kritik_saran_desa/video/b",
		media.KindRaw:   "kritik_saran_desa/raw/c",
	} {
		batches := f.media.batches[kind]
		if len(batches) != 1 || len(batches[0]) != 1 || batches[0][0] != want {
			t.Fatalf("batches for %s = %v, want one batch [%s]", kind, batches, want)
		}
	}
}

func TestDeleteLaporanSucceedsWhenRemoteFails(t *testing.T) {
	app, f := newTestApp()
	f.media.failAll = true
	saved, _ := f.laporan.Insert(context.Background(), models.Laporan{
		Name: "Budi", Category: "Jalan", Title: "t", Description: "d",
		Attachments: []models.Attachment{{StorageKey: "kritik_saran_desa/image/a", Kind: media.KindImage}},
	})
	token := adminToken(t, app)

	req := jsonRequest(t, http.MethodDelete, "/api/laporan/"+saved.ID.Hex(), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := serve(app, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
	if len(f.laporan.records) != 0 {
		t.Fatal("record still present after delete")
	}
}
