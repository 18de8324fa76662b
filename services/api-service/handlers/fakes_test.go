package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"desa-feedback-system/pkg/media"
	"desa-feedback-system/services/api-service/auth"
	"desa-feedback-system/services/api-service/models"
	"desa-feedback-system/services/api-service/reconcile"
	"desa-feedback-system/services/api-service/store"
	"desa-feedback-system/services/api-service/upload"
)

var testSecret = []byte("test-secret")

type fakeAdmins struct {
	admins  map[string]models.Admin
	inserts int
}

func (f *fakeAdmins) Insert(ctx context.Context, admin models.Admin) (string, error) {
	if _, ok := f.admins[admin.Username]; ok {
		return "", store.ErrDuplicate
	}
	admin.ID = primitive.NewObjectID()
	admin.CreatedAt = time.Now()
	f.admins[admin.Username] = admin
	f.inserts++
	return admin.ID.Hex(), nil
}

func (f *fakeAdmins) FindByUsername(ctx context.Context, username string) (models.Admin, error) {
	admin, ok := f.admins[username]
	if !ok {
		return models.Admin{}, store.ErrNotFound
	}
	return admin, nil
}

type fakeLaporan struct {
	records []models.Laporan
	updates int
}

func (f *fakeLaporan) Insert(ctx context.Context, l models.Laporan) (models.Laporan, error) {
	l.ID = primitive.NewObjectID()
	now := time.Now()
	l.CreatedAt = now
	l.UpdatedAt = now
	if l.Status == "" {
		l.Status = models.StatusPending
	}
	if l.Priority == "" {
		l.Priority = models.PriorityLow
	}
	if l.Attachments == nil {
		l.Attachments = []models.Attachment{}
	}
	f.records = append(f.records, l)
	return l, nil
}

func (f *fakeLaporan) All(ctx context.Context) ([]models.Laporan, error) {
	out := append([]models.Laporan(nil), f.records...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeLaporan) UpdateTriage(ctx context.Context, id, status, priority string) (models.Laporan, error) {
	f.updates++
	for i := range f.records {
		if f.records[i].ID.Hex() == id {
			if status != "" {
				f.records[i].Status = status
			}
			if priority != "" {
				f.records[i].Priority = priority
			}
			f.records[i].UpdatedAt = time.Now()
			return f.records[i], nil
		}
	}
	return models.Laporan{}, store.ErrNotFound
}

func (f *fakeLaporan) Delete(ctx context.Context, id string) (models.Laporan, error) {
	for i := range f.records {
		if f.records[i].ID.Hex() == id {
			deleted := f.records[i]
			f.records = append(f.records[:i], f.records[i+1:]...)
			return deleted, nil
		}
	}
	return models.Laporan{}, store.ErrNotFound
}

type fakePengumuman struct {
	records  []models.Pengumuman
	replaces int
}

func (f *fakePengumuman) Insert(ctx context.Context, p models.Pengumuman) (models.Pengumuman, error) {
	p.ID = primitive.NewObjectID()
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Attachments == nil {
		p.Attachments = []models.Attachment{}
	}
	f.records = append(f.records, p)
	return p, nil
}

func (f *fakePengumuman) All(ctx context.Context) ([]models.Pengumuman, error) {
	out := append([]models.Pengumuman(nil), f.records...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakePengumuman) Get(ctx context.Context, id string) (models.Pengumuman, error) {
	for _, p := range f.records {
		if p.ID.Hex() == id {
			return p, nil
		}
	}
	return models.Pengumuman{}, store.ErrNotFound
}

func (f *fakePengumuman) Replace(ctx context.Context, id, title, body string, attachments []models.Attachment) (models.Pengumuman, error) {
	f.replaces++
	for i := range f.records {
		if f.records[i].ID.Hex() == id {
			f.records[i].Title = title
			f.records[i].Body = body
			f.records[i].Attachments = attachments
			f.records[i].UpdatedAt = time.Now()
			return f.records[i], nil
		}
	}
	return models.Pengumuman{}, store.ErrNotFound
}

func (f *fakePengumuman) Delete(ctx context.Context, id string) (models.Pengumuman, error) {
	for i := range f.records {
		if f.records[i].ID.Hex() == id {
			deleted := f.records[i]
			f.records = append(f.records[:i], f.records[i+1:]...)
			return deleted, nil
		}
	}
	return models.Pengumuman{}, store.ErrNotFound
}

// fakeUploader classifies like the real uploader but stores nothing.
type fakeUploader struct {
	seq   int
	calls int
}

func (f *fakeUploader) UploadAll(ctx context.Context, files []*multipart.FileHeader) ([]models.Attachment, error) {
	f.calls++
	atts := make([]models.Attachment, 0, len(files))
	for _, fh := range files {
		kind, ok := media.KindForFilename(fh.Filename)
		if !ok {
			return nil, fmt.Errorf("%w: %s", upload.ErrUnsupportedType, fh.Filename)
		}
		f.seq++
		key := fmt.Sprintf("kritik_saran_desa/%s/upload-%d", kind, f.seq)
		atts = append(atts, models.Attachment{
			URL:          "https://cdn.test/" + key,
			StorageKey:   key,
			OriginalName: fh.Filename,
			Kind:         kind,
		})
	}
	return atts, nil
}

type fakeMedia struct {
	mu      sync.Mutex
	batches map[media.Kind][][]string
	failAll bool
}

func (f *fakeMedia) BatchDelete(ctx context.Context, kind media.Kind, keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.batches == nil {
		f.batches = make(map[media.Kind][][]string)
	}
	f.batches[kind] = append(f.batches[kind], keys)
	if f.failAll {
		return errors.New("remote unavailable")
	}
	return nil
}

type fixtures struct {
	admins     *fakeAdmins
	laporan    *fakeLaporan
	pengumuman *fakePengumuman
	uploader   *fakeUploader
	media      *fakeMedia
}

func newTestApp() (*App, *fixtures) {
	f := &fixtures{
		admins:     &fakeAdmins{admins: map[string]models.Admin{}},
		laporan:    &fakeLaporan{},
		pengumuman: &fakePengumuman{},
		uploader:   &fakeUploader{},
		media:      &fakeMedia{},
	}
	app := &App{
		Admins:     f.admins,
		Laporan:    f.laporan,
		Pengumuman: f.pengumuman,
		Uploader:   f.uploader,
		Cleaner:    reconcile.NewCleaner(f.media, nil),
		Tokens:     auth.NewTokens(testSecret, time.Hour),
		JWTSecret:  testSecret,
	}
	return app, f
}

func adminToken(t *testing.T, app *App) string {
	t.Helper()
	token, err := app.Tokens.Issue(primitive.NewObjectID().Hex(), "admin")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func jsonRequest(t *testing.T, method, url string, payload interface{}) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// multipartRequest builds a form request; files maps a field name to file
// names, each filled with throwaway bytes.
func multipartRequest(t *testing.T, method, url string, fields map[string]string, files map[string][]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	for field, names := range files {
		for _, name := range names {
			fw, err := mw.CreateFormFile(field, name)
			if err != nil {
				t.Fatalf("create file %s: %v", name, err)
			}
			if _, err := fw.Write([]byte("file-bytes")); err != nil {
				t.Fatalf("write file %s: %v", name, err)
			}
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func httptestGet(url string) *http.Request {
	return httptest.NewRequest(http.MethodGet, url, nil)
}

func serve(app *App, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	app.Routes().ServeHTTP(rr, req)
	return rr
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return env
}

func decodeData(t *testing.T, rr *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	env := decodeEnvelope(t, rr)
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("decode data %q: %v", string(env.Data), err)
	}
}
