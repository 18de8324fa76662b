package handlers

import (
	"net/http"

	"desa-feedback-system/pkg/middleware"
	"desa-feedback-system/pkg/queue"
	"desa-feedback-system/pkg/response"
	"desa-feedback-system/services/api-service/auth"
	"desa-feedback-system/services/api-service/reconcile"
	"desa-feedback-system/services/api-service/store"
	"desa-feedback-system/services/api-service/upload"
)

const (
	maxLaporanFiles    = 5
	maxPengumumanFiles = 3
	maxMultipartMemory = 32 << 20
)

// App carries every collaborator the handlers need. It is built once in main
// and injected; the handlers hold no package-level state.
type App struct {
	Admins     store.AdminStore
	Laporan    store.LaporanStore
	Pengumuman store.PengumumanStore
	Uploader   upload.Uploader
	Cleaner    *reconcile.Cleaner
	Tokens     auth.Tokens
	Publisher  *queue.Publisher
	JWTSecret  []byte
}

// Routes wires the HTTP surface onto a fresh mux. Admin-only operations sit
// behind the bearer gate; both list endpoints stay public.
func (a *App) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	admin := middleware.RequireAdmin(a.JWTSecret)

	mux.HandleFunc("/api/admin/register", methodOnly(http.MethodPost, a.register))
	mux.HandleFunc("/api/admin/login", methodOnly(http.MethodPost, a.login))

	mux.HandleFunc("/api/laporan", a.laporanCollection)
	mux.HandleFunc("/api/laporan/", admin(a.laporanDetail))

	mux.HandleFunc("/api/pengumuman", a.pengumumanCollection(admin))
	mux.HandleFunc("/api/pengumuman/", admin(a.pengumumanDetail))

	mux.HandleFunc("/health", a.health)
	mux.Handle("/metrics", middleware.GetMetricsHandler())

	return mux
}

func methodOnly(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			response.Error(w, http.StatusMethodNotAllowed, "Method not allowed", "")
			return
		}
		next(w, r)
	}
}

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{
		"status":  "UP",
		"service": "api-service",
	})
}
