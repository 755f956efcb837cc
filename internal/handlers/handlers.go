// Package handlers implements the HTTP endpoints: server-rendered pages with
// PRG redirects and flash messages, plus the JSON API consumed by the
// dashboard scripts.
package handlers

import (
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/storecomponentes/store-app/internal/auth"
	"github.com/storecomponentes/store-app/internal/config"
	"github.com/storecomponentes/store-app/internal/view"
)

// Handler carries the shared dependencies of every endpoint.
type Handler struct {
	DB  *gorm.DB
	Cfg config.Config
}

func New(db *gorm.DB, cfg config.Config) *Handler {
	return &Handler{DB: db, Cfg: cfg}
}

const flashCookieName = "flash"

// Flash is a one-shot message surfaced on the next rendered page. Level is a
// bootstrap alert class: success, danger or warning.
type Flash struct {
	Level   string
	Message string
}

func setFlash(w http.ResponseWriter, level, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    url.QueryEscape(level + "|" + message),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func popFlash(w http.ResponseWriter, r *http.Request) *Flash {
	c, err := r.Cookie(flashCookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookieName, Value: "", Path: "/", MaxAge: -1})
	raw, err := url.QueryUnescape(c.Value)
	if err != nil {
		return nil
	}
	level, message, ok := strings.Cut(raw, "|")
	if !ok {
		return &Flash{Level: "success", Message: raw}
	}
	return &Flash{Level: level, Message: message}
}

// render wraps view.Render, injecting the session and any pending flash.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	data["Session"] = auth.FromContext(r.Context())
	if f := popFlash(w, r); f != nil {
		data["Flash"] = f
	}
	if err := view.Render(w, name, data); err != nil {
		log.Printf("render %s: %v", name, err)
		http.Error(w, "error interno", http.StatusInternalServerError)
	}
}

func (h *Handler) serverError(w http.ResponseWriter, err error) {
	log.Printf("handler error: %v", err)
	http.Error(w, "error interno", http.StatusInternalServerError)
}

// redirect issues the PRG redirect used after every mutating form post.
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func uitoa(id uint) string { return strconv.FormatUint(uint64(id), 10) }

func sessionFrom(r *http.Request) *auth.Session { return auth.FromContext(r.Context()) }

func pathID(r *http.Request) (uint, bool) {
	n, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// requireLogin redirects anonymous requests to the login page and returns the
// session otherwise.
func (h *Handler) requireLogin(w http.ResponseWriter, r *http.Request) *auth.Session {
	s := auth.FromContext(r.Context())
	if s == nil {
		setFlash(w, "warning", "Debes iniciar sesión para acceder a esta página")
		redirect(w, r, "/login")
		return nil
	}
	return s
}

// requireAdmin additionally rejects non-admin sessions with a flash and a
// redirect home.
func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) *auth.Session {
	s := h.requireLogin(w, r)
	if s == nil {
		return nil
	}
	if !s.IsAdmin {
		setFlash(w, "danger", "No tienes permisos para acceder a esta página")
		redirect(w, r, "/")
		return nil
	}
	return s
}

// dateRange parses the fecha_desde / fecha_hasta filter fields. The upper
// bound is pushed to the end of its day so the named date is inclusive.
func dateRange(r *http.Request) (desde, hasta *time.Time) {
	if v := r.FormValue("fecha_desde"); v != "" {
		if t, err := time.ParseInLocation("2006-01-02", v, time.Local); err == nil {
			desde = &t
		}
	}
	if v := r.FormValue("fecha_hasta"); v != "" {
		if t, err := time.ParseInLocation("2006-01-02", v, time.Local); err == nil {
			end := t.Add(24*time.Hour - time.Second)
			hasta = &end
		}
	}
	return desde, hasta
}

func formFloat(r *http.Request, field string) float64 {
	v, _ := strconv.ParseFloat(strings.ReplaceAll(r.FormValue(field), ",", "."), 64)
	return v
}

func formInt(r *http.Request, field string) int {
	v, _ := strconv.Atoi(r.FormValue(field))
	return v
}

func formUint(r *http.Request, field string) uint {
	v, _ := strconv.ParseUint(r.FormValue(field), 10, 32)
	return uint(v)
}

func queryInt(r *http.Request, field string, def int) int {
	if v := r.URL.Query().Get(field); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
