// Package view renders the HTML templates with a shared layout, a parsed
// template cache and the app-wide func map.
package view

import (
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

var (
	baseDir string
	once    sync.Once

	tplCache = struct {
		sync.RWMutex
		m map[string]*template.Template
	}{m: map[string]*template.Template{}}
)

// Detect templates directory whether running from the repo root or a package
// dir (tests run with the package as working directory).
func detectBase() {
	candidates := []string{"templates", "../templates", "../../templates"}
	for _, c := range candidates {
		if fi, err := os.Stat(filepath.Clean(c)); err == nil && fi.IsDir() {
			baseDir = filepath.Clean(c)
			return
		}
	}
	baseDir = "templates"
}

// Funcs returns the standard template func map.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"fecha": func(t time.Time, layout string) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(layout)
		},
		"fechaHora": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02/01/2006 15:04")
		},
		"dinero": func(v float64) string { return fmt.Sprintf("%.2f €", v) },
		"subtotal": func(precio float64, cantidad int) float64 {
			return precio * float64(cantidad)
		},
		"nl2br": func(s string) template.HTML {
			esc := template.HTMLEscapeString(s)
			return template.HTML(strings.ReplaceAll(esc, "\n", "<br>"))
		},
		"deref": func(p *uint) uint {
			if p == nil {
				return 0
			}
			return *p
		},
		"year": func() int { return time.Now().Year() },
	}
}

func load(name string) (*template.Template, error) {
	once.Do(detectBase)
	tplCache.RLock()
	if t, ok := tplCache.m[name]; ok && os.Getenv("DEV") != "1" {
		tplCache.RUnlock()
		return t, nil
	}
	tplCache.RUnlock()

	t, err := template.New("layout.html").Funcs(Funcs()).ParseFiles(
		filepath.Join(baseDir, "layout.html"),
		filepath.Join(baseDir, name),
	)
	if err != nil {
		return nil, err
	}
	tplCache.Lock()
	tplCache.m[name] = t
	tplCache.Unlock()
	return t, nil
}

// Render writes the named page wrapped in the shared layout.
func Render(w http.ResponseWriter, name string, data map[string]any) error {
	t, err := load(name)
	if err != nil {
		return err
	}
	if data == nil {
		data = map[string]any{}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return t.ExecuteTemplate(w, "layout.html", data)
}
