package handlers

import (
	"net/http"

	"github.com/storecomponentes/store-app/internal/auth"
	"github.com/storecomponentes/store-app/internal/models"
	"github.com/storecomponentes/store-app/internal/password"
	"github.com/storecomponentes/store-app/internal/validation"
)

// Index renders the home page with the featured catalog selection.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	featured, err := models.FeaturedProducts(h.DB, 6)
	if err != nil {
		h.serverError(w, err)
		return
	}
	categories, err := models.ProductCategories(h.DB)
	if err != nil {
		h.serverError(w, err)
		return
	}
	h.render(w, r, "index.html", map[string]any{
		"Title":      "Inicio",
		"Destacados": featured,
		"Categorias": categories,
	})
}

func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if auth.FromContext(r.Context()) != nil {
		redirect(w, r, "/")
		return
	}
	h.render(w, r, "login.html", map[string]any{"Title": "Iniciar sesión"})
}

// Login authenticates the posted credentials. The same message covers an
// unknown username and a wrong password.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	candidate := r.FormValue("password")

	user, err := models.FindUserByUsername(h.DB, username)
	if err != nil {
		h.serverError(w, err)
		return
	}
	if user == nil {
		setFlash(w, "danger", "Nombre de usuario o contraseña incorrectos")
		redirect(w, r, "/login")
		return
	}
	ok, err := password.Verify(user.Password, candidate)
	if err != nil {
		h.serverError(w, err)
		return
	}
	if !ok {
		setFlash(w, "danger", "Nombre de usuario o contraseña incorrectos")
		redirect(w, r, "/login")
		return
	}
	auth.CreateSession(w, auth.Session{UserID: user.ID, Username: user.Username, IsAdmin: user.EsAdmin})
	setFlash(w, "success", "Bienvenido, "+user.Username)
	redirect(w, r, "/")
}

func (h *Handler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	if auth.FromContext(r.Context()) != nil {
		redirect(w, r, "/")
		return
	}
	h.render(w, r, "registro.html", map[string]any{"Title": "Registro", "Username": "", "Email": ""})
}

// Register creates a customer account after validating the form.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	email := r.FormValue("email")
	plain := r.FormValue("password")
	confirm := r.FormValue("confirmar_password")

	v := validation.Violations{}
	validation.Required("username", username, v)
	validation.Required("email", email, v)
	validation.Required("password", plain, v)
	validation.MinLength("password", plain, 6, v)
	if plain != confirm {
		v["confirmar_password"] = "mismatch"
	}

	if !v.Empty() {
		msg := "Todos los campos son obligatorios"
		switch {
		case v["confirmar_password"] == "mismatch":
			msg = "Las contraseñas no coinciden"
		case v["password"] == "too_short":
			msg = "La contraseña debe tener al menos 6 caracteres"
		}
		h.render(w, r, "registro.html", map[string]any{
			"Title": "Registro", "Username": username, "Email": email,
			"Flash": &Flash{Level: "danger", Message: msg},
		})
		return
	}

	existing, err := models.FindUserByUsername(h.DB, username)
	if err != nil {
		h.serverError(w, err)
		return
	}
	if existing != nil {
		h.render(w, r, "registro.html", map[string]any{
			"Title": "Registro", "Username": username, "Email": email,
			"Flash": &Flash{Level: "danger", Message: "El nombre de usuario ya está en uso"},
		})
		return
	}

	digest, err := password.Hash(plain)
	if err != nil {
		h.serverError(w, err)
		return
	}
	user := models.User{Username: username, Email: email, Password: digest}
	if _, err := user.Save(h.DB); err != nil {
		h.serverError(w, err)
		return
	}
	setFlash(w, "success", "Usuario registrado correctamente. Ya puedes iniciar sesión")
	redirect(w, r, "/login")
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	setFlash(w, "success", "Has cerrado sesión")
	redirect(w, r, "/")
}
