package handlers

import (
	"net/http"

	"github.com/storecomponentes/store-app/internal/models"
	"github.com/storecomponentes/store-app/internal/password"
	"github.com/storecomponentes/store-app/internal/validation"
)

// ManageUsers lists accounts for administration, filtered by the q search
// box.
func (h *Handler) ManageUsers(w http.ResponseWriter, r *http.Request) {
	if h.requireAdmin(w, r) == nil {
		return
	}
	q := r.URL.Query().Get("q")
	users, err := models.SearchUsers(h.DB, q)
	if err != nil {
		h.serverError(w, err)
		return
	}
	h.render(w, r, "usuarios_listar.html", map[string]any{
		"Title":    "Gestión de usuarios",
		"Usuarios": users,
		"Busqueda": q,
	})
}

func (h *Handler) EditUserForm(w http.ResponseWriter, r *http.Request) {
	if h.requireAdmin(w, r) == nil {
		return
	}
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	user, err := models.FindUser(h.DB, id)
	if err != nil {
		h.serverError(w, err)
		return
	}
	if user == nil {
		setFlash(w, "danger", "Usuario no encontrado")
		redirect(w, r, "/usuarios/gestionar")
		return
	}
	h.render(w, r, "usuarios_editar.html", map[string]any{
		"Title":   "Editar usuario",
		"Usuario": user,
	})
}

// EditUser updates an account. The password only changes when the form ships
// a new one.
func (h *Handler) EditUser(w http.ResponseWriter, r *http.Request) {
	if h.requireAdmin(w, r) == nil {
		return
	}
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	user, err := models.FindUser(h.DB, id)
	if err != nil {
		h.serverError(w, err)
		return
	}
	if user == nil {
		setFlash(w, "danger", "Usuario no encontrado")
		redirect(w, r, "/usuarios/gestionar")
		return
	}

	username := r.FormValue("username")
	email := r.FormValue("email")
	v := validation.Violations{}
	validation.Required("username", username, v)
	validation.Required("email", email, v)
	if !v.Empty() {
		setFlash(w, "danger", "El nombre de usuario y el email son obligatorios")
		redirect(w, r, "/usuarios/"+r.PathValue("id")+"/editar")
		return
	}

	user.Username = username
	user.Email = email
	user.EsAdmin = r.FormValue("es_admin") != ""
	if plain := r.FormValue("password"); plain != "" {
		if len(plain) < 6 {
			setFlash(w, "danger", "La contraseña debe tener al menos 6 caracteres")
			redirect(w, r, "/usuarios/"+r.PathValue("id")+"/editar")
			return
		}
		digest, err := password.Hash(plain)
		if err != nil {
			h.serverError(w, err)
			return
		}
		user.Password = digest
	}
	if _, err := user.Save(h.DB); err != nil {
		h.serverError(w, err)
		return
	}
	setFlash(w, "success", "Usuario actualizado correctamente")
	redirect(w, r, "/usuarios/gestionar")
}

// DeleteUser removes an account. The admin must re-enter their own password,
// and cannot remove themselves.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	session := h.requireAdmin(w, r)
	if session == nil {
		return
	}
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if id == session.UserID {
		setFlash(w, "danger", "No puedes eliminar tu propia cuenta")
		redirect(w, r, "/usuarios/gestionar")
		return
	}

	admin, err := models.FindUser(h.DB, session.UserID)
	if err != nil {
		h.serverError(w, err)
		return
	}
	if admin == nil {
		setFlash(w, "danger", "Sesión no válida")
		redirect(w, r, "/login")
		return
	}
	okPass, err := password.Verify(admin.Password, r.FormValue("admin_password"))
	if err != nil {
		h.serverError(w, err)
		return
	}
	if !okPass {
		setFlash(w, "danger", "Contraseña de administrador incorrecta")
		redirect(w, r, "/usuarios/gestionar")
		return
	}

	user, err := models.FindUser(h.DB, id)
	if err != nil {
		h.serverError(w, err)
		return
	}
	if user == nil {
		setFlash(w, "danger", "Usuario no encontrado")
		redirect(w, r, "/usuarios/gestionar")
		return
	}
	deleted, err := user.Delete(h.DB)
	if err != nil {
		h.serverError(w, err)
		return
	}
	if deleted {
		setFlash(w, "success", "Usuario eliminado correctamente")
	} else {
		setFlash(w, "warning", "No se pudo eliminar el usuario")
	}
	redirect(w, r, "/usuarios/gestionar")
}
