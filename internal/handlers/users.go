package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/iqac-smarttrack/apiserver/internal/services"
	"github.com/iqac-smarttrack/apiserver/types"
	"github.com/sirupsen/logrus"
)

// UserHandler provides read-only user endpoints.
type UserHandler struct {
	userService    *services.UserService
	facultyService *services.FacultyService
	logger         logrus.FieldLogger
}

func NewUserHandler(userService *services.UserService, facultyService *services.FacultyService, logger logrus.FieldLogger) *UserHandler {
	return &UserHandler{userService: userService, facultyService: facultyService, logger: logger}
}

// UserRouter registers user routes on the given router.
func UserRouter(r chi.Router, handler *UserHandler) {
	r.Get("/", handler.ListUsers)
	r.Get("/{userID}", handler.GetUser)
}

// FacultyRouter registers the faculty directory on the given router.
func FacultyRouter(r chi.Router, handler *UserHandler) {
	r.Get("/", handler.Directory)
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	role, ok := parseRoleParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid role")
		return
	}
	users, err := h.userService.List(r.Context(), role)
	if err != nil {
		writeServiceError(w, h.logger, err, "list users", "user")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetByID(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeServiceError(w, h.logger, err, "fetch user", "user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) Directory(w http.ResponseWriter, r *http.Request) {
	role, ok := parseRoleParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid role")
		return
	}
	members, err := h.facultyService.Directory(r.Context(), services.FacultyQuery{
		Role:   role,
		Search: r.URL.Query().Get("q"),
	})
	if err != nil {
		writeServiceError(w, h.logger, err, "list faculty", "user")
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func parseRoleParam(r *http.Request) (types.Role, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("role"))
	if raw == "" {
		return "", true
	}
	return types.ParseRole(raw)
}
