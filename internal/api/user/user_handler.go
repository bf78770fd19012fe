package user

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/FACorreiaa/devcamper-api/internal/api"
	"github.com/FACorreiaa/devcamper-api/internal/api/query"
	"github.com/FACorreiaa/devcamper-api/internal/types"
)

type HandlerImpl struct {
	userService UserService
	logger      *slog.Logger
}

func NewHandlerImpl(userService UserService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		userService: userService,
		logger:      logger,
	}
}

// Routes mounts the admin user endpoints. Callers guard them with the admin gate.
func (h *HandlerImpl) Routes(builder *query.Builder) chi.Router {
	r := chi.NewRouter()
	r.With(builder.Middleware(query.Users)).Get("/", query.WriteResults)
	r.Post("/", h.CreateUser)
	r.Get("/{id}", h.GetUser)
	r.Put("/{id}", h.UpdateUser)
	r.Delete("/{id}", h.DeleteUser)
	return r
}

// GetUser godoc
// @Summary      Get single user
// @Tags         Users
// @Produce      json
// @Param        id path string true "User ID"
// @Success      200 {object} types.Response
// @Failure      404 {object} types.Response
// @Security     BearerAuth
// @Router       /users/{id} [get]
func (h *HandlerImpl) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := api.URLParamID(r, "id", "user")
	if err != nil {
		api.HandleError(w, r, err)
		return
	}
	u, err := h.userService.Get(r.Context(), id)
	if err != nil {
		api.HandleError(w, r, err)
		return
	}
	api.Success(w, r, http.StatusOK, u)
}

// CreateUser godoc
// @Summary      Create user
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        user body types.CreateUserRequest true "User"
// @Success      201 {object} types.Response
// @Failure      400 {object} types.Response
// @Security     BearerAuth
// @Router       /users [post]
func (h *HandlerImpl) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req types.CreateUserRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.HandleError(w, r, err)
		return
	}
	u, err := h.userService.Create(r.Context(), req)
	if err != nil {
		api.HandleError(w, r, err)
		return
	}
	api.Success(w, r, http.StatusCreated, u)
}

// UpdateUser godoc
// @Summary      Update user
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        id path string true "User ID"
// @Param        user body types.UpdateUserRequest true "Changes"
// @Success      200 {object} types.Response
// @Failure      400 {object} types.Response
// @Failure      404 {object} types.Response
// @Security     BearerAuth
// @Router       /users/{id} [put]
func (h *HandlerImpl) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := api.URLParamID(r, "id", "user")
	if err != nil {
		api.HandleError(w, r, err)
		return
	}
	var req types.UpdateUserRequest
	if err = api.DecodeJSONBody(w, r, &req); err != nil {
		api.HandleError(w, r, err)
		return
	}
	u, err := h.userService.Update(r.Context(), id, req)
	if err != nil {
		api.HandleError(w, r, err)
		return
	}
	api.Success(w, r, http.StatusOK, u)
}

// DeleteUser godoc
// @Summary      Delete user
// @Tags         Users
// @Produce      json
// @Param        id path string true "User ID"
// @Success      200 {object} types.Response
// @Failure      404 {object} types.Response
// @Security     BearerAuth
// @Router       /users/{id} [delete]
func (h *HandlerImpl) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := api.URLParamID(r, "id", "user")
	if err != nil {
		api.HandleError(w, r, err)
		return
	}
	if err = h.userService.Delete(r.Context(), id); err != nil {
		api.HandleError(w, r, err)
		return
	}
	api.Success(w, r, http.StatusOK, struct{}{})
}
