package course

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/FACorreiaa/devcamper-api/internal/api"
	"github.com/FACorreiaa/devcamper-api/internal/api/auth"
	"github.com/FACorreiaa/devcamper-api/internal/api/query"
	"github.com/FACorreiaa/devcamper-api/internal/types"
)

type HandlerImpl struct {
	courseService CourseService
	logger        *slog.Logger
}

func NewHandlerImpl(courseService CourseService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		courseService: courseService,
		logger:        logger,
	}
}

func (h *HandlerImpl) gate() func(http.Handler) http.Handler {
	return auth.RequireRoles(h.logger, types.RolePublisher, types.RoleAdmin)
}

// Routes mounts /courses.
func (h *HandlerImpl) Routes(builder *query.Builder, guard func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.With(builder.Middleware(query.Courses, query.Populate{
		Relation: "bootcamp",
		Fields:   []string{"name", "description"},
	})).Get("/", query.WriteResults)
	r.Get("/{id}", h.GetCourse)

	r.Group(func(r chi.Router) {
		r.Use(guard, h.gate())
		r.Put("/{id}", h.UpdateCourse)
		r.Delete("/{id}", h.DeleteCourse)
	})
	return r
}

// BootcampRoutes mounts /bootcamps/{bootcampId}/courses.
func (h *HandlerImpl) BootcampRoutes(guard func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetBootcampCourses)
	r.With(guard, h.gate()).Post("/", h.CreateCourse)
	return r
}

// GetCourse godoc
// @Summary      Get single course
// @Tags         Courses
// @Produce      json
// @Param        id path string true "Course ID"
// @Success      200 {object} types.Response
// @Failure      404 {object} types.Response
// @Router       /courses/{id} [get]
func (h *HandlerImpl) GetCourse(w http.ResponseWriter, r *http.Request) {
	id, err := api.URLParamID(r, "id", "course")
	if err != nil {
		api.HandleError(w, r, err)
		return
	}
	c, err := h.courseService.Get(r.Context(), id)
	if err != nil {
		api.HandleError(w, r, err)
		return
	}
	api.Success(w, r, http.StatusOK, c)
}

// GetBootcampCourses godoc
// @Summary      Get courses of a bootcamp
// @Tags         Courses
// @Produce      json
// @Param        bootcampId path string true "Bootcamp ID"
// @Success      200 {object} types.CountResponse
// @Router       /bootcamps/{bootcampId}/courses [get]
func (h *HandlerImpl) GetBootcampCourses(w http.ResponseWriter, r *http.Request) {
	bootcampID, err := api.URLParamID(r, "bootcampId", "bootcamp")
	if err != nil {
		api.HandleError(w, r, err)
		return
	}
	courses, err := h.courseService.ListByBootcamp(r.Context(), bootcampID)
	if err != nil {
		api.HandleError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.CountResponse{Success: true, Count: len(courses), Data: courses})
}

// CreateCourse godoc
// @Summary      Add course
// @Tags         Courses
// @Accept       json
// @Produce      json
// @Param        bootcampId path string true "Bootcamp ID"
// @Param        course body types.CreateCourseRequest true "Course"
// @Success      201 {object} types.Response
// @Failure      403 {object} types.Response
// @Failure      404 {object} types.Response
// @Security     BearerAuth
// @Router       /bootcamps/{bootcampId}/courses [post]
func (h *HandlerImpl) CreateCourse(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		api.HandleError(w, r, types.ErrUnauthenticated)
		return
	}
	bootcampID, err := api.URLParamID(r, "bootcampId", "bootcamp")
	if err != nil {
		api.HandleError(w, r, err)
		return
	}
	var req types.CreateCourseRequest
	if err = api.DecodeJSONBody(w, r, &req); err != nil {
		api.HandleError(w, r, err)
		return
	}
	c, err := h.courseService.Create(r.Context(), actor, bootcampID, req)
	if err != nil {
		api.HandleError(w, r, err)
		return
	}
	api.Success(w, r, http.StatusCreated, c)
}

// UpdateCourse godoc
// @Summary      Update course
// @Tags         Courses
// @Accept       json
// @Produce      json
// @Param        id path string true "Course ID"
// @Param        course body types.UpdateCourseRequest true "Changes"
// @Success      200 {object} types.Response
// @Failure      403 {object} types.Response
// @Failure      404 {object} types.Response
// @Security     BearerAuth
// @Router       /courses/{id} [put]
func (h *HandlerImpl) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		api.HandleError(w, r, types.ErrUnauthenticated)
		return
	}
	id, err := api.URLParamID(r, "id", "course")
	if err != nil {
		api.HandleError(w, r, err)
		return
	}
	var req types.UpdateCourseRequest
	if err = api.DecodeJSONBody(w, r, &req); err != nil {
		api.HandleError(w, r, err)
		return
	}
	c, err := h.courseService.Update(r.Context(), actor, id, req)
	if err != nil {
		api.HandleError(w, r, err)
		return
	}
	api.Success(w, r, http.StatusOK, c)
}

// DeleteCourse godoc
// @Summary      Delete course
// @Tags         Courses
// @Produce      json
// @Param        id path string true "Course ID"
// @Success      200 {object} types.Response
// @Failure      403 {object} types.Response
// @Failure      404 {object} types.Response
// @Security     BearerAuth
// @Router       /courses/{id} [delete]
func (h *HandlerImpl) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		api.HandleError(w, r, types.ErrUnauthenticated)
		return
	}
	id, err := api.URLParamID(r, "id", "course")
	if err != nil {
		api.HandleError(w, r, err)
		return
	}
	if err = h.courseService.Delete(r.Context(), actor, id); err != nil {
		api.HandleError(w, r, err)
		return
	}
	api.Success(w, r, http.StatusOK, struct{}{})
}
