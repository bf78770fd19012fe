package bootcamp

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/FACorreiaa/devcamper-api/internal/api"
	"github.com/FACorreiaa/devcamper-api/internal/api/auth"
	"github.com/FACorreiaa/devcamper-api/internal/api/query"
	"github.com/FACorreiaa/devcamper-api/internal/types"
)

const (
	// multipart bodies beyond the photo limit are spilled to disk by net/http.
	multipartMemory = 10 << 20
	// multipartOverhead covers boundaries and part headers around the file.
	multipartOverhead = 64 << 10
)

type HandlerImpl struct {
	bootcampService BootcampService
	maxUploadBytes  int64
	logger          *slog.Logger
}

// NewHandlerImpl builds the bootcamp handlers. maxUploadBytes caps the photo
// upload body; zero or less leaves it unbounded.
func NewHandlerImpl(bootcampService BootcampService, maxUploadBytes int64, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		bootcampService: bootcampService,
		maxUploadBytes:  maxUploadBytes,
		logger:          logger,
	}
}

// Routes mounts the bootcamp endpoints. courses and reviews are the nested
// routers served under /{bootcampId}.
func (h *HandlerImpl) Routes(builder *query.Builder, guard func(http.Handler) http.Handler, courses, reviews http.Handler) chi.Router {
	r := chi.NewRouter()
	publisher := auth.RequireRoles(h.logger, types.RolePublisher, types.RoleAdmin)

	r.Mount("/{bootcampId}/courses", courses)
	r.Mount("/{bootcampId}/reviews", reviews)

	r.Get("/radius/{zipcode}/{distance}", h.GetBootcampsInRadius)
	r.With(builder.Middleware(query.Bootcamps, query.Populate{Relation: "courses"})).Get("/", query.WriteResults)
	r.Get("/{id}", h.GetBootcamp)

	r.Group(func(r chi.Router) {
		r.Use(guard, publisher)
		r.Post("/", h.CreateBootcamp)
		r.Put("/{id}", h.UpdateBootcamp)
		r.Delete("/{id}", h.DeleteBootcamp)
		r.Put("/{id}/photo", h.UploadPhoto)
	})
	return r
}

func principal(w http.ResponseWriter, r *http.Request) (*types.User, bool) {
	u, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		api.HandleError(w, r, types.ErrUnauthenticated)
	}
	return u, ok
}

// GetBootcamp godoc
// @Summary      Get single bootcamp
// @Tags         Bootcamps
// @Produce      json
// @Param        id path string true "Bootcamp ID"
// @Success      200 {object} types.Response
// @Failure      404 {object} types.Response
// @Router       /bootcamps/{id} [get]
func (h *HandlerImpl) GetBootcamp(w http.ResponseWriter, r *http.Request) {
	id, err := api.URLParamID(r, "id", "bootcamp")
	if err != nil {
		api.HandleError(w, r, err)
		return
	}
	b, err := h.bootcampService.Get(r.Context(), id)
	if err != nil {
		api.HandleError(w, r, err)
		return
	}
	api.Success(w, r, http.StatusOK, b)
}

// CreateBootcamp godoc
// @Summary      Create new bootcamp
// @Tags         Bootcamps
// @Accept       json
// @Produce      json
// @Param        bootcamp body types.CreateBootcampRequest true "Bootcamp"
// @Success      201 {object} types.Response
// @Failure      400 {object} types.Response
// @Failure      409 {object} types.Response
// @Security     BearerAuth
// @Router       /bootcamps [post]
func (h *HandlerImpl) CreateBootcamp(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}
	var req types.CreateBootcampRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.HandleError(w, r, err)
		return
	}
	b, err := h.bootcampService.Create(r.Context(), actor, req)
	if err != nil {
		api.HandleError(w, r, err)
		return
	}
	api.Success(w, r, http.StatusCreated, b)
}

// UpdateBootcamp godoc
// @Summary      Update bootcamp
// @Tags         Bootcamps
// @Accept       json
// @Produce      json
// @Param        id path string true "Bootcamp ID"
// @Param        bootcamp body types.UpdateBootcampRequest true "Changes"
// @Success      200 {object} types.Response
// @Failure      403 {object} types.Response
// @Failure      404 {object} types.Response
// @Security     BearerAuth
// @Router       /bootcamps/{id} [put]
func (h *HandlerImpl) UpdateBootcamp(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := api.URLParamID(r, "id", "bootcamp")
	if err != nil {
		api.HandleError(w, r, err)
		return
	}
	var req types.UpdateBootcampRequest
	if err = api.DecodeJSONBody(w, r, &req); err != nil {
		api.HandleError(w, r, err)
		return
	}
	b, err := h.bootcampService.Update(r.Context(), actor, id, req)
	if err != nil {
		api.HandleError(w, r, err)
		return
	}
	api.Success(w, r, http.StatusOK, b)
}

// DeleteBootcamp godoc
// @Summary      Delete bootcamp
// @Tags         Bootcamps
// @Produce      json
// @Param        id path string true "Bootcamp ID"
// @Success      200 {object} types.Response
// @Failure      403 {object} types.Response
// @Failure      404 {object} types.Response
// @Security     BearerAuth
// @Router       /bootcamps/{id} [delete]
func (h *HandlerImpl) DeleteBootcamp(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := api.URLParamID(r, "id", "bootcamp")
	if err != nil {
		api.HandleError(w, r, err)
		return
	}
	if err = h.bootcampService.Delete(r.Context(), actor, id); err != nil {
		api.HandleError(w, r, err)
		return
	}
	api.Success(w, r, http.StatusOK, struct{}{})
}

// GetBootcampsInRadius godoc
// @Summary      Get bootcamps within a radius
// @Tags         Bootcamps
// @Produce      json
// @Param        zipcode path string true "Zipcode"
// @Param        distance path number true "Distance in miles"
// @Success      200 {object} types.CountResponse
// @Failure      400 {object} types.Response
// @Router       /bootcamps/radius/{zipcode}/{distance} [get]
func (h *HandlerImpl) GetBootcampsInRadius(w http.ResponseWriter, r *http.Request) {
	zipcode := chi.URLParam(r, "zipcode")
	raw := chi.URLParam(r, "distance")
	distance, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(distance) || math.IsInf(distance, 0) || distance < 0 {
		api.HandleError(w, r, types.NewError(types.ErrBadRequest, "Invalid distance %s", raw))
		return
	}
	bootcamps, err := h.bootcampService.WithinRadius(r.Context(), zipcode, distance)
	if err != nil {
		api.HandleError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.CountResponse{Success: true, Count: len(bootcamps), Data: bootcamps})
}

// UploadPhoto godoc
// @Summary      Upload photo for bootcamp
// @Tags         Bootcamps
// @Accept       mpfd
// @Produce      json
// @Param        id path string true "Bootcamp ID"
// @Param        file formData file true "Image"
// @Success      200 {object} types.Response
// @Failure      400 {object} types.Response
// @Failure      403 {object} types.Response
// @Security     BearerAuth
// @Router       /bootcamps/{id}/photo [put]
func (h *HandlerImpl) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	actor, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := api.URLParamID(r, "id", "bootcamp")
	if err != nil {
		api.HandleError(w, r, err)
		return
	}

	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	}
	if err = r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.HandleError(w, r, types.NewError(types.ErrBadRequest, "Please upload an image less than %d bytes", h.maxUploadBytes))
			return
		}
		api.HandleError(w, r, types.NewError(types.ErrBadRequest, "Please upload a file"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		api.HandleError(w, r, types.NewError(types.ErrBadRequest, "Please upload a file"))
		return
	}
	defer file.Close()

	name, err := h.bootcampService.UploadPhoto(r.Context(), actor, id, Photo{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		api.HandleError(w, r, err)
		return
	}
	api.Success(w, r, http.StatusOK, name)
}
