package review

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
	reviewService ReviewService
	logger        *slog.Logger
}

func NewHandlerImpl(reviewService ReviewService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		reviewService: reviewService,
		logger:        logger,
	}
}

// Routes mounts /reviews. Writes are open to reviewers and admins only.
func (h *HandlerImpl) Routes(builder *query.Builder, guard func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.With(builder.Middleware(query.Reviews, query.Populate{
		Relation: "bootcamp",
		Fields:   []string{"name", "description"},
	})).Get("/", query.WriteResults)
	r.Get("/{id}", h.GetReview)

	r.Group(func(r chi.Router) {
		r.Use(guard, auth.RequireRoles(h.logger, types.RoleUser, types.RoleAdmin))
		r.Put("/{id}", h.UpdateReview)
		r.Delete("/{id}", h.DeleteReview)
	})
	return r
}

// BootcampRoutes mounts /bootcamps/{bootcampId}/reviews.
func (h *HandlerImpl) BootcampRoutes(guard func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetBootcampReviews)
	r.With(guard, auth.RequireRoles(h.logger, types.RoleUser, types.RoleAdmin)).Post("/", h.CreateReview)
	return r
}

// GetReview godoc
// @Summary      Get single review
// @Tags         Reviews
// @Produce      json
// @Param        id path string true "Review ID"
// @Success      200 {object} types.Response
// @Failure      404 {object} types.Response
// @Router       /reviews/{id} [get]
func (h *HandlerImpl) GetReview(w http.ResponseWriter, r *http.Request) {
	id, err := api.URLParamID(r, "id", "review")
	if err != nil {
		api.HandleError(w, r, err)
		return
	}
	rv, err := h.reviewService.Get(r.Context(), id)
	if err != nil {
		api.HandleError(w, r, err)
		return
	}
	api.Success(w, r, http.StatusOK, rv)
}

// GetBootcampReviews godoc
// @Summary      Get reviews of a bootcamp
// @Tags         Reviews
// @Produce      json
// @Param        bootcampId path string true "Bootcamp ID"
// @Success      200 {object} types.CountResponse
// @Router       /bootcamps/{bootcampId}/reviews [get]
func (h *HandlerImpl) GetBootcampReviews(w http.ResponseWriter, r *http.Request) {
	bootcampID, err := api.URLParamID(r, "bootcampId", "bootcamp")
	if err != nil {
		api.HandleError(w, r, err)
		return
	}
	reviews, err := h.reviewService.ListByBootcamp(r.Context(), bootcampID)
	if err != nil {
		api.HandleError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.CountResponse{Success: true, Count: len(reviews), Data: reviews})
}

// CreateReview godoc
// @Summary      Add review
// @Tags         Reviews
// @Accept       json
// @Produce      json
// @Param        bootcampId path string true "Bootcamp ID"
// @Param        review body types.CreateReviewRequest true "Review"
// @Success      201 {object} types.Response
// @Failure      404 {object} types.Response
// @Failure      409 {object} types.Response
// @Security     BearerAuth
// @Router       /bootcamps/{bootcampId}/reviews [post]
func (h *HandlerImpl) CreateReview(w http.ResponseWriter, r *http.Request) {
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
	var req types.CreateReviewRequest
	if err = api.DecodeJSONBody(w, r, &req); err != nil {
		api.HandleError(w, r, err)
		return
	}
	rv, err := h.reviewService.Create(r.Context(), actor, bootcampID, req)
	if err != nil {
		api.HandleError(w, r, err)
		return
	}
	api.Success(w, r, http.StatusCreated, rv)
}

// UpdateReview godoc
// @Summary      Update review
// @Tags         Reviews
// @Accept       json
// @Produce      json
// @Param        id path string true "Review ID"
// @Param        review body types.UpdateReviewRequest true "Changes"
// @Success      200 {object} types.Response
// @Failure      403 {object} types.Response
// @Security     BearerAuth
// @Router       /reviews/{id} [put]
func (h *HandlerImpl) UpdateReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		api.HandleError(w, r, types.ErrUnauthenticated)
		return
	}
	id, err := api.URLParamID(r, "id", "review")
	if err != nil {
		api.HandleError(w, r, err)
		return
	}
	var req types.UpdateReviewRequest
	if err = api.DecodeJSONBody(w, r, &req); err != nil {
		api.HandleError(w, r, err)
		return
	}
	rv, err := h.reviewService.Update(r.Context(), actor, id, req)
	if err != nil {
		api.HandleError(w, r, err)
		return
	}
	api.Success(w, r, http.StatusOK, rv)
}

// DeleteReview godoc
// @Summary      Delete review
// @Tags         Reviews
// @Produce      json
// @Param        id path string true "Review ID"
// @Success      200 {object} types.Response
// @Failure      403 {object} types.Response
// @Security     BearerAuth
// @Router       /reviews/{id} [delete]
func (h *HandlerImpl) DeleteReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		api.HandleError(w, r, types.ErrUnauthenticated)
		return
	}
	id, err := api.URLParamID(r, "id", "review")
	if err != nil {
		api.HandleError(w, r, err)
		return
	}
	if err = h.reviewService.Delete(r.Context(), actor, id); err != nil {
		api.HandleError(w, r, err)
		return
	}
	api.Success(w, r, http.StatusOK, struct{}{})
}
