package types

import (
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ID         uuid.UUID        `json:"id"`
	Title      string           `json:"title"`
	Text       string           `json:"text"`
	Rating     int              `json:"rating"`
	BootcampID uuid.UUID        `json:"bootcamp_id"`
	UserID     uuid.UUID        `json:"user_id"`
	CreatedAt  time.Time        `json:"created_at"`
	Bootcamp   *BootcampSummary `json:"bootcamp,omitempty"`
}

func (r *Review) OwnerID() uuid.UUID    { return r.UserID }
func (r *Review) ResourceID() uuid.UUID { return r.ID }
func (r *Review) Kind() string          { return "review" }

type CreateReviewRequest struct {
	Title  string `json:"title" validate:"required,max=100"`
	Text   string `json:"text" validate:"required"`
	Rating int    `json:"rating" validate:"required,min=1,max=10"`
}

type UpdateReviewRequest struct {
	Title  *string `json:"title,omitempty" validate:"omitempty,max=100"`
	Text   *string `json:"text,omitempty" validate:"omitempty,min=1"`
	Rating *int    `json:"rating,omitempty" validate:"omitempty,min=1,max=10"`
}
