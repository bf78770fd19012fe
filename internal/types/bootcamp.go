package types

import (
	"time"

	"github.com/google/uuid"
)

// Careers a bootcamp may advertise.
var Careers = []string{
	"Web Development",
	"Mobile Development",
	"UI/UX",
	"Data Science",
	"Business",
	"Other",
}

const DefaultPhoto = "no-photo.jpg"

// Location is the geocoded form of an address.
type Location struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	FormattedAddress string  `json:"formatted_address"`
	Street           string  `json:"street"`
	City             string  `json:"city"`
	State            string  `json:"state"`
	Zipcode          string  `json:"zipcode"`
	Country          string  `json:"country"`
}

type Bootcamp struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Website     string    `json:"website,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Email       string    `json:"email,omitempty"`
	Address     string    `json:"address,omitempty"`
	Location
	Careers       []string  `json:"careers"`
	AverageRating *float64  `json:"average_rating,omitempty"`
	AverageCost   *int      `json:"average_cost,omitempty"`
	Photo         string    `json:"photo"`
	Housing       bool      `json:"housing"`
	JobAssistance bool      `json:"job_assistance"`
	JobGuarantee  bool      `json:"job_guarantee"`
	AcceptGI      bool      `json:"accept_gi"`
	CreatedAt     time.Time `json:"created_at"`
}

func (b *Bootcamp) OwnerID() uuid.UUID    { return b.UserID }
func (b *Bootcamp) ResourceID() uuid.UUID { return b.ID }
func (b *Bootcamp) Kind() string          { return "bootcamp" }

type CreateBootcampRequest struct {
	Name          string     `json:"name" validate:"required,max=50"`
	Description   string     `json:"description" validate:"required,max=500"`
	Website       string     `json:"website,omitempty" validate:"omitempty,url"`
	Phone         string     `json:"phone,omitempty" validate:"omitempty,max=20"`
	Email         string     `json:"email,omitempty" validate:"omitempty,email"`
	Address       string     `json:"address" validate:"required"`
	Careers       []string   `json:"careers" validate:"required,min=1,dive,oneof='Web Development' 'Mobile Development' 'UI/UX' 'Data Science' 'Business' 'Other'"`
	Housing       bool       `json:"housing"`
	JobAssistance bool       `json:"job_assistance"`
	JobGuarantee  bool       `json:"job_guarantee"`
	AcceptGI      bool       `json:"accept_gi"`
	UserID        *uuid.UUID `json:"user_id,omitempty"`
}

type UpdateBootcampRequest struct {
	Name          *string  `json:"name,omitempty" validate:"omitempty,max=50"`
	Description   *string  `json:"description,omitempty" validate:"omitempty,max=500"`
	Website       *string  `json:"website,omitempty" validate:"omitempty,url"`
	Phone         *string  `json:"phone,omitempty" validate:"omitempty,max=20"`
	Email         *string  `json:"email,omitempty" validate:"omitempty,email"`
	Address       *string  `json:"address,omitempty" validate:"omitempty,min=1"`
	Careers       []string `json:"careers,omitempty" validate:"omitempty,min=1,dive,oneof='Web Development' 'Mobile Development' 'UI/UX' 'Data Science' 'Business' 'Other'"`
	Housing       *bool    `json:"housing,omitempty"`
	JobAssistance *bool    `json:"job_assistance,omitempty"`
	JobGuarantee  *bool    `json:"job_guarantee,omitempty"`
	AcceptGI      *bool    `json:"accept_gi,omitempty"`
}

// BootcampFields is what the repository writes on insert.
type BootcampFields struct {
	UserID        uuid.UUID
	Name          string
	Slug          string
	Description   string
	Website       string
	Phone         string
	Email         string
	Address       string
	Location      Location
	Careers       []string
	Housing       bool
	JobAssistance bool
	JobGuarantee  bool
	AcceptGI      bool
}

// BootcampChanges is the partial update handed to the repository.
type BootcampChanges struct {
	Name          *string
	Slug          *string
	Description   *string
	Website       *string
	Phone         *string
	Email         *string
	Address       *string
	Location      *Location
	Careers       []string
	Housing       *bool
	JobAssistance *bool
	JobGuarantee  *bool
	AcceptGI      *bool
}

// BootcampSummary is the inline form of a bootcamp on courses and reviews.
type BootcampSummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
}
