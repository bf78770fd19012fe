package types

import (
	"time"

	"github.com/google/uuid"
)

type SkillLevel string

const (
	SkillBeginner     SkillLevel = "beginner"
	SkillIntermediate SkillLevel = "intermediate"
	SkillAdvanced     SkillLevel = "advanced"
)

type Course struct {
	ID                   uuid.UUID        `json:"id"`
	Title                string           `json:"title"`
	Description          string           `json:"description"`
	Weeks                int              `json:"weeks"`
	Tuition              int              `json:"tuition"`
	MinimumSkill         SkillLevel       `json:"minimum_skill"`
	ScholarshipAvailable bool             `json:"scholarship_available"`
	BootcampID           uuid.UUID        `json:"bootcamp_id"`
	UserID               uuid.UUID        `json:"user_id"`
	CreatedAt            time.Time        `json:"created_at"`
	Bootcamp             *BootcampSummary `json:"bootcamp,omitempty"`
}

func (c *Course) OwnerID() uuid.UUID    { return c.UserID }
func (c *Course) ResourceID() uuid.UUID { return c.ID }
func (c *Course) Kind() string          { return "course" }

type CreateCourseRequest struct {
	Title                string     `json:"title" validate:"required,max=100"`
	Description          string     `json:"description" validate:"required"`
	Weeks                int        `json:"weeks" validate:"required,min=1"`
	Tuition              int        `json:"tuition" validate:"required,min=0"`
	MinimumSkill         SkillLevel `json:"minimum_skill" validate:"required,oneof=beginner intermediate advanced"`
	ScholarshipAvailable bool       `json:"scholarship_available"`
}

type UpdateCourseRequest struct {
	Title                *string     `json:"title,omitempty" validate:"omitempty,max=100"`
	Description          *string     `json:"description,omitempty" validate:"omitempty,min=1"`
	Weeks                *int        `json:"weeks,omitempty" validate:"omitempty,min=1"`
	Tuition              *int        `json:"tuition,omitempty" validate:"omitempty,min=0"`
	MinimumSkill         *SkillLevel `json:"minimum_skill,omitempty" validate:"omitempty,oneof=beginner intermediate advanced"`
	ScholarshipAvailable *bool       `json:"scholarship_available,omitempty"`
}
