package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/devcamper-api/internal/types"
)

func TestValidateStruct(t *testing.T) {
	t.Run("valid bootcamp", func(t *testing.T) {
		req := types.CreateBootcampRequest{
			Name:        "Devworks Bootcamp",
			Description: "Full stack web development",
			Address:     "233 Bay State Rd Boston MA 02215",
			Careers:     []string{"Web Development", "UI/UX"},
		}
		assert.NoError(t, ValidateStruct(&req))
	})

	t.Run("collects every failing field", func(t *testing.T) {
		req := types.CreateBootcampRequest{
			Careers: []string{"Plumbing"},
			Email:   "not-an-email",
		}
		err := ValidateStruct(&req)
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrValidation))

		var ve *types.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Contains(t, ve.Messages, "name is required")
		assert.Contains(t, ve.Messages, "description is required")
		assert.Contains(t, ve.Messages, "address is required")
		assert.Contains(t, ve.Messages, "email must be a valid email address")
		assert.Contains(t, err.Error(), ", ")
	})

	t.Run("rating range", func(t *testing.T) {
		err := ValidateStruct(&types.CreateReviewRequest{Title: "t", Text: "x", Rating: 11})
		require.Error(t, err)
		assert.Equal(t, "rating must be at most 10", err.Error())
	})
}
