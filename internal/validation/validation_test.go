package validation

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Name     string `form:"name" validate:"required,max=10"`
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required,min=8"`
	Color    string `json:"color" validate:"omitempty,shade"`
}

func init() {
	RegisterRule("shade", func(fl validator.FieldLevel) bool {
		return fl.Field().String() == "blue"
	})
}

func TestStruct(t *testing.T) {
	t.Run("valid input", func(t *testing.T) {
		err := Struct(signup{Name: "Peter", Email: "poh@lib.sg", Password: "long-enough"})
		assert.NoError(t, err)
	})

	t.Run("reports every failing field by form name", func(t *testing.T) {
		err := Struct(signup{Name: "Someone Too Long", Email: "nope", Color: "red"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrValidationFailed))

		var verr *Error
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []string{
			"name must be at most 10",
			"email must be a valid email address",
			"password is required",
			"color is invalid",
		}, verr.Messages())
	})
}

func TestFailed(t *testing.T) {
	err := Failed("email", "required")
	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.Equal(t, "validation failed: email is required", err.Error())
}

func TestMessages(t *testing.T) {
	assert.Nil(t, Messages(nil))
	assert.Equal(t, []string{"boom"}, Messages(errors.New("boom")))
	assert.Equal(t, []string{"pages must be greater than 0"}, Messages(&Error{Fields: []FieldError{{Field: "pages", Rule: "gt", Param: "0"}}}))
}
