package utils

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name string `validate:"required"`
	Body string `validate:"max=3"`
}

func TestValidationErr(t *testing.T) {
	err := validator.New().Struct(sample{Body: "toolong"})
	var ve validator.ValidationErrors
	require.True(t, errors.As(err, &ve))

	out := ValidationErr(ve)
	require.Len(t, out, 2)
	require.Equal(t, "Name", out[0].Field)
	require.Equal(t, "This field is required.", out[0].Message)
	require.Equal(t, "max", out[1].Tag)
	require.Equal(t, "Must be at most 3 characters long.", out[1].Message)
}

func TestBindingErr(t *testing.T) {
	require.Equal(t, "boom", BindingErr(errors.New("boom")))
	err := validator.New().Struct(sample{})
	require.IsType(t, []CustomErrorResponse{}, BindingErr(err))
}
