package middleware

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Email  string `json:"email" validate:"required,email"`
	Rating int    `json:"rating" validate:"min=1,max=5"`
}

func TestValidatorPassesValidStruct(t *testing.T) {
	v := NewValidator()
	assert.NoError(t, v.Validate(&sampleRequest{Email: "a@b.com", Rating: 3}))
}

func TestValidatorReportsFields(t *testing.T) {
	v := NewValidator()
	err := v.Validate(&sampleRequest{Email: "not-an-email", Rating: 9})
	require.Error(t, err)

	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)

	body, ok := httpErr.Message.(echo.Map)
	require.True(t, ok)
	fields, ok := body["fields"].(echo.Map)
	require.True(t, ok)
	assert.Contains(t, fields, "Email")
	assert.Contains(t, fields, "Rating")
}
