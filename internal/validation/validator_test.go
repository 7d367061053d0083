package validation

import (
	"testing"

	"showcase/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleInput struct {
	Name     string   `json:"name" validate:"required,max=10"`
	Phone    string   `json:"phone" validate:"required,phone"`
	Kind     string   `json:"kind" validate:"oneof=Sell Donate Free"`
	Images   []string `json:"images" validate:"max=2,dive,image_url"`
	Password string   `json:"password" validate:"omitempty,strong_password"`
}

func TestStruct_Valid(t *testing.T) {
	in := sampleInput{
		Name:   "lamp",
		Phone:  "555-123-4567",
		Kind:   "Sell",
		Images: []string{"https://cdn.example.com/a.jpg"},
	}
	assert.NoError(t, Struct(in))
}

func TestStruct_CollectsEveryField(t *testing.T) {
	in := sampleInput{
		Name:   "a name that is too long",
		Phone:  "12",
		Kind:   "Swap",
		Images: []string{"ftp://x/y.png"},
	}
	err := Struct(in)
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeValidation))

	msg := err.Error()
	assert.Contains(t, msg, "name must be at most 10 characters")
	assert.Contains(t, msg, "phone must contain 7 to 15 digits")
	assert.Contains(t, msg, "kind must be one of: Sell, Donate, Free")
	assert.Contains(t, msg, "images[0] must be an http or https URL")
}

func TestVar(t *testing.T) {
	assert.NoError(t, Var("feed_type", "latest", "oneof=latest recommended"))

	err := Var("feed_type", "popular", "oneof=latest recommended")
	require.Error(t, err)
	assert.Equal(t, "feed_type must be one of: latest, recommended", err.Error())
}

func TestIsImageURL(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://res.cloudinary.com/demo/image/upload/v1/abc.jpg", true},
		{"http://example.com/a.png", true},
		{"ftp://example.com/a.png", false},
		{"/relative/path.png", false},
		{"not a url", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsImageURL(tt.in), tt.in)
	}
}
