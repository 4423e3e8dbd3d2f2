package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"pokedex-backend/shared/config"
)

func TestBaseURLResolver(t *testing.T) {
	r := BaseURLResolver{BaseURL: "https://sprites.example.com/artwork/"}

	assert.Equal(t, "https://sprites.example.com/artwork/25.png", r.ImageURL(context.Background(), "25"))
}

func TestObjectName(t *testing.T) {
	assert.Equal(t, "151.png", ObjectName("151"))
}

func TestNewImageResolverDefaultsToBaseURL(t *testing.T) {
	cfg := &config.Config{PokemonImageSource: "url", PokemonImageBaseURL: "https://sprites.example.com"}

	r := NewImageResolver(context.Background(), cfg)

	assert.IsType(t, BaseURLResolver{}, r)
	assert.Equal(t, "https://sprites.example.com/1.png", r.ImageURL(context.Background(), "1"))
}
