package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FavoriteStatus string

const (
	FavoriteLike    FavoriteStatus = "LIKE"
	FavoriteDislike FavoriteStatus = "DISLIKE"
	// FavoriteUnliked is never stored; a missing row means unliked.
	FavoriteUnliked FavoriteStatus = "UNLIKED"
)

// ParseFavoriteStatus accepts the three public status names
func ParseFavoriteStatus(s string) (FavoriteStatus, bool) {
	switch status := FavoriteStatus(s); status {
	case FavoriteLike, FavoriteDislike, FavoriteUnliked:
		return status, true
	}
	return "", false
}

type Favorite struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID      `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_favorites_user_pokemon"`
	PokemonID uuid.UUID      `json:"pokemon_id" gorm:"type:uuid;not null;uniqueIndex:idx_favorites_user_pokemon;index"`
	Status    FavoriteStatus `json:"favorite_status" gorm:"column:favorite_status;size:16;not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`

	// Relations
	User    *User    `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Pokemon *Pokemon `json:"-" gorm:"foreignKey:PokemonID;constraint:OnDelete:CASCADE"`
}

func (f *Favorite) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
