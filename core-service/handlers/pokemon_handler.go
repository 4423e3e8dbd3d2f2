package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"pokedex-backend/shared/database/models"
	apperrors "pokedex-backend/shared/errors"
	shared "pokedex-backend/shared/middleware"
	"pokedex-backend/shared/storage"
	"pokedex-backend/shared/store"
	utils "pokedex-backend/shared/utils/auth"
	"pokedex-backend/shared/utils/query"
)

type PokemonHandler struct {
	images storage.ImageResolver
}

func NewPokemonHandler(images storage.ImageResolver) *PokemonHandler {
	return &PokemonHandler{images: images}
}

// PokemonResponse is a single pokemon
type PokemonResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	SourceID string    `json:"sourceId"`
	ImageURL string    `json:"imageUrl"`
}

// PokemonListItem is one catalog entry with its favorite counters
type PokemonListItem struct {
	ID                 uuid.UUID             `json:"id"`
	Name               string                `json:"name"`
	ImageURL           string                `json:"imageUrl"`
	TotalLike          int64                 `json:"totalLike"`
	TotalDislike       int64                 `json:"totalDislike"`
	UserFavoriteStatus models.FavoriteStatus `json:"userFavoriteStatus" enums:"LIKE,DISLIKE,UNLIKED"`
}

// CreatePokemonRequest represents request body for creating pokemon
type CreatePokemonRequest struct {
	Name           string `json:"name" binding:"required" example:"Pikachu"`
	SourceID       string `json:"sourceId" binding:"required" example:"25"`
	OrganizationID string `json:"organizationId"`
}

// UpdatePokemonRequest represents request body for updating pokemon
type UpdatePokemonRequest struct {
	Name     *string `json:"name" example:"Raichu"`
	SourceID *string `json:"sourceId" example:"26"`
}

// FavoriteStatusResponse reports the outcome of a favorite toggle
type FavoriteStatusResponse struct {
	PokemonID      uuid.UUID             `json:"pokemonId"`
	Action         store.FavoriteAction  `json:"action" enums:"created,updated,removed,unchanged"`
	FavoriteStatus models.FavoriteStatus `json:"favoriteStatus" enums:"LIKE,DISLIKE,UNLIKED"`
}

func (h *PokemonHandler) toResponse(c *gin.Context, p *models.Pokemon) PokemonResponse {
	return PokemonResponse{
		ID:       p.ID,
		Name:     p.Name,
		SourceID: p.SourceID,
		ImageURL: h.images.ImageURL(c.Request.Context(), p.SourceID),
	}
}

// GetPokemons lists the caller's organization catalog
// @Summary Get pokemons
// @Description Page through the organization's pokemons with like/dislike totals and the caller's own status
// @Tags pokemons
// @Produce json
// @Param skip query int false "Records to skip (default: 0)"
// @Param take query int false "Page size (default: 5)"
// @Param search query string false "Case-insensitive name search"
// @Param sort[field] query string false "Sort field (name, sourceId, created_at)"
// @Param sort[order] query string false "Sort order (asc, desc)"
// @Security BearerAuth
// @Success 200 {object} middleware.UnifiedResponse{data=[]handlers.PokemonListItem}
// @Failure 401 {object} middleware.UnifiedResponse "Unauthorized"
// @Router /pokemons [get]
func (h *PokemonHandler) GetPokemons(c *gin.Context) {
	scoped, ok := scopedStore(c)
	if !ok {
		return
	}

	params := query.ParseQueryParams(c)
	summaries, total, err := scoped.ListPokemons(c.Request.Context(), params)
	if err != nil {
		shared.RespondError(c, err)
		return
	}

	items := lo.Map(summaries, func(s store.PokemonSummary, _ int) PokemonListItem {
		return PokemonListItem{
			ID:                 s.ID,
			Name:               s.Name,
			ImageURL:           h.images.ImageURL(c.Request.Context(), s.SourceID),
			TotalLike:          s.TotalLike,
			TotalDislike:       s.TotalDislike,
			UserFavoriteStatus: s.UserFavoriteStatus,
		}
	})
	shared.RespondPaginated(c, items, query.BuildPaginationResponse(params.Skip, params.Take, total))
}

// GetPokemon retrieves one pokemon of the caller's organization
// @Summary Get pokemon by ID
// @Tags pokemons
// @Produce json
// @Param id path string true "Pokemon ID"
// @Security BearerAuth
// @Success 200 {object} middleware.UnifiedResponse{data=handlers.PokemonResponse}
// @Failure 404 {object} middleware.UnifiedResponse "Pokemon not found"
// @Router /pokemons/{id} [get]
func (h *PokemonHandler) GetPokemon(c *gin.Context) {
	scoped, ok := scopedStore(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "pokemon")
	if !ok {
		return
	}

	pokemon, err := scoped.GetPokemon(c.Request.Context(), id)
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	shared.RespondSuccess(c, http.StatusOK, "", h.toResponse(c, pokemon))
}

// CreatePokemon adds a pokemon to the caller's organization
// @Summary Create pokemon
// @Tags pokemons
// @Accept json
// @Produce json
// @Param pokemon body CreatePokemonRequest true "Pokemon data"
// @Security BearerAuth
// @Success 201 {object} middleware.UnifiedResponse{data=handlers.PokemonResponse}
// @Failure 400 {object} middleware.UnifiedResponse "Validation error"
// @Failure 404 {object} middleware.UnifiedResponse "Organization not found"
// @Failure 409 {object} middleware.UnifiedResponse "Name already exists"
// @Router /pokemons [post]
func (h *PokemonHandler) CreatePokemon(c *gin.Context) {
	scoped, ok := scopedStore(c)
	if !ok {
		return
	}

	var req CreatePokemonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondBadRequest(c, err.Error())
		return
	}
	name, sourceID, err := validatePokemonFields(req.Name, req.SourceID)
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	orgID, err := parseOptionalID(req.OrganizationID, "Organization ID")
	if err != nil {
		shared.RespondError(c, err)
		return
	}

	pokemon, err := scoped.CreatePokemon(c.Request.Context(), store.CreatePokemonParams{
		Name:           name,
		SourceID:       sourceID,
		OrganizationID: orgID,
	})
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	shared.RespondSuccess(c, http.StatusCreated, "Pokemon created successfully", h.toResponse(c, pokemon))
}

// UpdatePokemon updates a pokemon of the caller's organization
// @Summary Update pokemon
// @Tags pokemons
// @Accept json
// @Produce json
// @Param id path string true "Pokemon ID"
// @Param pokemon body UpdatePokemonRequest true "Fields to update"
// @Security BearerAuth
// @Success 200 {object} middleware.UnifiedResponse{data=handlers.PokemonResponse}
// @Failure 400 {object} middleware.UnifiedResponse "Validation error"
// @Failure 404 {object} middleware.UnifiedResponse "Pokemon not found"
// @Failure 409 {object} middleware.UnifiedResponse "Name already exists"
// @Router /pokemons/{id} [put]
func (h *PokemonHandler) UpdatePokemon(c *gin.Context) {
	scoped, ok := scopedStore(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "pokemon")
	if !ok {
		return
	}

	var req UpdatePokemonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondBadRequest(c, err.Error())
		return
	}

	params := store.UpdatePokemonParams{}
	if req.Name != nil {
		if err := utils.ValidateName("Name", *req.Name); err != nil {
			shared.RespondError(c, err)
			return
		}
		name := utils.NormalizeName(*req.Name)
		params.Name = &name
	}
	if req.SourceID != nil {
		sourceID := strings.TrimSpace(*req.SourceID)
		if sourceID == "" {
			shared.RespondBadRequest(c, "Source ID is required")
			return
		}
		params.SourceID = &sourceID
	}

	pokemon, err := scoped.UpdatePokemon(c.Request.Context(), id, params)
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	shared.RespondSuccess(c, http.StatusOK, "Pokemon updated successfully", h.toResponse(c, pokemon))
}

// DeletePokemon deletes a pokemon of the caller's organization
// @Summary Delete pokemon
// @Tags pokemons
// @Produce json
// @Param id path string true "Pokemon ID"
// @Security BearerAuth
// @Success 200 {object} middleware.UnifiedResponse
// @Failure 404 {object} middleware.UnifiedResponse "Pokemon not found"
// @Router /pokemons/{id} [delete]
func (h *PokemonHandler) DeletePokemon(c *gin.Context) {
	scoped, ok := scopedStore(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "pokemon")
	if !ok {
		return
	}

	if err := scoped.DeletePokemon(c.Request.Context(), id); err != nil {
		shared.RespondError(c, err)
		return
	}
	shared.RespondSuccess(c, http.StatusOK, "Pokemon deleted successfully", nil)
}

// SetFavoriteStatus toggles the caller's like/dislike for a pokemon
// @Summary Set favorite status
// @Description Sending the stored status again removes it; UNLIKED always removes it.
// @Tags pokemons
// @Produce json
// @Param id path string true "Pokemon ID"
// @Param favoriteStatus query string true "LIKE, DISLIKE or UNLIKED"
// @Security BearerAuth
// @Success 200 {object} middleware.UnifiedResponse{data=handlers.FavoriteStatusResponse}
// @Failure 400 {object} middleware.UnifiedResponse "Invalid status"
// @Failure 404 {object} middleware.UnifiedResponse "Pokemon not found"
// @Router /pokemons/{id}/favoriteStatus [post]
func (h *PokemonHandler) SetFavoriteStatus(c *gin.Context) {
	scoped, ok := scopedStore(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "pokemon")
	if !ok {
		return
	}

	status, valid := models.ParseFavoriteStatus(c.Query("favoriteStatus"))
	if !valid {
		shared.RespondBadRequest(c, "favoriteStatus must be one of LIKE, DISLIKE, UNLIKED")
		return
	}

	result, err := scoped.ToggleFavorite(c.Request.Context(), id, status)
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	shared.RespondSuccess(c, http.StatusOK, "Favorite status updated", FavoriteStatusResponse{
		PokemonID:      id,
		Action:         result.Action,
		FavoriteStatus: result.Status,
	})
}

func validatePokemonFields(name, sourceID string) (string, string, error) {
	if err := utils.ValidateName("Name", name); err != nil {
		return "", "", err
	}
	sourceID = strings.TrimSpace(sourceID)
	if sourceID == "" {
		return "", "", apperrors.New(apperrors.ErrValidation, "Source ID is required")
	}
	return utils.NormalizeName(name), sourceID, nil
}
