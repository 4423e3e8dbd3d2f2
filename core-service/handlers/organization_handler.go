package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"pokedex-backend/shared/database/models"
	shared "pokedex-backend/shared/middleware"
	"pokedex-backend/shared/store"
	utils "pokedex-backend/shared/utils/auth"
)

type OrganizationHandler struct {
	store *store.Store
}

func NewOrganizationHandler(s *store.Store) *OrganizationHandler {
	return &OrganizationHandler{store: s}
}

// OrganizationResponse represents organization data for API responses
type OrganizationResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
}

// OrganizationRequest is the body of create and update
type OrganizationRequest struct {
	Name string `json:"name" binding:"required" example:"Team Rocket"`
}

func toOrganizationResponse(org *models.Organization) OrganizationResponse {
	return OrganizationResponse{
		ID:        org.ID,
		Name:      org.Name,
		CreatedAt: formatTime(org.CreatedAt),
		UpdatedAt: formatTime(org.UpdatedAt),
	}
}

// normalizedName validates and normalizes the organization name
func (req OrganizationRequest) normalizedName() (string, error) {
	if err := utils.ValidateName("Organization name", req.Name); err != nil {
		return "", err
	}
	return utils.NormalizeName(req.Name), nil
}

// GetOrganizations lists every organization. Public, so new users can pick one at registration.
// @Summary Get all organizations
// @Tags organizations
// @Produce json
// @Success 200 {object} middleware.UnifiedResponse{data=[]handlers.OrganizationResponse}
// @Failure 500 {object} middleware.UnifiedResponse "Server error"
// @Router /organizations [get]
func (h *OrganizationHandler) GetOrganizations(c *gin.Context) {
	orgs, err := h.store.ListOrganizations(c.Request.Context())
	if err != nil {
		shared.RespondError(c, err)
		return
	}

	items := lo.Map(orgs, func(org models.Organization, _ int) OrganizationResponse {
		return toOrganizationResponse(&org)
	})
	shared.RespondSuccess(c, http.StatusOK, "", items)
}

// GetOrganization retrieves one organization
// @Summary Get organization by ID
// @Tags organizations
// @Produce json
// @Param id path string true "Organization ID"
// @Security BearerAuth
// @Success 200 {object} middleware.UnifiedResponse{data=handlers.OrganizationResponse}
// @Failure 400 {object} middleware.UnifiedResponse "Invalid ID"
// @Failure 401 {object} middleware.UnifiedResponse "Unauthorized"
// @Failure 404 {object} middleware.UnifiedResponse "Organization not found"
// @Router /organizations/{id} [get]
func (h *OrganizationHandler) GetOrganization(c *gin.Context) {
	id, ok := parseID(c, "organization")
	if !ok {
		return
	}

	org, err := h.store.GetOrganization(c.Request.Context(), id)
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	shared.RespondSuccess(c, http.StatusOK, "", toOrganizationResponse(org))
}

// CreateOrganization creates a new organization
// @Summary Create organization
// @Tags organizations
// @Accept json
// @Produce json
// @Param organization body OrganizationRequest true "Organization data"
// @Security BearerAuth
// @Success 201 {object} middleware.UnifiedResponse{data=handlers.OrganizationResponse}
// @Failure 400 {object} middleware.UnifiedResponse "Invalid name"
// @Failure 401 {object} middleware.UnifiedResponse "Unauthorized"
// @Failure 409 {object} middleware.UnifiedResponse "Name already exists"
// @Router /organizations [post]
func (h *OrganizationHandler) CreateOrganization(c *gin.Context) {
	var req OrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondBadRequest(c, err.Error())
		return
	}
	name, err := req.normalizedName()
	if err != nil {
		shared.RespondError(c, err)
		return
	}

	org, err := h.store.CreateOrganization(c.Request.Context(), name)
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	shared.RespondSuccess(c, http.StatusCreated, "Organization created successfully", toOrganizationResponse(org))
}

// UpdateOrganization renames the caller's organization
// @Summary Update organization
// @Tags organizations
// @Accept json
// @Produce json
// @Param id path string true "Organization ID"
// @Param organization body OrganizationRequest true "Organization data"
// @Security BearerAuth
// @Success 200 {object} middleware.UnifiedResponse{data=handlers.OrganizationResponse}
// @Failure 400 {object} middleware.UnifiedResponse "Invalid request"
// @Failure 404 {object} middleware.UnifiedResponse "Organization not found"
// @Failure 409 {object} middleware.UnifiedResponse "Name already exists"
// @Router /organizations/{id} [patch]
func (h *OrganizationHandler) UpdateOrganization(c *gin.Context) {
	scoped, ok := scopedStore(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "organization")
	if !ok {
		return
	}

	var req OrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondBadRequest(c, err.Error())
		return
	}
	name, err := req.normalizedName()
	if err != nil {
		shared.RespondError(c, err)
		return
	}

	org, err := scoped.UpdateOrganization(c.Request.Context(), id, name)
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	shared.RespondSuccess(c, http.StatusOK, "Organization updated successfully", toOrganizationResponse(org))
}

// DeleteOrganization deletes the caller's organization with its users and pokemons
// @Summary Delete organization
// @Tags organizations
// @Produce json
// @Param id path string true "Organization ID"
// @Security BearerAuth
// @Success 200 {object} middleware.UnifiedResponse
// @Failure 404 {object} middleware.UnifiedResponse "Organization not found"
// @Router /organizations/{id} [delete]
func (h *OrganizationHandler) DeleteOrganization(c *gin.Context) {
	scoped, ok := scopedStore(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "organization")
	if !ok {
		return
	}

	if err := scoped.DeleteOrganization(c.Request.Context(), id); err != nil {
		shared.RespondError(c, err)
		return
	}
	shared.RespondSuccess(c, http.StatusOK, "Organization deleted successfully", nil)
}
