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
	"pokedex-backend/shared/utils/query"
)

type UserHandler struct{}

func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// UserResponse represents user data for API responses
type UserResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	OrganizationID uuid.UUID `json:"organizationId"`
	CreatedAt      string    `json:"created_at"`
	UpdatedAt      string    `json:"updated_at"`
}

// CreateUserRequest represents request body for creating user. An omitted
// organizationId means the caller's organization.
type CreateUserRequest struct {
	Name           string `json:"name" binding:"required" example:"Brock"`
	Email          string `json:"email" binding:"required" example:"brock@example.com"`
	Password       string `json:"password" binding:"required" example:"Str0ngP@ss!"`
	OrganizationID string `json:"organizationId"`
}

// UpdateUserRequest represents request body for updating user. Changing
// the password signs the user out everywhere.
type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		OrganizationID: u.OrganizationID,
		CreatedAt:      formatTime(u.CreatedAt),
		UpdatedAt:      formatTime(u.UpdatedAt),
	}
}

// GetUsers lists the users of the caller's organization
// @Summary Get users
// @Description List users of the caller's organization with pagination, filtering, sorting and search
// @Tags users
// @Produce json
// @Param skip query int false "Records to skip (default: 0)"
// @Param take query int false "Page size (default: 5)"
// @Param search query string false "Search term across name and email"
// @Param filters[email] query string false "Filter by email"
// @Param sort[field] query string false "Sort field (name, email, created_at)"
// @Param sort[order] query string false "Sort order (asc, desc)"
// @Security BearerAuth
// @Success 200 {object} middleware.UnifiedResponse{data=[]handlers.UserResponse}
// @Failure 401 {object} middleware.UnifiedResponse "Unauthorized"
// @Router /users [get]
func (h *UserHandler) GetUsers(c *gin.Context) {
	scoped, ok := scopedStore(c)
	if !ok {
		return
	}

	params := query.ParseQueryParams(c)
	users, total, err := scoped.ListUsers(c.Request.Context(), params)
	if err != nil {
		shared.RespondError(c, err)
		return
	}

	items := lo.Map(users, func(u models.User, _ int) UserResponse {
		return toUserResponse(&u)
	})
	shared.RespondPaginated(c, items, query.BuildPaginationResponse(params.Skip, params.Take, total))
}

// GetUser retrieves a user of the caller's organization
// @Summary Get user by ID
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Security BearerAuth
// @Success 200 {object} middleware.UnifiedResponse{data=handlers.UserResponse}
// @Failure 400 {object} middleware.UnifiedResponse "Invalid ID"
// @Failure 404 {object} middleware.UnifiedResponse "User not found"
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	scoped, ok := scopedStore(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "user")
	if !ok {
		return
	}

	user, err := scoped.GetUser(c.Request.Context(), id)
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	shared.RespondSuccess(c, http.StatusOK, "", toUserResponse(user))
}

// CreateUser adds a user to the caller's organization
// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Param user body CreateUserRequest true "User data"
// @Security BearerAuth
// @Success 201 {object} middleware.UnifiedResponse{data=handlers.UserResponse}
// @Failure 400 {object} middleware.UnifiedResponse "Validation error"
// @Failure 404 {object} middleware.UnifiedResponse "Organization not found"
// @Failure 409 {object} middleware.UnifiedResponse "Email already exists"
// @Router /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	scoped, ok := scopedStore(c)
	if !ok {
		return
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondBadRequest(c, err.Error())
		return
	}
	if err := validateUserFields(&req.Name, &req.Email, &req.Password); err != nil {
		shared.RespondError(c, err)
		return
	}
	orgID, err := parseOptionalID(req.OrganizationID, "Organization ID")
	if err != nil {
		shared.RespondError(c, err)
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		shared.RespondError(c, err)
		return
	}

	user, err := scoped.CreateUser(c.Request.Context(), store.CreateUserParams{
		Name:           utils.NormalizeName(req.Name),
		Email:          utils.NormalizeEmail(req.Email),
		PasswordHash:   hash,
		OrganizationID: orgID,
	})
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	shared.RespondSuccess(c, http.StatusCreated, "User created successfully", toUserResponse(user))
}

// UpdateUser updates a user of the caller's organization
// @Summary Update user
// @Description Partially update a user. A new password revokes every token of that user.
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param user body UpdateUserRequest true "Fields to update"
// @Security BearerAuth
// @Success 200 {object} middleware.UnifiedResponse{data=handlers.UserResponse}
// @Failure 400 {object} middleware.UnifiedResponse "Validation error"
// @Failure 404 {object} middleware.UnifiedResponse "User not found"
// @Failure 409 {object} middleware.UnifiedResponse "Email already exists"
// @Router /users/{id} [patch]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	scoped, ok := scopedStore(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "user")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondBadRequest(c, err.Error())
		return
	}
	if err := validateUserFields(req.Name, req.Email, req.Password); err != nil {
		shared.RespondError(c, err)
		return
	}

	params := store.UpdateUserParams{}
	if req.Name != nil {
		name := utils.NormalizeName(*req.Name)
		params.Name = &name
	}
	if req.Email != nil {
		email := utils.NormalizeEmail(*req.Email)
		params.Email = &email
	}
	if req.Password != nil {
		hash, err := utils.HashPassword(*req.Password)
		if err != nil {
			shared.RespondError(c, err)
			return
		}
		params.PasswordHash = &hash
	}

	user, err := scoped.UpdateUser(c.Request.Context(), id, params)
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	shared.RespondSuccess(c, http.StatusOK, "User updated successfully", toUserResponse(user))
}

// DeleteUser deletes the caller's own account
// @Summary Delete user
// @Description Users can only delete themselves
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Security BearerAuth
// @Success 200 {object} middleware.UnifiedResponse
// @Failure 403 {object} middleware.UnifiedResponse "Not the caller's account"
// @Failure 404 {object} middleware.UnifiedResponse "User not found"
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	scoped, ok := scopedStore(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "user")
	if !ok {
		return
	}

	if err := scoped.DeleteUser(c.Request.Context(), id); err != nil {
		shared.RespondError(c, err)
		return
	}
	shared.RespondSuccess(c, http.StatusOK, "User deleted successfully", nil)
}

// validateUserFields checks the fields that are present
func validateUserFields(name, email, password *string) error {
	if name != nil {
		if err := utils.ValidateName("Name", *name); err != nil {
			return err
		}
	}
	if email != nil {
		if err := utils.ValidateEmail(*email); err != nil {
			return err
		}
	}
	if password != nil {
		if err := utils.ValidatePassword(*password); err != nil {
			return err
		}
	}
	return nil
}
