package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pokedex-backend/auth-service/services"
	apperrors "pokedex-backend/shared/errors"
	shared "pokedex-backend/shared/middleware"
	utils "pokedex-backend/shared/utils/auth"
)

type AuthHandler struct {
	sessions *services.SessionService
	cookies  utils.CookieOptions
}

func NewAuthHandler(sessions *services.SessionService, cookies utils.CookieOptions) *AuthHandler {
	return &AuthHandler{sessions: sessions, cookies: cookies}
}

// Login Request/Response structs
type LoginRequest struct {
	Email    string `json:"email" binding:"required" example:"ash@example.com"`
	Password string `json:"password" binding:"required" example:"Str0ngP@ss!"`
}

// Register Request struct
type RegisterRequest struct {
	Name           string `json:"name" binding:"required" example:"Ash Ketchum"`
	Email          string `json:"email" binding:"required" example:"ash@example.com"`
	Password       string `json:"password" binding:"required" example:"Str0ngP@ss!"`
	OrganizationID string `json:"organizationId" binding:"required" example:"3fa85f64-5717-4562-b3fc-2c963f66afa6"`
}

// AuthResponse is returned by login and register. The same values are also
// set as the accessToken and id cookies.
type AuthResponse struct {
	AccessToken string    `json:"accessToken" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	ID          uuid.UUID `json:"id"`
}

type MeResponse struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organizationId"`
}

// POST /api/auth/login
// @Summary User login
// @Description Authenticate a user, set the auth cookies and return the access token. Every earlier token of the user is revoked.
// @Tags auth
// @Accept json
// @Produce json
// @Param login body LoginRequest true "Login credentials"
// @Success 201 {object} middleware.UnifiedResponse{data=handlers.AuthResponse} "Successful login"
// @Failure 400 {object} middleware.UnifiedResponse "Invalid request format"
// @Failure 401 {object} middleware.UnifiedResponse "Invalid credentials"
// @Failure 429 {object} middleware.UnifiedResponse "Too many login attempts"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondBadRequest(c, err.Error())
		return
	}

	result, err := h.sessions.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		shared.RespondError(c, err)
		return
	}

	h.respondWithSession(c, "Login successful", result)
}

// POST /api/auth/logout
// @Summary User logout
// @Description Revoke every token of the current user and clear the auth cookies. Succeeds without a valid token.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} middleware.UnifiedResponse "Logout successful"
// @Failure 500 {object} middleware.UnifiedResponse "Could not logout"
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	identity, _ := shared.GetIdentity(c)

	if err := h.sessions.Logout(c.Request.Context(), identity); err != nil {
		shared.RespondError(c, err)
		return
	}

	utils.ClearAuthCookies(c, h.cookies)
	shared.RespondSuccess(c, http.StatusOK, "Logout successful", nil)
}

// POST /api/auth/register
// @Summary Register new user
// @Description Register a user in an existing organization and sign them in
// @Tags auth
// @Accept json
// @Produce json
// @Param register body RegisterRequest true "User registration data"
// @Success 201 {object} middleware.UnifiedResponse{data=handlers.AuthResponse} "User registered successfully"
// @Failure 400 {object} middleware.UnifiedResponse "Invalid request format or validation error"
// @Failure 404 {object} middleware.UnifiedResponse "Organization not found"
// @Failure 409 {object} middleware.UnifiedResponse "Email already exists"
// @Failure 429 {object} middleware.UnifiedResponse "Too many registration attempts"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondBadRequest(c, err.Error())
		return
	}

	orgID, err := uuid.Parse(req.OrganizationID)
	if err != nil {
		shared.RespondBadRequest(c, "Organization ID is invalid")
		return
	}

	result, err := h.sessions.Register(c.Request.Context(), services.RegisterInput{
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		OrganizationID: orgID,
	})
	if err != nil {
		shared.RespondError(c, err)
		return
	}

	h.respondWithSession(c, "User registered successfully", result)
}

// GET /api/auth/me
// @Summary Current user
// @Description Return the identity carried by the current access token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} middleware.UnifiedResponse{data=handlers.MeResponse}
// @Failure 401 {object} middleware.UnifiedResponse "Invalid or expired token"
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	identity, ok := shared.GetIdentity(c)
	if !ok {
		shared.RespondError(c, apperrors.New(apperrors.ErrInvalidToken, "Authentication token is missing"))
		return
	}

	shared.RespondSuccess(c, http.StatusOK, "", MeResponse{
		ID:             identity.UserID,
		OrganizationID: identity.OrganizationID,
	})
}

func (h *AuthHandler) respondWithSession(c *gin.Context, message string, result *services.SessionResult) {
	utils.SetAuthCookies(c, h.cookies, result.AccessToken, result.UserID.String())
	shared.RespondSuccess(c, http.StatusCreated, message, AuthResponse{
		AccessToken: result.AccessToken,
		ID:          result.UserID,
	})
}
