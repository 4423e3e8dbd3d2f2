package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"pokedex-backend/shared/database/models"
	apperrors "pokedex-backend/shared/errors"
	"pokedex-backend/shared/logging"
	"pokedex-backend/shared/store"
	utils "pokedex-backend/shared/utils/auth"
)

const sessionContext = "SessionService"

// CredentialStore is the persistence the session lifecycle needs
type CredentialStore interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	CreateUser(ctx context.Context, p store.CreateUserParams) (*models.User, error)
	BumpWatermark(ctx context.Context, userID uuid.UUID, at int64) (*models.User, error)
}

type SessionService struct {
	users  CredentialStore
	tokens *utils.TokenManager
	now    func() time.Time
}

// SessionResult is what login and register hand back to the transport
type SessionResult struct {
	AccessToken string    `json:"accessToken"`
	UserID      uuid.UUID `json:"id"`
}

type RegisterInput struct {
	Name           string
	Email          string
	Password       string
	OrganizationID uuid.UUID
}

func NewSessionService(users CredentialStore, tokens *utils.TokenManager) *SessionService {
	return &SessionService{users: users, tokens: tokens, now: time.Now}
}

// WithClock replaces the clock used for watermarks
func (s *SessionService) WithClock(now func() time.Time) *SessionService {
	s.now = now
	return s
}

// Login verifies the credentials, moves the watermark forward and issues a
// token stamped with it. Every earlier token of the user stops validating.
func (s *SessionService) Login(ctx context.Context, email, password string) (*SessionResult, error) {
	email = utils.NormalizeEmail(email)

	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrNotFound) {
			logging.Failure(sessionContext, "login", err)
			return nil, err
		}
		utils.CheckDecoyPassword(password)
		return nil, s.failed("login", invalidCredentials())
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, s.failed("login", invalidCredentials())
	}

	user, err = s.users.BumpWatermark(ctx, user.ID, s.now().UnixMilli())
	if err != nil {
		logging.Failure(sessionContext, "login", err)
		return nil, err
	}

	return s.issue(user, "login")
}

// Logout bumps the caller's watermark. A nil identity is an anonymous or
// already invalid session and succeeds without touching the store.
func (s *SessionService) Logout(ctx context.Context, identity *utils.Identity) error {
	if identity == nil {
		return nil
	}
	if _, err := s.users.BumpWatermark(ctx, identity.UserID, s.now().UnixMilli()); err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		logging.Failure(sessionContext, "logout", err)
		return err
	}
	return nil
}

// Register validates the input, creates the user with its watermark set and
// issues the first token.
func (s *SessionService) Register(ctx context.Context, in RegisterInput) (*SessionResult, error) {
	if err := validateRegistration(in); err != nil {
		return nil, s.failed("register", err)
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		logging.Failure(sessionContext, "register", err)
		return nil, apperrors.Wrapf(err, "hash password")
	}

	watermark := s.now().UnixMilli()
	user, err := s.users.CreateUser(ctx, store.CreateUserParams{
		Name:               utils.NormalizeName(in.Name),
		Email:              utils.NormalizeEmail(in.Email),
		PasswordHash:       hash,
		OrganizationID:     in.OrganizationID,
		LastLoginTimestamp: &watermark,
	})
	if err != nil {
		logging.Failure(sessionContext, "register", err)
		return nil, err
	}

	return s.issue(user, "register")
}

// Authenticate validates a token against the stored watermark
func (s *SessionService) Authenticate(ctx context.Context, token string) (*utils.Identity, error) {
	return s.tokens.Authenticate(ctx, token, s.users)
}

func (s *SessionService) issue(user *models.User, resource string) (*SessionResult, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		logging.Failure(sessionContext, resource, err)
		return nil, err
	}
	return &SessionResult{AccessToken: token, UserID: user.ID}, nil
}

// failed logs err under the session context and hands it back
func (s *SessionService) failed(resource string, err error) error {
	logging.Failure(sessionContext, resource, err)
	return err
}

func validateRegistration(in RegisterInput) error {
	if err := utils.ValidateName("Name", in.Name); err != nil {
		return err
	}
	if err := utils.ValidateEmail(in.Email); err != nil {
		return err
	}
	if err := utils.ValidatePassword(in.Password); err != nil {
		return err
	}
	if in.OrganizationID == uuid.Nil {
		return apperrors.New(apperrors.ErrValidation, "Organization ID is required")
	}
	return nil
}

func invalidCredentials() error {
	return apperrors.New(apperrors.ErrInvalidCredentials, "Email or password is invalid")
}
