// Package store is the persistence layer shared by the auth and core services.
// Store exposes the unscoped operations authentication needs; ScopedStore
// confines every query to one organization.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pokedex-backend/shared/database/models"
	apperrors "pokedex-backend/shared/errors"
)

type Store struct {
	db  *gorm.DB
	now func() time.Time
}

func New(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// WithClock replaces the clock used for watermark bumps
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// CreateUserParams carries an already validated and normalized user
type CreateUserParams struct {
	Name               string
	Email              string
	PasswordHash       string
	OrganizationID     uuid.UUID
	LastLoginTimestamp *int64
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFoundOr(err, "User")
	}
	return &user, nil
}

func (s *Store) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFoundOr(err, "User")
	}
	return &user, nil
}

// CreateUser inserts a user after checking email uniqueness and that the
// organization exists. Both checks and the insert share one transaction.
func (s *Store) CreateUser(ctx context.Context, p CreateUserParams) (*models.User, error) {
	var user *models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		user, err = createUser(tx, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// BumpWatermark moves the user's watermark to at, or one past the current
// value when at would not advance it. The row is locked for the read so
// concurrent bumps stay strictly increasing.
func (s *Store) BumpWatermark(ctx context.Context, userID uuid.UUID, at int64) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", userID).First(&user).Error; err != nil {
			return notFoundOr(err, "User")
		}
		return bumpWatermark(tx, &user, at)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) ListOrganizations(ctx context.Context) ([]models.Organization, error) {
	var orgs []models.Organization
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&orgs).Error; err != nil {
		return nil, apperrors.Wrapf(err, "list organizations")
	}
	return orgs, nil
}

func (s *Store) GetOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	var org models.Organization
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&org).Error; err != nil {
		return nil, notFoundOr(err, "Organization")
	}
	return &org, nil
}

// CreateOrganization inserts an organization with an already normalized name
func (s *Store) CreateOrganization(ctx context.Context, name string) (*models.Organization, error) {
	org := models.Organization{Name: name}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUniqueOrganizationName(tx, name, uuid.Nil); err != nil {
			return err
		}
		if err := tx.Create(&org).Error; err != nil {
			return conflictOr(err, "Organization name already exists")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// Scoped returns a store whose queries only see the tenant's organization
func (s *Store) Scoped(t Tenant) *ScopedStore {
	return &ScopedStore{db: s.db, tenant: t, now: s.now}
}

func createUser(tx *gorm.DB, p CreateUserParams) (*models.User, error) {
	var count int64
	if err := tx.Model(&models.User{}).Where("email = ?", p.Email).Count(&count).Error; err != nil {
		return nil, apperrors.Wrapf(err, "check email")
	}
	if count > 0 {
		return nil, apperrors.New(apperrors.ErrConflict, "Email already exists")
	}

	var org models.Organization
	if err := tx.Where("id = ?", p.OrganizationID).First(&org).Error; err != nil {
		return nil, notFoundOr(err, "Organization")
	}

	user := models.User{
		Name:               p.Name,
		Email:              p.Email,
		Password:           p.PasswordHash,
		OrganizationID:     p.OrganizationID,
		LastLoginTimestamp: p.LastLoginTimestamp,
	}
	if err := tx.Create(&user).Error; err != nil {
		return nil, conflictOr(err, "Email already exists")
	}
	return &user, nil
}

func bumpWatermark(tx *gorm.DB, user *models.User, at int64) error {
	next := at
	if user.LastLoginTimestamp != nil && *user.LastLoginTimestamp >= next {
		next = *user.LastLoginTimestamp + 1
	}
	if err := tx.Model(&models.User{}).Where("id = ?", user.ID).
		Update("last_login_timestamp", next).Error; err != nil {
		return apperrors.Wrapf(err, "update watermark")
	}
	user.LastLoginTimestamp = &next
	return nil
}

func ensureUniqueOrganizationName(tx *gorm.DB, name string, except uuid.UUID) error {
	var count int64
	q := tx.Model(&models.Organization{}).Where("name = ?", name)
	if except != uuid.Nil {
		q = q.Where("id <> ?", except)
	}
	if err := q.Count(&count).Error; err != nil {
		return apperrors.Wrapf(err, "check organization name")
	}
	if count > 0 {
		return apperrors.New(apperrors.ErrConflict, "Organization name already exists")
	}
	return nil
}

func notFoundOr(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(resource)
	}
	return apperrors.Wrapf(err, "load %s", resource)
}

func conflictOr(err error, message string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.New(apperrors.ErrConflict, "%s", message)
	}
	return err
}
