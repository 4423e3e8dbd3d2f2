package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pokedex-backend/shared/database/models"
	apperrors "pokedex-backend/shared/errors"
	"pokedex-backend/shared/utils/query"
)

// Tenant is the authenticated caller a ScopedStore acts for
type Tenant struct {
	UserID         uuid.UUID
	OrganizationID uuid.UUID
}

// ScopedStore is a view of the store restricted to one organization. Records
// of other organizations behave exactly like missing ones.
type ScopedStore struct {
	db     *gorm.DB
	tenant Tenant
	now    func() time.Time
}

type UpdateUserParams struct {
	Name         *string
	Email        *string
	PasswordHash *string
}

type CreatePokemonParams struct {
	Name           string
	SourceID       string
	OrganizationID uuid.UUID
}

type UpdatePokemonParams struct {
	Name     *string
	SourceID *string
}

// PokemonSummary is one row of the catalog listing
type PokemonSummary struct {
	models.Pokemon
	TotalLike          int64
	TotalDislike       int64
	UserFavoriteStatus models.FavoriteStatus
}

type FavoriteAction string

const (
	FavoriteCreated   FavoriteAction = "created"
	FavoriteUpdated   FavoriteAction = "updated"
	FavoriteRemoved   FavoriteAction = "removed"
	FavoriteUnchanged FavoriteAction = "unchanged"
)

// FavoriteResult reports what a toggle did and the caller's resulting status
type FavoriteResult struct {
	Action FavoriteAction
	Status models.FavoriteStatus
}

var (
	userFilterFields   = map[string]string{"email": "email", "name": "name"}
	userSortFields     = map[string]string{"name": "name", "email": "email", "created_at": "created_at"}
	pokemonSortFields  = map[string]string{"name": "name", "sourceId": "original_id", "created_at": "created_at"}
	pokemonSearchField = []string{"name"}
)

func (s *ScopedStore) Tenant() Tenant {
	return s.tenant
}

// owned filters table rows to the tenant's organization
func (s *ScopedStore) owned(table string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(table+".organization_id = ?", s.tenant.OrganizationID)
	}
}

func (s *ScopedStore) users(db *gorm.DB) *gorm.DB {
	return db.Model(&models.User{}).Scopes(s.owned("users"))
}

func (s *ScopedStore) pokemons(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Pokemon{}).Scopes(s.owned("pokemons"))
}

// resolveOrganization accepts an empty or matching organization id
func (s *ScopedStore) resolveOrganization(id uuid.UUID) (uuid.UUID, error) {
	if id != uuid.Nil && id != s.tenant.OrganizationID {
		return uuid.Nil, apperrors.NotFound("Organization")
	}
	return s.tenant.OrganizationID, nil
}

// Organizations

func (s *ScopedStore) UpdateOrganization(ctx context.Context, id uuid.UUID, name string) (*models.Organization, error) {
	if id != s.tenant.OrganizationID {
		return nil, apperrors.NotFound("Organization")
	}

	var org models.Organization
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&org).Error; err != nil {
			return notFoundOr(err, "Organization")
		}
		if err := ensureUniqueOrganizationName(tx, name, id); err != nil {
			return err
		}
		if err := tx.Model(&org).Update("name", name).Error; err != nil {
			return conflictOr(err, "Organization name already exists")
		}
		org.Name = name
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// DeleteOrganization removes the caller's organization and, by cascade,
// its users, pokemons and favorites.
func (s *ScopedStore) DeleteOrganization(ctx context.Context, id uuid.UUID) error {
	if id != s.tenant.OrganizationID {
		return apperrors.NotFound("Organization")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var org models.Organization
		if err := tx.Where("id = ?", id).First(&org).Error; err != nil {
			return notFoundOr(err, "Organization")
		}
		return tx.Delete(&org).Error
	})
}

// Users

func (s *ScopedStore) ListUsers(ctx context.Context, params query.FilterParams) ([]models.User, int64, error) {
	base := func() *gorm.DB {
		q := s.users(s.db.WithContext(ctx))
		q = query.ApplyFilters(q, params.Filters, userFilterFields)
		return query.ApplySearch(q, params.Search, []string{"name", "email"})
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrapf(err, "count users")
	}

	var users []models.User
	q := query.ApplySort(base(), params.Sort, userSortFields, "created_at DESC")
	if err := query.ApplyPagination(q, params.Skip, params.Take).Find(&users).Error; err != nil {
		return nil, 0, apperrors.Wrapf(err, "list users")
	}
	return users, total, nil
}

func (s *ScopedStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.users(s.db.WithContext(ctx)).Where("users.id = ?", id).First(&user).Error; err != nil {
		return nil, notFoundOr(err, "User")
	}
	return &user, nil
}

// CreateUser adds a user to the caller's organization
func (s *ScopedStore) CreateUser(ctx context.Context, p CreateUserParams) (*models.User, error) {
	orgID, err := s.resolveOrganization(p.OrganizationID)
	if err != nil {
		return nil, err
	}
	p.OrganizationID = orgID

	var user *models.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err = createUser(tx, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUser applies the non-nil fields. A new password also bumps the
// user's watermark so tokens issued before the change stop validating.
func (s *ScopedStore) UpdateUser(ctx context.Context, id uuid.UUID, p UpdateUserParams) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.users(tx).Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("users.id = ?", id).First(&user).Error; err != nil {
			return notFoundOr(err, "User")
		}

		updates := map[string]interface{}{}
		if p.Name != nil {
			updates["name"] = *p.Name
			user.Name = *p.Name
		}
		if p.Email != nil && *p.Email != user.Email {
			var count int64
			if err := tx.Model(&models.User{}).Where("email = ? AND id <> ?", *p.Email, id).
				Count(&count).Error; err != nil {
				return apperrors.Wrapf(err, "check email")
			}
			if count > 0 {
				return apperrors.New(apperrors.ErrConflict, "Email already exists")
			}
			updates["email"] = *p.Email
			user.Email = *p.Email
		}
		if p.PasswordHash != nil {
			updates["password"] = *p.PasswordHash
			user.Password = *p.PasswordHash
		}

		if len(updates) > 0 {
			if err := tx.Model(&models.User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return conflictOr(err, "Email already exists")
			}
		}
		if p.PasswordHash != nil {
			return bumpWatermark(tx, &user, s.now().UnixMilli())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser only lets callers delete themselves. Another user of the same
// organization is Forbidden; one outside it is NotFound.
func (s *ScopedStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := s.users(tx).Where("users.id = ?", id).First(&user).Error; err != nil {
			return notFoundOr(err, "User")
		}
		if user.ID != s.tenant.UserID {
			return apperrors.New(apperrors.ErrForbidden, "Users can only delete their own account")
		}
		return tx.Delete(&user).Error
	})
}

// Pokemons

// ListPokemons returns one page of the catalog with favorite counts and the
// caller's own status for each entry.
func (s *ScopedStore) ListPokemons(ctx context.Context, params query.FilterParams) ([]PokemonSummary, int64, error) {
	base := func() *gorm.DB {
		return query.ApplySearch(s.pokemons(s.db.WithContext(ctx)), params.Search, pokemonSearchField)
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrapf(err, "count pokemons")
	}

	var pokemons []models.Pokemon
	q := query.ApplySort(base(), params.Sort, pokemonSortFields, "name ASC")
	if err := query.ApplyPagination(q, params.Skip, params.Take).Find(&pokemons).Error; err != nil {
		return nil, 0, apperrors.Wrapf(err, "list pokemons")
	}

	summaries := make([]PokemonSummary, len(pokemons))
	if len(pokemons) == 0 {
		return summaries, total, nil
	}

	ids := make([]uuid.UUID, len(pokemons))
	index := make(map[uuid.UUID]int, len(pokemons))
	for i, p := range pokemons {
		ids[i] = p.ID
		index[p.ID] = i
		summaries[i] = PokemonSummary{Pokemon: p, UserFavoriteStatus: models.FavoriteUnliked}
	}

	var counts []struct {
		PokemonID uuid.UUID
		Status    models.FavoriteStatus
		Total     int64
	}
	if err := s.db.WithContext(ctx).Model(&models.Favorite{}).
		Select("pokemon_id, favorite_status AS status, COUNT(*) AS total").
		Where("pokemon_id IN ?", ids).
		Group("pokemon_id, favorite_status").
		Scan(&counts).Error; err != nil {
		return nil, 0, apperrors.Wrapf(err, "count favorites")
	}
	for _, c := range counts {
		i, ok := index[c.PokemonID]
		if !ok {
			continue
		}
		switch c.Status {
		case models.FavoriteLike:
			summaries[i].TotalLike = c.Total
		case models.FavoriteDislike:
			summaries[i].TotalDislike = c.Total
		}
	}

	var own []models.Favorite
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND pokemon_id IN ?", s.tenant.UserID, ids).
		Find(&own).Error; err != nil {
		return nil, 0, apperrors.Wrapf(err, "load favorites")
	}
	for _, f := range own {
		if i, ok := index[f.PokemonID]; ok {
			summaries[i].UserFavoriteStatus = f.Status
		}
	}

	return summaries, total, nil
}

func (s *ScopedStore) GetPokemon(ctx context.Context, id uuid.UUID) (*models.Pokemon, error) {
	var pokemon models.Pokemon
	if err := s.pokemons(s.db.WithContext(ctx)).Where("pokemons.id = ?", id).First(&pokemon).Error; err != nil {
		return nil, notFoundOr(err, "Pokemon")
	}
	return &pokemon, nil
}

func (s *ScopedStore) CreatePokemon(ctx context.Context, p CreatePokemonParams) (*models.Pokemon, error) {
	orgID, err := s.resolveOrganization(p.OrganizationID)
	if err != nil {
		return nil, err
	}

	pokemon := models.Pokemon{Name: p.Name, SourceID: p.SourceID, OrganizationID: orgID}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUniquePokemonName(tx, p.Name, uuid.Nil); err != nil {
			return err
		}
		if err := tx.Create(&pokemon).Error; err != nil {
			return conflictOr(err, "Pokemon name already exists")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &pokemon, nil
}

func (s *ScopedStore) UpdatePokemon(ctx context.Context, id uuid.UUID, p UpdatePokemonParams) (*models.Pokemon, error) {
	var pokemon models.Pokemon
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.pokemons(tx).Where("pokemons.id = ?", id).First(&pokemon).Error; err != nil {
			return notFoundOr(err, "Pokemon")
		}

		updates := map[string]interface{}{}
		if p.Name != nil && *p.Name != pokemon.Name {
			if err := ensureUniquePokemonName(tx, *p.Name, id); err != nil {
				return err
			}
			updates["name"] = *p.Name
			pokemon.Name = *p.Name
		}
		if p.SourceID != nil {
			updates["original_id"] = *p.SourceID
			pokemon.SourceID = *p.SourceID
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&models.Pokemon{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return conflictOr(err, "Pokemon name already exists")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &pokemon, nil
}

func (s *ScopedStore) DeletePokemon(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pokemon models.Pokemon
		if err := s.pokemons(tx).Where("pokemons.id = ?", id).First(&pokemon).Error; err != nil {
			return notFoundOr(err, "Pokemon")
		}
		return tx.Delete(&pokemon).Error
	})
}

// ToggleFavorite sets the caller's status for a pokemon. Repeating the stored
// status removes it, a different status replaces it, and UNLIKED removes any
// stored row.
func (s *ScopedStore) ToggleFavorite(ctx context.Context, pokemonID uuid.UUID, status models.FavoriteStatus) (*FavoriteResult, error) {
	var result FavoriteResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pokemon models.Pokemon
		if err := s.pokemons(tx).Where("pokemons.id = ?", pokemonID).First(&pokemon).Error; err != nil {
			return notFoundOr(err, "Pokemon")
		}

		var existing models.Favorite
		err := tx.Where("user_id = ? AND pokemon_id = ?", s.tenant.UserID, pokemonID).
			Limit(1).Find(&existing).Error
		if err != nil {
			return apperrors.Wrapf(err, "load favorite")
		}
		found := existing.ID != uuid.Nil

		switch {
		case !found && status == models.FavoriteUnliked:
			result = FavoriteResult{Action: FavoriteUnchanged, Status: models.FavoriteUnliked}
			return nil
		case !found:
			fav := models.Favorite{UserID: s.tenant.UserID, PokemonID: pokemonID, Status: status}
			if err := tx.Create(&fav).Error; err != nil {
				return conflictOr(err, "Favorite already exists")
			}
			result = FavoriteResult{Action: FavoriteCreated, Status: status}
			return nil
		case status == models.FavoriteUnliked || existing.Status == status:
			if err := tx.Delete(&existing).Error; err != nil {
				return apperrors.Wrapf(err, "delete favorite")
			}
			result = FavoriteResult{Action: FavoriteRemoved, Status: models.FavoriteUnliked}
			return nil
		default:
			if err := tx.Model(&existing).Update("favorite_status", status).Error; err != nil {
				return apperrors.Wrapf(err, "update favorite")
			}
			result = FavoriteResult{Action: FavoriteUpdated, Status: status}
			return nil
		}
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func ensureUniquePokemonName(tx *gorm.DB, name string, except uuid.UUID) error {
	var count int64
	q := tx.Model(&models.Pokemon{}).Where("name = ?", name)
	if except != uuid.Nil {
		q = q.Where("id <> ?", except)
	}
	if err := q.Count(&count).Error; err != nil {
		return apperrors.Wrapf(err, "check pokemon name")
	}
	if count > 0 {
		return apperrors.New(apperrors.ErrConflict, "Pokemon name already exists")
	}
	return nil
}
