package database

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"pokedex-backend/shared/clients"
	"pokedex-backend/shared/database/models"
	utils "pokedex-backend/shared/utils/auth"
)

const (
	seedBatchSize     = 200
	mirrorConcurrency = 8
)

var (
	orgAdjectives = []string{"crimson", "azure", "golden", "silver", "emerald", "obsidian", "scarlet", "violet", "amber", "ivory", "cobalt", "jade"}
	orgNouns      = []string{"league", "guild", "academy", "rangers", "trainers", "society", "alliance", "circle", "order", "expedition"}
	firstNames    = []string{"ash", "misty", "brock", "gary", "dawn", "may", "max", "serena", "clemont", "iris", "cilan", "lillie", "gladion", "hop", "leon", "marnie"}
	lastNames     = []string{"ketchum", "waterflower", "harrison", "oak", "berlitz", "maple", "birch", "rowan", "juniper", "elm", "kukui", "magnolia", "sonia", "raihan"}
)

// PokemonSource is the paged pokemon index the seeder imports
type PokemonSource interface {
	FirstPage() string
	FetchPage(ctx context.Context, url string) (*clients.PokemonPage, error)
}

// SpriteMirror copies a sprite into object storage
type SpriteMirror interface {
	Mirror(ctx context.Context, sourceID string) error
}

type SeedOptions struct {
	Organizations int
	UsersPerOrg   int
	UserPassword  string
	// MaxPages caps the index walk; zero walks every page.
	MaxPages int
	// Mirror is optional. When set every imported sprite is copied.
	Mirror SpriteMirror
}

// SeedResult counts what a run created
type SeedResult struct {
	Skipped       bool
	Organizations int
	Pokemons      int
	Users         int
	Sprites       int
}

type Seeder struct {
	db     *gorm.DB
	source PokemonSource
	opts   SeedOptions
	rnd    *rand.Rand
}

func NewSeeder(db *gorm.DB, source PokemonSource, opts SeedOptions) *Seeder {
	seed := uint64(time.Now().UnixNano())
	return &Seeder{
		db:     db,
		source: source,
		opts:   opts,
		rnd:    rand.New(rand.NewPCG(seed, seed>>1)),
	}
}

// Run fills an empty database with organizations, the pokemon index spread
// randomly over them and users for every organization. A database that
// already has organizations is left alone.
func (s *Seeder) Run(ctx context.Context) (*SeedResult, error) {
	log.Info().Str("context", "Seeding Process").Msg("starting seeding process")

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.Organization{}).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to count organizations: %w", err)
	}
	if existing > 0 {
		log.Warn().Str("context", "Seeding Process").Msg("organizations already exist, skipping seeding")
		return &SeedResult{Skipped: true}, nil
	}

	if s.opts.Organizations <= 0 {
		return nil, fmt.Errorf("seeding needs at least one organization")
	}
	if err := utils.ValidatePassword(s.opts.UserPassword); err != nil {
		return nil, fmt.Errorf("seed user password: %w", err)
	}
	hash, err := utils.HashPassword(s.opts.UserPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash seed password: %w", err)
	}

	entries := s.fetchIndex(ctx)

	orgs := lo.Map(s.organizationNames(), func(name string, _ int) models.Organization {
		return models.Organization{Name: name}
	})

	result := &SeedResult{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&orgs).Error; err != nil {
			return fmt.Errorf("failed to create organizations: %w", err)
		}
		result.Organizations = len(orgs)
		log.Info().Str("context", "Seeding Organizations").Int("count", len(orgs)).Msg("organizations seeded")

		pokemons := lo.Map(entries, func(e clients.PokemonEntry, _ int) models.Pokemon {
			return models.Pokemon{
				Name:           e.Name,
				SourceID:       e.SourceID(),
				OrganizationID: orgs[s.rnd.IntN(len(orgs))].ID,
			}
		})
		if len(pokemons) > 0 {
			if err := tx.CreateInBatches(&pokemons, seedBatchSize).Error; err != nil {
				return fmt.Errorf("failed to create pokemons: %w", err)
			}
		}
		result.Pokemons = len(pokemons)
		log.Info().Str("context", "Seeding Pokemon").Int("count", len(pokemons)).Msg("pokemon seeded")

		for i := range orgs {
			users := s.users(orgs[i], i, hash)
			if len(users) == 0 {
				continue
			}
			if err := tx.Create(&users).Error; err != nil {
				return fmt.Errorf("failed to create users for %s: %w", orgs[i].Name, err)
			}
			result.Users += len(users)
			log.Info().Str("context", "Seeding Users").Str("organization", orgs[i].Name).Int("count", len(users)).Msg("users seeded")
		}
		return nil
	})
	if err != nil {
		log.Error().Str("context", "Seeding Process").Err(err).Msg("error during seeding process")
		return nil, err
	}

	if s.opts.Mirror != nil {
		result.Sprites = s.mirror(ctx, entries)
	}

	log.Info().Str("context", "Seeding Process").
		Int("organizations", result.Organizations).
		Int("pokemons", result.Pokemons).
		Int("users", result.Users).
		Int("sprites", result.Sprites).
		Msg("seeding process completed")
	return result, nil
}

// fetchIndex walks the index until the last page or MaxPages. A failed page
// ends the walk and keeps what was already fetched.
func (s *Seeder) fetchIndex(ctx context.Context) []clients.PokemonEntry {
	var entries []clients.PokemonEntry
	next := s.source.FirstPage()
	for pages := 0; next != ""; pages++ {
		if s.opts.MaxPages > 0 && pages >= s.opts.MaxPages {
			break
		}
		page, err := s.source.FetchPage(ctx, next)
		if err != nil {
			log.Error().Str("context", "Fetching Pokemon Data").Str("url", next).Err(err).Msg("failed to fetch pokemon data")
			break
		}
		entries = append(entries, page.Results...)
		next = page.Next
	}
	return lo.UniqBy(entries, func(e clients.PokemonEntry) string { return e.Name })
}

// organizationNames draws distinct adjective+noun names. Past the number of
// combinations a letter suffix keeps them unique.
func (s *Seeder) organizationNames() []string {
	combos := make([]string, 0, len(orgAdjectives)*len(orgNouns))
	for _, adj := range orgAdjectives {
		for _, noun := range orgNouns {
			combos = append(combos, adj+" "+noun)
		}
	}
	s.rnd.Shuffle(len(combos), func(i, j int) { combos[i], combos[j] = combos[j], combos[i] })

	names := make([]string, s.opts.Organizations)
	for i := range names {
		names[i] = combos[i%len(combos)]
		if round := i / len(combos); round > 0 {
			names[i] += " " + letterSuffix(round)
		}
	}
	return names
}

func (s *Seeder) users(org models.Organization, orgIndex int, hash string) []models.User {
	return lo.Times(s.opts.UsersPerOrg, func(i int) models.User {
		first := firstNames[s.rnd.IntN(len(firstNames))]
		last := lastNames[s.rnd.IntN(len(lastNames))]
		return models.User{
			Name:           first + " " + last,
			Email:          fmt.Sprintf("%s.%s.%d.%d@pokedex.dev", first, last, orgIndex+1, i+1),
			Password:       hash,
			OrganizationID: org.ID,
		}
	})
}

// mirror copies sprites with bounded concurrency. Individual failures are
// logged and skipped.
func (s *Seeder) mirror(ctx context.Context, entries []clients.PokemonEntry) int {
	var copied atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(mirrorConcurrency)

	for _, e := range entries {
		sourceID := e.SourceID()
		g.Go(func() error {
			if err := s.opts.Mirror.Mirror(gctx, sourceID); err != nil {
				log.Warn().Str("context", "Mirroring Sprites").Str("source_id", sourceID).Err(err).Msg("sprite not mirrored")
				return nil
			}
			copied.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	log.Info().Str("context", "Mirroring Sprites").Int64("count", copied.Load()).Msg("sprites mirrored")
	return int(copied.Load())
}

// letterSuffix maps 1 to "b", 2 to "c", 26 to "ba"
func letterSuffix(n int) string {
	out := ""
	for {
		out = string(rune('a'+n%26)) + out
		n /= 26
		if n == 0 {
			return out
		}
	}
}
