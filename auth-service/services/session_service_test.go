package services

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokedex-backend/shared/database/dbtest"
	"pokedex-backend/shared/database/models"
	apperrors "pokedex-backend/shared/errors"
	"pokedex-backend/shared/store"
	utils "pokedex-backend/shared/utils/auth"
)

const testPassword = "Str0ngP@ss!"

type sessionFixture struct {
	ctx     context.Context
	store   *store.Store
	service *SessionService
	clock   time.Time
	org     *models.Organization
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	f := &sessionFixture{
		ctx:   context.Background(),
		store: store.New(dbtest.Open(t)),
		clock: time.UnixMilli(1_700_000_000_000),
	}
	now := func() time.Time { return f.clock }
	tokens := newTestTokens(now)
	f.service = NewSessionService(f.store, tokens).WithClock(now)

	org, err := f.store.CreateOrganization(f.ctx, "kanto")
	require.NoError(t, err)
	f.org = org
	return f
}

func newTestTokens(now func() time.Time) *utils.TokenManager {
	return utils.NewTokenManager("test-secret", time.Hour).WithClock(now)
}

func (f *sessionFixture) register(t *testing.T, email string) *SessionResult {
	t.Helper()
	res, err := f.service.Register(f.ctx, RegisterInput{
		Name:           "Ash Ketchum",
		Email:          email,
		Password:       testPassword,
		OrganizationID: f.org.ID,
	})
	require.NoError(t, err)
	return res
}

func TestRegisterThenAuthenticate(t *testing.T) {
	f := newSessionFixture(t)

	res := f.register(t, "Ash@Example.com")

	identity, err := f.service.Authenticate(f.ctx, res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.UserID, identity.UserID)
	assert.Equal(t, f.org.ID, identity.OrganizationID)

	user, err := f.store.FindUserByEmail(f.ctx, "ash@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ash ketchum", user.Name)
	assert.Equal(t, f.clock.UnixMilli(), *user.LastLoginTimestamp)
}

func TestRegisterUnknownOrganization(t *testing.T) {
	f := newSessionFixture(t)

	_, err := f.service.Register(f.ctx, RegisterInput{
		Name: "Gold", Email: "gold@example.com", Password: testPassword, OrganizationID: uuid.New(),
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	_, err = f.store.FindUserByEmail(f.ctx, "gold@example.com")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newSessionFixture(t)
	f.register(t, "ash@example.com")

	_, err := f.service.Register(f.ctx, RegisterInput{
		Name: "Ash", Email: "ASH@example.com", Password: testPassword, OrganizationID: f.org.ID,
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestRegisterValidation(t *testing.T) {
	f := newSessionFixture(t)

	inputs := []RegisterInput{
		{Name: "", Email: "a@example.com", Password: testPassword, OrganizationID: f.org.ID},
		{Name: "R2D2", Email: "a@example.com", Password: testPassword, OrganizationID: f.org.ID},
		{Name: "Ash", Email: "not-an-email", Password: testPassword, OrganizationID: f.org.ID},
		{Name: "Ash", Email: "a@example.com", Password: "weak", OrganizationID: f.org.ID},
		{Name: "Ash", Email: "a@example.com", Password: testPassword},
	}
	for _, in := range inputs {
		_, err := f.service.Register(f.ctx, in)
		assert.True(t, apperrors.Is(err, apperrors.ErrValidation), "%+v", in)
	}
}

func TestLoginInvalidatesEarlierTokens(t *testing.T) {
	f := newSessionFixture(t)
	registered := f.register(t, "ash@example.com")

	login, err := f.service.Login(f.ctx, "ash@example.com", testPassword)
	require.NoError(t, err)
	assert.Equal(t, registered.UserID, login.UserID)

	// Same millisecond: the watermark still advances past the register token.
	_, err = f.service.Authenticate(f.ctx, registered.AccessToken)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidToken))

	_, err = f.service.Authenticate(f.ctx, login.AccessToken)
	assert.NoError(t, err)

	f.clock = f.clock.Add(time.Second)
	second, err := f.service.Login(f.ctx, "ash@example.com", testPassword)
	require.NoError(t, err)

	_, err = f.service.Authenticate(f.ctx, login.AccessToken)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidToken))
	_, err = f.service.Authenticate(f.ctx, second.AccessToken)
	assert.NoError(t, err)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newSessionFixture(t)
	f.register(t, "ash@example.com")

	_, wrongPassword := f.service.Login(f.ctx, "ash@example.com", "Wr0ngP@ss!")
	_, unknownEmail := f.service.Login(f.ctx, "nobody@example.com", testPassword)

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)
	assert.True(t, apperrors.Is(wrongPassword, apperrors.ErrInvalidCredentials))
	assert.True(t, apperrors.Is(unknownEmail, apperrors.ErrInvalidCredentials))
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestLogoutInvalidatesToken(t *testing.T) {
	f := newSessionFixture(t)
	res := f.register(t, "ash@example.com")

	identity, err := f.service.Authenticate(f.ctx, res.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(f.ctx, identity))

	_, err = f.service.Authenticate(f.ctx, res.AccessToken)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidToken))
}

func TestLogoutWithoutIdentity(t *testing.T) {
	f := newSessionFixture(t)

	assert.NoError(t, f.service.Logout(f.ctx, nil))
	assert.NoError(t, f.service.Logout(f.ctx, &utils.Identity{UserID: uuid.New(), OrganizationID: f.org.ID}))
}

// captureLog points the global logger at a buffer for the test's duration
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func logEntries(t *testing.T, buf *bytes.Buffer) []map[string]string {
	t.Helper()
	var entries []map[string]string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]string
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		entries = append(entries, entry)
	}
	return entries
}

func TestFailedOperationsAreLogged(t *testing.T) {
	f := newSessionFixture(t)
	f.register(t, "ash@example.com")
	buf := captureLog(t)

	_, err := f.service.Login(f.ctx, "ash@example.com", "Wr0ngP@ss!")
	require.Error(t, err)
	_, err = f.service.Login(f.ctx, "misty@example.com", testPassword)
	require.Error(t, err)
	_, err = f.service.Register(f.ctx, RegisterInput{Name: "Misty 2", Email: "misty@example.com", Password: testPassword, OrganizationID: f.org.ID})
	require.Error(t, err)

	entries := logEntries(t, buf)
	require.Len(t, entries, 3)
	for i, resource := range []string{"login", "login", "register"} {
		assert.Equal(t, "error", entries[i]["level"])
		assert.Equal(t, "SessionService", entries[i]["context"])
		assert.Equal(t, resource, entries[i]["resource"])
		assert.NotEmpty(t, entries[i]["message"])
	}
	assert.Equal(t, "Email or password is invalid", entries[0]["message"])
	assert.Equal(t, entries[0]["message"], entries[1]["message"])
}
