package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokedex-backend/shared/database/dbtest"
	"pokedex-backend/shared/database/models"
	shared "pokedex-backend/shared/middleware"
	"pokedex-backend/shared/storage"
	"pokedex-backend/shared/store"
	utils "pokedex-backend/shared/utils/auth"
	"pokedex-backend/shared/utils/query"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success    bool                      `json:"success"`
	Message    string                    `json:"message"`
	Data       json.RawMessage           `json:"data"`
	Pagination *query.PaginationResponse `json:"pagination"`
	Error      *shared.ErrorInfo         `json:"error"`
}

type member struct {
	user  *models.User
	token string
}

type testServer struct {
	router *gin.Engine
	store  *store.Store
	tokens *utils.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s := store.New(dbtest.Open(t))
	tokens := utils.NewTokenManager("test-secret", time.Hour)

	router := gin.New()
	router.Use(shared.RequestID())
	RegisterRoutes(router, shared.NewAuth(tokens, s), Handlers{
		Organizations: NewOrganizationHandler(s),
		Users:         NewUserHandler(),
		Pokemons:      NewPokemonHandler(storage.BaseURLResolver{BaseURL: "https://img.example.com"}),
	})
	return &testServer{router: router, store: s, tokens: tokens}
}

func (ts *testServer) org(t *testing.T, name string) *models.Organization {
	t.Helper()
	org, err := ts.store.CreateOrganization(context.Background(), name)
	require.NoError(t, err)
	return org
}

func (ts *testServer) member(t *testing.T, org *models.Organization, email string) member {
	t.Helper()
	hash, err := utils.HashPassword("Str0ngP@ss!")
	require.NoError(t, err)
	watermark := time.Now().UnixMilli()
	user, err := ts.store.CreateUser(context.Background(), store.CreateUserParams{
		Name: "trainer", Email: email, PasswordHash: hash,
		OrganizationID: org.ID, LastLoginTimestamp: &watermark,
	})
	require.NoError(t, err)
	token, err := ts.tokens.Issue(user)
	require.NoError(t, err)
	return member{user: user, token: token}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}, token string) (int, envelope) {
	t.Helper()
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestOrganizationsListIsPublic(t *testing.T) {
	ts := newTestServer(t)
	ts.org(t, "kanto")
	ts.org(t, "johto")

	status, env := ts.do(t, http.MethodGet, "/api/organizations", nil, "")
	require.Equal(t, http.StatusOK, status)
	orgs := decode[[]OrganizationResponse](t, env)
	assert.Len(t, orgs, 2)
}

func TestOrganizationCRUD(t *testing.T) {
	ts := newTestServer(t)
	kanto := ts.org(t, "kanto")
	johto := ts.org(t, "johto")
	ash := ts.member(t, kanto, "ash@example.com")

	status, _ := ts.do(t, http.MethodPost, "/api/organizations", OrganizationRequest{Name: "Hoenn"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env := ts.do(t, http.MethodPost, "/api/organizations", OrganizationRequest{Name: "  Team   Rocket "}, ash.token)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "team rocket", decode[OrganizationResponse](t, env).Name)

	status, env = ts.do(t, http.MethodPost, "/api/organizations", OrganizationRequest{Name: "Team 7"}, ash.token)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	status, _ = ts.do(t, http.MethodPost, "/api/organizations", OrganizationRequest{Name: "KANTO"}, ash.token)
	assert.Equal(t, http.StatusConflict, status)

	status, env = ts.do(t, http.MethodGet, "/api/organizations/"+johto.ID.String(), nil, ash.token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "johto", decode[OrganizationResponse](t, env).Name)

	status, _ = ts.do(t, http.MethodPatch, "/api/organizations/"+johto.ID.String(), OrganizationRequest{Name: "Sinnoh"}, ash.token)
	assert.Equal(t, http.StatusNotFound, status)

	status, env = ts.do(t, http.MethodPatch, "/api/organizations/"+kanto.ID.String(), OrganizationRequest{Name: "Indigo"}, ash.token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "indigo", decode[OrganizationResponse](t, env).Name)

	status, _ = ts.do(t, http.MethodDelete, "/api/organizations/"+johto.ID.String(), nil, ash.token)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = ts.do(t, http.MethodGet, "/api/organizations/not-a-uuid", nil, ash.token)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestDeleteOwnOrganizationRevokesAccess(t *testing.T) {
	ts := newTestServer(t)
	kanto := ts.org(t, "kanto")
	ash := ts.member(t, kanto, "ash@example.com")

	status, _ := ts.do(t, http.MethodDelete, "/api/organizations/"+kanto.ID.String(), nil, ash.token)
	require.Equal(t, http.StatusOK, status)

	// The user went with the organization, so the token no longer resolves.
	status, env := ts.do(t, http.MethodGet, "/api/users", nil, ash.token)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "EXPIRED_TOKEN", env.Error.Code)
}

func TestUsersAreTenantScoped(t *testing.T) {
	ts := newTestServer(t)
	kanto := ts.org(t, "kanto")
	johto := ts.org(t, "johto")
	ash := ts.member(t, kanto, "ash@example.com")
	brock := ts.member(t, kanto, "brock@example.com")
	gold := ts.member(t, johto, "gold@example.com")

	status, env := ts.do(t, http.MethodGet, "/api/users?take=10", nil, ash.token)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]UserResponse](t, env), 2)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, int64(2), env.Pagination.TotalRecords)

	status, _ = ts.do(t, http.MethodGet, "/api/users/"+brock.user.ID.String(), nil, ash.token)
	assert.Equal(t, http.StatusOK, status)

	status, _ = ts.do(t, http.MethodGet, "/api/users/"+gold.user.ID.String(), nil, ash.token)
	assert.Equal(t, http.StatusNotFound, status)

	status, env = ts.do(t, http.MethodDelete, "/api/users/"+brock.user.ID.String(), nil, ash.token)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	status, _ = ts.do(t, http.MethodDelete, "/api/users/"+gold.user.ID.String(), nil, ash.token)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = ts.do(t, http.MethodDelete, "/api/users/"+ash.user.ID.String(), nil, ash.token)
	assert.Equal(t, http.StatusOK, status)
}

func TestCreateUser(t *testing.T) {
	ts := newTestServer(t)
	kanto := ts.org(t, "kanto")
	johto := ts.org(t, "johto")
	ash := ts.member(t, kanto, "ash@example.com")

	status, env := ts.do(t, http.MethodPost, "/api/users", CreateUserRequest{
		Name: "Misty", Email: "Misty@Example.com", Password: "Str0ngP@ss!",
	}, ash.token)
	require.Equal(t, http.StatusCreated, status)
	created := decode[UserResponse](t, env)
	assert.Equal(t, "misty@example.com", created.Email)
	assert.Equal(t, kanto.ID, created.OrganizationID)

	status, _ = ts.do(t, http.MethodPost, "/api/users", CreateUserRequest{
		Name: "Gold", Email: "gold@example.com", Password: "Str0ngP@ss!", OrganizationID: johto.ID.String(),
	}, ash.token)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = ts.do(t, http.MethodPost, "/api/users", CreateUserRequest{
		Name: "Misty", Email: "misty@example.com", Password: "Str0ngP@ss!",
	}, ash.token)
	assert.Equal(t, http.StatusConflict, status)

	status, _ = ts.do(t, http.MethodPost, "/api/users", CreateUserRequest{
		Name: "Misty", Email: "misty2@example.com", Password: "weak",
	}, ash.token)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestPasswordChangeRevokesTokens(t *testing.T) {
	ts := newTestServer(t)
	ash := ts.member(t, ts.org(t, "kanto"), "ash@example.com")

	password := "N3wP@ssword"
	status, _ := ts.do(t, http.MethodPatch, "/api/users/"+ash.user.ID.String(), UpdateUserRequest{Password: &password}, ash.token)
	require.Equal(t, http.StatusOK, status)

	status, env := ts.do(t, http.MethodGet, "/api/users", nil, ash.token)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "INVALID_TOKEN", env.Error.Code)
}

func TestPokemonCRUD(t *testing.T) {
	ts := newTestServer(t)
	ash := ts.member(t, ts.org(t, "kanto"), "ash@example.com")
	gold := ts.member(t, ts.org(t, "johto"), "gold@example.com")

	status, env := ts.do(t, http.MethodPost, "/api/pokemons", CreatePokemonRequest{Name: "Pikachu", SourceID: "25"}, ash.token)
	require.Equal(t, http.StatusCreated, status)
	created := decode[PokemonResponse](t, env)
	assert.Equal(t, "pikachu", created.Name)
	assert.Equal(t, "https://img.example.com/25.png", created.ImageURL)
	path := "/api/pokemons/" + created.ID.String()

	status, env = ts.do(t, http.MethodGet, path, nil, ash.token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, created.ID, decode[PokemonResponse](t, env).ID)

	status, env = ts.do(t, http.MethodGet, path, nil, gold.token)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	name := "Raichu"
	status, env = ts.do(t, http.MethodPut, path, UpdatePokemonRequest{Name: &name}, ash.token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "raichu", decode[PokemonResponse](t, env).Name)

	status, _ = ts.do(t, http.MethodPut, path, UpdatePokemonRequest{Name: &name}, gold.token)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = ts.do(t, http.MethodDelete, path, nil, gold.token)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = ts.do(t, http.MethodDelete, path, nil, ash.token)
	assert.Equal(t, http.StatusOK, status)

	status, _ = ts.do(t, http.MethodGet, path, nil, ash.token)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestFavoriteStatusToggle(t *testing.T) {
	ts := newTestServer(t)
	kanto := ts.org(t, "kanto")
	ash := ts.member(t, kanto, "ash@example.com")
	brock := ts.member(t, kanto, "brock@example.com")
	gold := ts.member(t, ts.org(t, "johto"), "gold@example.com")

	_, env := ts.do(t, http.MethodPost, "/api/pokemons", CreatePokemonRequest{Name: "Pikachu", SourceID: "25"}, ash.token)
	pikachu := decode[PokemonResponse](t, env)
	path := "/api/pokemons/" + pikachu.ID.String() + "/favoriteStatus?favoriteStatus="

	status, env := ts.do(t, http.MethodPost, path+"LIKE", nil, ash.token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, store.FavoriteCreated, decode[FavoriteStatusResponse](t, env).Action)

	status, env = ts.do(t, http.MethodPost, path+"LIKE", nil, ash.token)
	require.Equal(t, http.StatusOK, status)
	res := decode[FavoriteStatusResponse](t, env)
	assert.Equal(t, store.FavoriteRemoved, res.Action)
	assert.Equal(t, models.FavoriteUnliked, res.FavoriteStatus)

	ts.do(t, http.MethodPost, path+"LIKE", nil, ash.token)
	ts.do(t, http.MethodPost, path+"DISLIKE", nil, brock.token)

	status, _ = ts.do(t, http.MethodPost, path+"LIKE", nil, gold.token)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = ts.do(t, http.MethodPost, path+"LOVE", nil, ash.token)
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = ts.do(t, http.MethodGet, "/api/pokemons", nil, ash.token)
	require.Equal(t, http.StatusOK, status)
	items := decode[[]PokemonListItem](t, env)
	require.Len(t, items, 1)
	assert.Equal(t, int64(1), items[0].TotalLike)
	assert.Equal(t, int64(1), items[0].TotalDislike)
	assert.Equal(t, models.FavoriteLike, items[0].UserFavoriteStatus)
	assert.Equal(t, "https://img.example.com/25.png", items[0].ImageURL)
}

func TestPokemonListPagination(t *testing.T) {
	ts := newTestServer(t)
	ash := ts.member(t, ts.org(t, "kanto"), "ash@example.com")
	for i, name := range []string{"Abra", "Bulbasaur", "Charmander", "Ditto", "Eevee", "Fearow", "Gastly"} {
		status, _ := ts.do(t, http.MethodPost, "/api/pokemons", CreatePokemonRequest{
			Name: name, SourceID: strconv.Itoa(i + 1),
		}, ash.token)
		require.Equal(t, http.StatusCreated, status)
	}

	status, env := ts.do(t, http.MethodGet, "/api/pokemons", nil, ash.token)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]PokemonListItem](t, env), query.DefaultTake)
	assert.Equal(t, query.PaginationResponse{
		Page: 1, TotalPages: 2, PageSize: 5, TotalRecords: 7, HasNext: true, HasPrev: false,
	}, *env.Pagination)

	status, env = ts.do(t, http.MethodGet, "/api/pokemons?skip=5&take=5", nil, ash.token)
	require.Equal(t, http.StatusOK, status)
	items := decode[[]PokemonListItem](t, env)
	require.Len(t, items, 2)
	assert.Equal(t, "fearow", items[0].Name)
	assert.Equal(t, 2, env.Pagination.Page)

	status, env = ts.do(t, http.MethodGet, "/api/pokemons?search=CHAR", nil, ash.token)
	require.Equal(t, http.StatusOK, status)
	items = decode[[]PokemonListItem](t, env)
	require.Len(t, items, 1)
	assert.Equal(t, "charmander", items[0].Name)
}

func TestResourceRoutesRequireAuth(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/api/users", "/api/pokemons", "/api/organizations/" + uuid.NewString()} {
		status, env := ts.do(t, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, status, path)
		assert.False(t, env.Success)
	}
}
