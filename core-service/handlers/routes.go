package handlers

import (
	"github.com/gin-gonic/gin"

	shared "pokedex-backend/shared/middleware"
)

type Handlers struct {
	Organizations *OrganizationHandler
	Users         *UserHandler
	Pokemons      *PokemonHandler
}

// RegisterRoutes mounts the resource API. Everything except the
// organization listing requires a valid token.
func RegisterRoutes(router gin.IRouter, auth *shared.Auth, h Handlers) {
	api := router.Group("/api")

	// Organization routes
	api.GET("/organizations", h.Organizations.GetOrganizations)
	orgs := api.Group("/organizations", auth.RequireAuth())
	orgs.GET("/:id", h.Organizations.GetOrganization)
	orgs.POST("", h.Organizations.CreateOrganization)
	orgs.PATCH("/:id", h.Organizations.UpdateOrganization)
	orgs.DELETE("/:id", h.Organizations.DeleteOrganization)

	// User routes
	users := api.Group("/users", auth.RequireAuth())
	users.GET("", h.Users.GetUsers)
	users.POST("", h.Users.CreateUser)
	users.GET("/:id", h.Users.GetUser)
	users.PATCH("/:id", h.Users.UpdateUser)
	users.DELETE("/:id", h.Users.DeleteUser)

	// Pokemon routes
	pokemons := api.Group("/pokemons", auth.RequireAuth())
	pokemons.GET("", h.Pokemons.GetPokemons)
	pokemons.POST("", h.Pokemons.CreatePokemon)
	pokemons.GET("/:id", h.Pokemons.GetPokemon)
	pokemons.PUT("/:id", h.Pokemons.UpdatePokemon)
	pokemons.DELETE("/:id", h.Pokemons.DeletePokemon)
	pokemons.POST("/:id/favoriteStatus", h.Pokemons.SetFavoriteStatus)
}
