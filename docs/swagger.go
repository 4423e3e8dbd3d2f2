// Package docs Pokedex API documentation
package docs

// Swagger documentation info
// @title Pokedex API
// @version 1.0
// @description Multi-tenant pokemon catalog with per-user favorites

// @contact.name API Support

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token. The accessToken cookie is accepted too.

// Auth Service Endpoints
// @tag.name auth
// @tag.description Registration, login, logout and session lookup

// Core Service Endpoints
// @tag.name organizations
// @tag.description Organization management
// @tag.name users
// @tag.description Users of the caller's organization
// @tag.name pokemons
// @tag.description Organization pokemon catalog and favorite status
