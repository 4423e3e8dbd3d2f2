package routes

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	shared "pokedex-backend/shared/middleware"
)

// Route sends every path under Prefix to one upstream service
type Route struct {
	Service string
	Prefix  string
}

// Routes is the gateway table. Longer prefixes must come first.
var Routes = []Route{
	{Service: "auth", Prefix: "/api/auth"},
	{Service: "core", Prefix: "/api/organizations"},
	{Service: "core", Prefix: "/api/users"},
	{Service: "core", Prefix: "/api/pokemons"},
}

type ginContextKey struct{}

// Gateway forwards API calls to the auth and core services so browsers see
// one origin and the session cookies reach both.
type Gateway struct {
	proxies map[string]*httputil.ReverseProxy
}

// NewGateway builds one reverse proxy per service URL
func NewGateway(serviceURLs map[string]string) (*Gateway, error) {
	g := &Gateway{proxies: make(map[string]*httputil.ReverseProxy, len(serviceURLs))}
	for name, raw := range serviceURLs {
		target, err := url.Parse(raw)
		if err != nil || target.Host == "" {
			return nil, fmt.Errorf("invalid %s service URL %q", name, raw)
		}
		g.proxies[name] = newProxy(name, target)
	}
	for _, r := range Routes {
		if _, ok := g.proxies[r.Service]; !ok {
			return nil, fmt.Errorf("no URL configured for %s service", r.Service)
		}
	}
	return g, nil
}

func newProxy(service string, target *url.URL) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			if c, ok := pr.In.Context().Value(ginContextKey{}).(*gin.Context); ok {
				pr.Out.Header.Set(shared.RequestIDHeader, shared.GetRequestID(c))
			}
		},
		ModifyResponse: func(resp *http.Response) error {
			// The gateway already stamped its own id on the response
			resp.Header.Del(shared.RequestIDHeader)
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.Error().Err(err).Str("service", service).Str("path", r.URL.Path).Msg("upstream request failed")
			if c, ok := r.Context().Value(ginContextKey{}).(*gin.Context); ok {
				shared.RespondFailure(c, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", service+" service is unavailable")
				return
			}
			w.WriteHeader(http.StatusBadGateway)
		},
	}
}

// Handler dispatches by path prefix. Paths outside the table get a 404 envelope.
func (g *Gateway) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		service, ok := match(c.Request.URL.Path)
		if !ok {
			shared.RespondFailure(c, http.StatusNotFound, "NOT_FOUND", "Route not found")
			return
		}

		ctx := context.WithValue(c.Request.Context(), ginContextKey{}, c)
		g.proxies[service].ServeHTTP(c.Writer, c.Request.WithContext(ctx))
	}
}

func match(path string) (string, bool) {
	for _, r := range Routes {
		if path == r.Prefix || strings.HasPrefix(path, r.Prefix+"/") {
			return r.Service, true
		}
	}
	return "", false
}
