package httpx

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// Route represents a single HTTP route definition.
type Route struct {
	Method     string
	Path       string
	Handler    HandlerFunc
	Middleware []MiddlewareFunc
}

// RegisterRoutes applies a list of Route definitions to the router.
func (r *Router) RegisterRoutes(routes ...Route) *Router {
	for _, route := range routes {
		if route.Method == "" {
			continue
		}
		r.add(strings.ToUpper(route.Method), route.Path, route.Handler, route.Middleware...)
	}
	return r
}

// group is an internal wrapper for route grouping
type group struct {
	g *echo.Group
}

func (a *App) newGroup(prefix string, mw ...MiddlewareFunc) *group {
	return &group{g: a.e.Group(prefix, mw...)}
}

// Router wraps an internal group to provide chainable helpers for common verbs.
type Router struct {
	group *group
}

// Group nests a router under prefix, inheriting the parent's middleware.
func (r *Router) Group(prefix string, mw ...MiddlewareFunc) *Router {
	if r.group == nil || r.group.g == nil {
		return &Router{}
	}
	return &Router{group: &group{g: r.group.g.Group(prefix, mw...)}}
}

func (r *Router) GET(path string, h HandlerFunc, mw ...MiddlewareFunc) *Router {
	r.add(echo.GET, path, h, mw...)
	return r
}

func (r *Router) POST(path string, h HandlerFunc, mw ...MiddlewareFunc) *Router {
	r.add(echo.POST, path, h, mw...)
	return r
}

func (r *Router) PUT(path string, h HandlerFunc, mw ...MiddlewareFunc) *Router {
	r.add(echo.PUT, path, h, mw...)
	return r
}

func (r *Router) DELETE(path string, h HandlerFunc, mw ...MiddlewareFunc) *Router {
	r.add(echo.DELETE, path, h, mw...)
	return r
}

// add registers on the group. An empty path targets the group prefix itself.
func (r *Router) add(method, path string, h HandlerFunc, mw ...MiddlewareFunc) {
	if r.group == nil || r.group.g == nil || h == nil {
		return
	}
	r.group.g.Add(method, path, h, mw...)
}
