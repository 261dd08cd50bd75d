package coordinator

import "strings"

// Navigator is the routing collaborator. The coordinator reads the current
// route to suppress polling and redirects on authentication surfaces, and
// navigates to login after logout.
type Navigator interface {
	CurrentRoute() string
	NavigateToLogin()
}

// NopNavigator ignores navigation. Useful for headless runs and tests that
// do not assert on routing.
type NopNavigator struct{}

func (NopNavigator) CurrentRoute() string { return "/" }
func (NopNavigator) NavigateToLogin()     {}

// DefaultAuthRoutes are the route prefixes treated as the authentication flow
// when none are configured.
var DefaultAuthRoutes = []string{"/login", "/register", "/forgot-password"}

func isAuthRoute(route string, authRoutes []string) bool {
	for _, prefix := range authRoutes {
		if strings.HasPrefix(route, prefix) {
			return true
		}
	}
	return false
}
