package navigation

import (
	"strings"

	"github.com/kapu/society-cms-go/internal/constants"
)

// Access tells the guard how a route is protected.
type Access int

const (
	// Public routes render for everyone.
	Public Access = iota
	// Admin routes render only for an authenticated session.
	Admin
	// LoginOnly is the login page, which bounces authenticated sessions.
	LoginOnly
)

type Route struct {
	Pattern string
	Name    string
	Access  Access
}

var routeTable = []Route{
	{Pattern: constants.Routes.Home, Name: "home", Access: Public},
	{Pattern: constants.Routes.About, Name: "about", Access: Public},
	{Pattern: constants.Routes.Articles, Name: "articles", Access: Public},
	{Pattern: constants.Routes.ArticleDetail, Name: "article", Access: Public},
	{Pattern: constants.Routes.Events, Name: "events", Access: Public},
	{Pattern: constants.Routes.Unsubscribe, Name: "unsubscribe", Access: Public},
	{Pattern: constants.Routes.Verify, Name: "verify", Access: Public},
	{Pattern: constants.Routes.AdminLogin, Name: "admin-login", Access: LoginOnly},
	{Pattern: constants.Routes.AdminDashboard, Name: "admin-dashboard", Access: Admin},
	{Pattern: constants.Routes.AdminArticles, Name: "admin-articles", Access: Admin},
	{Pattern: constants.Routes.AdminArticle, Name: "admin-article", Access: Admin},
	{Pattern: constants.Routes.AdminCommittee, Name: "admin-committee", Access: Admin},
	{Pattern: constants.Routes.AdminEvents, Name: "admin-events", Access: Admin},
}

// Routes returns a copy of the route table.
func Routes() []Route {
	out := make([]Route, len(routeTable))
	copy(out, routeTable)
	return out
}

// Match finds the route for path. Segments starting with ':' match any
// non-empty segment. Unknown paths under /admin are treated as admin routes
// so nothing new slips out unguarded.
func Match(path string) (Route, bool) {
	path = cleanPath(path)
	for _, r := range routeTable {
		if matchPattern(r.Pattern, path) {
			return r, true
		}
	}
	if path == "/admin" || strings.HasPrefix(path, "/admin/") {
		return Route{Pattern: path, Name: "admin-unknown", Access: Admin}, false
	}
	return Route{Pattern: path, Name: "unknown", Access: Public}, false
}

func matchPattern(pattern, path string) bool {
	if pattern == path {
		return true
	}
	ps := strings.Split(strings.Trim(pattern, "/"), "/")
	xs := strings.Split(strings.Trim(path, "/"), "/")
	if len(ps) != len(xs) {
		return false
	}
	for i := range ps {
		if strings.HasPrefix(ps[i], ":") {
			if xs[i] == "" {
				return false
			}
			continue
		}
		if ps[i] != xs[i] {
			return false
		}
	}
	return true
}

func cleanPath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = "/" + strings.Trim(path, "/")
	return path
}
