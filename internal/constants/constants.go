package constants

import "time"

const (
	AppName = "cms"
	Version = "1.0.0"
)

var APIConfig = struct {
	DefaultBaseURL string
	DefaultPrefix  string
	DefaultTimeout time.Duration
	UploadField    string
}{
	DefaultBaseURL: "https://one-health-api.onrender.com",
	DefaultPrefix:  "/api/v1",
	DefaultTimeout: 30 * time.Second,
	UploadField:    "image", // multipart field the backend reads
}

var SessionConfig = struct {
	TokenKey       string
	RedisKeyPrefix string
	DefaultFile    string
}{
	TokenKey:       "adminToken",
	RedisKeyPrefix: "cms:session:",
	DefaultFile:    ".config/society-cms/session.json",
}

var ImageConfig = struct {
	MaxBytes         int64
	TempMarker       string
	PreviewScheme    string
	PlaceholderImage string
}{
	MaxBytes:         5 * 1024 * 1024,
	TempMarker:       "temp-",
	PreviewScheme:    "blob:",
	PlaceholderImage: "/default-avatar.png",
}

var CircuitBreakerConfig = struct {
	FailureThreshold int
	ResetTimeout     time.Duration
}{
	FailureThreshold: 5,
	ResetTimeout:     30 * time.Second,
}

var Routes = struct {
	Home           string
	About          string
	Articles       string
	ArticleDetail  string
	Events         string
	Unsubscribe    string
	Verify         string
	AdminLogin     string
	AdminDashboard string
	AdminArticles  string
	AdminArticle   string
	AdminCommittee string
	AdminEvents    string
}{
	Home:           "/",
	About:          "/about",
	Articles:       "/articles",
	ArticleDetail:  "/articles/:id",
	Events:         "/events",
	Unsubscribe:    "/unsubscribe",
	Verify:         "/verify",
	AdminLogin:     "/admin/login",
	AdminDashboard: "/admin/dashboard",
	AdminArticles:  "/admin/articles",
	AdminArticle:   "/admin/articles/:id",
	AdminCommittee: "/admin/committee",
	AdminEvents:    "/admin/events",
}

var StringLimits = struct {
	ListTitle   int
	Excerpt     int
	Description int
}{
	ListTitle:   60,
	Excerpt:     160,
	Description: 240,
}
