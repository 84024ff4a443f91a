package httpx

import (
	"log/slog"
	"net/http"

	domainauth "github.com/fixpoint/repair-api/internal/domain/auth"
	"github.com/fixpoint/repair-api/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Requests      *service.RequestService
	Employees     *service.EmployeeService
	Notifications *service.NotificationService
	Auth          *service.AuthService
	CookieDomain  string
	Logger        *slog.Logger
}

// NewRouter creates and configures the HTTP router for the repair request API.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	requestHandlers := &RequestHandlers{Svc: services.Requests}
	employeeHandlers := &EmployeeHandlers{Svc: services.Employees}
	notificationHandlers := &NotificationHandlers{Svc: services.Notifications}
	var authHandlers *AuthHandlers
	if services.Auth != nil {
		authHandlers = &AuthHandlers{Svc: services.Auth, CookieDomain: services.CookieDomain, Logger: services.Logger}
	}

	wrappers := routeWrappers(services.Auth)
	registerRequestRoutes(mux, requestHandlers, wrappers)
	registerEmployeeRoutes(mux, employeeHandlers, wrappers)
	registerNotificationRoutes(mux, notificationHandlers, wrappers)
	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	if authHandlers != nil {
		registerAuthRoutes(mux, authHandlers)
	}

	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return Recover(logger)(Logging(logger)(mux))
}

// roleWrappers bundles the per-role middleware used during route registration.
// Each wrapper is a no-op when auth is not configured so the router stays
// usable in tests that exercise handlers directly.
type roleWrappers struct {
	user     func(http.Handler) http.Handler
	employee func(http.Handler) http.Handler
	admin    func(http.Handler) http.Handler
}

func routeWrappers(auth *service.AuthService) roleWrappers {
	if auth == nil {
		passthrough := func(h http.Handler) http.Handler { return h }
		return roleWrappers{user: passthrough, employee: passthrough, admin: passthrough}
	}
	return roleWrappers{
		user:     RequireRole(auth, domainauth.RoleUser),
		employee: RequireRole(auth, domainauth.RoleEmployee),
		admin:    RequireRole(auth, domainauth.RoleAdmin),
	}
}

func registerRequestRoutes(mux *http.ServeMux, h *RequestHandlers, w roleWrappers) {
	// Reads and submission are open to every signed-in portal; handlers scope
	// results to the caller.
	mux.Handle("POST /api/requests", w.user(http.HandlerFunc(h.Submit)))
	mux.Handle("GET /api/requests", w.user(http.HandlerFunc(h.List)))
	mux.Handle("GET /api/requests/{id}", w.user(http.HandlerFunc(h.GetByID)))
	mux.Handle("GET /api/requests/{id}/completion", w.user(http.HandlerFunc(h.GetCompletion)))

	// Dispatcher operations.
	mux.Handle("GET /api/requests/{id}/assignable-employees", w.admin(http.HandlerFunc(h.ListAssignable)))
	mux.Handle("POST /api/requests/{id}/assign", w.admin(http.HandlerFunc(h.Assign)))
	mux.Handle("POST /api/requests/{id}/cancel", w.admin(http.HandlerFunc(h.Cancel)))

	// Employee lifecycle operations; the acting employee comes from the session.
	mux.Handle("POST /api/requests/{id}/accept", w.employee(http.HandlerFunc(h.Accept)))
	mux.Handle("POST /api/requests/{id}/reject", w.employee(http.HandlerFunc(h.Reject)))
	mux.Handle("POST /api/requests/{id}/start", w.employee(http.HandlerFunc(h.Start)))
	mux.Handle("POST /api/requests/{id}/hold", w.employee(http.HandlerFunc(h.Hold)))
	mux.Handle("POST /api/requests/{id}/complete", w.employee(http.HandlerFunc(h.Complete)))
}

func registerEmployeeRoutes(mux *http.ServeMux, h *EmployeeHandlers, w roleWrappers) {
	mux.Handle("GET /api/employees", w.admin(http.HandlerFunc(h.List)))
	mux.Handle("GET /api/employees/{id}", w.admin(http.HandlerFunc(h.GetByID)))
}

func registerNotificationRoutes(mux *http.ServeMux, h *NotificationHandlers, w roleWrappers) {
	mux.Handle("GET /api/notifications", w.user(http.HandlerFunc(h.List)))
	mux.Handle("GET /api/notifications/unread-count", w.user(http.HandlerFunc(h.CountUnread)))
	mux.Handle("POST /api/notifications/{id}/read", w.user(http.HandlerFunc(h.MarkRead)))
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("GET /auth/login", h.Login)
	mux.HandleFunc("GET /auth/callback", h.Callback)
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.HandleFunc("GET /auth/status", h.Status)
}
