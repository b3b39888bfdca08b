// Package server assembles the Fiber application: global middleware, the
// error handler and every route with its auth requirements.
package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"

	"github.com/trentd187/sports-club/internal/events"
	"github.com/trentd187/sports-club/internal/handlers"
	"github.com/trentd187/sports-club/internal/identity"
	"github.com/trentd187/sports-club/internal/metrics"
	"github.com/trentd187/sports-club/internal/middleware"
	"github.com/trentd187/sports-club/internal/models"
	"github.com/trentd187/sports-club/internal/store"
)

// Deps is everything the routes need.
type Deps struct {
	Store     *store.Store
	Verifier  identity.Verifier
	Hub       *events.Hub      // must already be running; nil disables GET /events
	Publisher events.Publisher // defaults to Hub when nil
	Metrics   *metrics.Metrics
	Logger    zerolog.Logger
	Pingers   []handlers.Pinger // checked by GET /health
}

// New builds the Fiber app.
func New(d Deps) *fiber.App {
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	if d.Publisher == nil {
		if d.Hub != nil {
			d.Publisher = d.Hub
		} else {
			d.Publisher = events.Nop{}
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      "Sports Club API",
		ErrorHandler: handlers.ErrorHandler,
	})

	// --- Global middleware ---
	// requestid first so every log line has an id; recover sits inside the
	// logger and metrics so a panic is still logged and counted as a 500.
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(d.Logger))
	app.Use(d.Metrics.Middleware())
	app.Use(recover.New())
	app.Use(cors.New())

	s := d.Store
	n := &handlers.Notifier{Publisher: d.Publisher, Metrics: d.Metrics}

	auth := middleware.Auth(d.Verifier)
	admin := middleware.RequireRole(s.Users, models.RoleAdmin)
	member := middleware.RequireRole(s.Users, models.RoleMember)

	// --- Public ---
	app.Get("/", handlers.Root)
	app.Get("/health", handlers.HealthCheck(d.Pingers...))
	app.Get("/metrics", d.Metrics.Handler())

	// --- Users ---
	app.Post("/users", handlers.CreateUser(s.Users))
	app.Get("/users", auth, admin, handlers.ListUsers(s.Users))
	// Registered before /users/:email so "role" is never read as an email.
	app.Get("/users/role/:email?", handlers.GetUserRole(s.Users))
	app.Get("/users/:email", auth, handlers.GetUser(s.Users))
	app.Delete("/users/:id", auth, admin, handlers.DeleteUser(s.Users))

	app.Get("/members", auth, admin, handlers.ListMembers(s.Users))
	app.Delete("/members/:id", auth, admin, handlers.DeleteMember(s.Users))

	// --- Courts ---
	app.Get("/courts", handlers.ListCourts(s.Courts))
	app.Get("/courts/all", auth, admin, handlers.ListAllCourts(s.Courts))
	app.Get("/courts/:id", handlers.GetCourt(s.Courts))
	app.Post("/courts", auth, admin, handlers.CreateCourt(s.Courts))
	app.Post("/courts/bulk", handlers.BulkInsertCourts(s.Courts))
	app.Put("/courts/:id", auth, admin, handlers.UpdateCourt(s.Courts))
	app.Delete("/courts/:id", auth, admin, handlers.DeleteCourt(s.Courts))

	// --- Bookings ---
	app.Post("/bookings", auth, handlers.CreateBooking(s.Bookings, s.Courts, n))
	app.Get("/bookings/pending", auth, admin, handlers.ListPendingBookings(s.Bookings))
	app.Get("/bookings/pending/:email", auth, handlers.ListOwnBookings(s.Bookings, models.BookingStatusPending))
	app.Get("/bookings/approved/:email", auth, member, handlers.ListOwnBookings(s.Bookings, models.BookingStatusApproved))
	app.Patch("/bookings/cancel/:id", auth, handlers.CancelBooking(s.Bookings, s.Users, n))
	app.Patch("/bookings/approve/:id", auth, admin, handlers.ApproveBooking(s.Bookings, n))
	app.Delete("/bookings/reject/:id", auth, admin, handlers.RejectBooking(s.Bookings, n))
	app.Delete("/bookings/:id", auth, handlers.DeleteBooking(s.Bookings, s.Users, n))

	// --- Announcements ---
	// Reads are public; every write needs an admin.
	app.Get("/announcements", handlers.ListAnnouncements(s.Announcements))
	app.Post("/announcements", auth, admin, handlers.CreateAnnouncement(s.Announcements, n))
	app.Put("/announcements/:id", auth, admin, handlers.UpdateAnnouncement(s.Announcements))
	app.Delete("/announcements/:id", auth, admin, handlers.DeleteAnnouncement(s.Announcements))

	// --- Admin / live updates ---
	app.Get("/admin/stats", auth, admin, handlers.AdminStats(s))
	if d.Hub != nil {
		app.Get("/events", auth, handlers.EventStream(d.Hub, s.Users))
	}

	return app
}
