package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/sports-club/internal/apperr"
	"github.com/trentd187/sports-club/internal/events"
	"github.com/trentd187/sports-club/internal/middleware"
	"github.com/trentd187/sports-club/internal/models"
	"github.com/trentd187/sports-club/internal/store"
)

// AnnouncementRequest is the body of POST and PUT /announcements.
// On PUT both fields are optional and only the ones sent are changed.
type AnnouncementRequest struct {
	Title   *string `json:"title" validate:"omitempty,min=1,max=200"`
	Content *string `json:"content" validate:"omitempty,min=1"`
}

// ListAnnouncements handles GET /announcements. Public, newest first.
func ListAnnouncements(announcements *store.Announcements) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := announcements.List(c.UserContext())
		if err != nil {
			return apperr.Internal(err, "Failed to fetch announcements")
		}
		return c.JSON(list)
	}
}

// CreateAnnouncement handles POST /announcements. Admin only.
func CreateAnnouncement(announcements *store.Announcements, n *Notifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req AnnouncementRequest
		if err := decodeBody(c, &req); err != nil {
			return err
		}
		// Both fields are optional on PUT, so the POST requirement is checked here.
		if req.Title == nil || req.Content == nil {
			return apperr.BadRequest("title and content are required")
		}

		a := &models.Announcement{Title: *req.Title, Content: *req.Content}
		if id, ok := middleware.IdentityFrom(c); ok {
			a.AuthorEmail = id.Email
		}
		if err := announcements.Create(c.UserContext(), a); err != nil {
			return apperr.Internal(err, "Failed to create announcement")
		}

		// No email on the event: announcements go to every subscriber.
		n.publish(c, events.New(events.AnnouncementCreated, "", a))
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"insertedId": a.ID, "announcement": a})
	}
}

// UpdateAnnouncement handles PUT /announcements/:id. Admin only.
func UpdateAnnouncement(announcements *store.Announcements) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := idParam(c, "id")
		if err != nil {
			return err
		}
		var req AnnouncementRequest
		if err := decodeBody(c, &req); err != nil {
			return err
		}

		// Only the fields present in the body are written.
		values := map[string]any{}
		if req.Title != nil {
			values["title"] = *req.Title
		}
		if req.Content != nil {
			values["content"] = *req.Content
		}

		matched, modified, err := announcements.Update(c.UserContext(), id, values)
		if err != nil {
			return apperr.Internal(err, "Failed to update announcement")
		}
		if matched == 0 {
			return apperr.NotFound("Announcement not found")
		}
		return c.JSON(fiber.Map{"matchedCount": matched, "modifiedCount": modified})
	}
}

// DeleteAnnouncement handles DELETE /announcements/:id. Admin only.
func DeleteAnnouncement(announcements *store.Announcements) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := idParam(c, "id")
		if err != nil {
			return err
		}
		n, err := announcements.Delete(c.UserContext(), id)
		if err != nil {
			return apperr.Internal(err, "Failed to delete announcement")
		}
		if n == 0 {
			return apperr.NotFound("Announcement not found")
		}
		return c.JSON(fiber.Map{"deletedCount": n})
	}
}
