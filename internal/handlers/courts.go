package handlers

// courts.go handles the /courts catalog.
//
// A court is mostly free-form: the admin UI can send any fields it likes.
// name, type, image, price and slots are stored as columns; everything else
// ends up in the court's attributes (see models.SplitCourtFields).

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/sports-club/internal/apperr"
	"github.com/trentd187/sports-club/internal/models"
	"github.com/trentd187/sports-club/internal/store"
)

// CourtPage is the response of GET /courts.
type CourtPage struct {
	Items []models.Court `json:"items"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// ListCourts handles GET /courts?page=&limit=. Public.
// total is the size of the whole catalog, not of the page.
func ListCourts(courts *store.Courts) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, limit := pageParams(c)
		items, total, err := courts.Page(c.UserContext(), page, limit)
		if err != nil {
			return apperr.Internal(err, "Failed to fetch courts")
		}
		return c.JSON(CourtPage{Items: items, Total: total, Page: page, Limit: limit})
	}
}

// ListAllCourts handles GET /courts/all. Admin only, unpaginated.
func ListAllCourts(courts *store.Courts) fiber.Handler {
	return func(c *fiber.Ctx) error {
		all, err := courts.All(c.UserContext())
		if err != nil {
			return apperr.Internal(err, "Failed to fetch courts")
		}
		return c.JSON(all)
	}
}

// GetCourt handles GET /courts/:id. Public.
func GetCourt(courts *store.Courts) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := idParam(c, "id")
		if err != nil {
			return err
		}
		court, err := courts.Get(c.UserContext(), id)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("Court not found")
		}
		if err != nil {
			return apperr.Internal(err, "Failed to fetch court")
		}
		return c.JSON(court)
	}
}

// CreateCourt handles POST /courts. Admin only.
func CreateCourt(courts *store.Courts) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Courts are free-form: known keys become columns, the rest attributes.
		fields, err := decodeObject(c.Body())
		if err != nil {
			return err
		}
		court, err := models.CourtFromFields(fields)
		if err != nil {
			return apperr.Wrap(apperr.KindBadRequest, err, err.Error())
		}
		if err := courts.Create(c.UserContext(), &court); err != nil {
			return apperr.Internal(err, "Failed to create court")
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"insertedId": court.ID, "court": court})
	}
}

// UpdateCourt handles PUT /courts/:id. Admin only.
// Any _id/id in the body is ignored; the rest is merged into the court.
func UpdateCourt(courts *store.Courts) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := idParam(c, "id")
		if err != nil {
			return err
		}
		fields, err := decodeObject(c.Body())
		if err != nil {
			return err
		}
		columns, attrs, err := models.SplitCourtFields(fields)
		if err != nil {
			return apperr.Wrap(apperr.KindBadRequest, err, err.Error())
		}
		// A court may be renamed but never left nameless.
		if name, ok := columns["name"]; ok && name == "" {
			return apperr.BadRequest("name must not be empty")
		}

		matched, modified, err := courts.Update(c.UserContext(), id, store.CourtPatch{Columns: columns, Attributes: attrs})
		if err != nil {
			return apperr.Internal(err, "Failed to update court")
		}
		if matched == 0 {
			return apperr.NotFound("Court not found")
		}
		return c.JSON(fiber.Map{"matchedCount": matched, "modifiedCount": modified})
	}
}

// DeleteCourt handles DELETE /courts/:id. Admin only.
func DeleteCourt(courts *store.Courts) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := idParam(c, "id")
		if err != nil {
			return err
		}
		// Existing bookings keep their copied court name and type.
		n, err := courts.Delete(c.UserContext(), id)
		if err != nil {
			return apperr.Internal(err, "Failed to delete court")
		}
		if n == 0 {
			return apperr.NotFound("Court not found")
		}
		return c.JSON(fiber.Map{"deletedCount": n})
	}
}

// BulkInsertCourts handles POST /courts/bulk. The body must be a non-empty
// JSON array of court objects; they are inserted in one statement.
func BulkInsertCourts(courts *store.Courts) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// UseNumber keeps prices exact until they become decimals.
		var raw []map[string]any
		dec := json.NewDecoder(bytes.NewReader(c.Body()))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return apperr.Wrap(apperr.KindBadRequest, err, "Expected an array of courts")
		}
		if len(raw) == 0 {
			return apperr.BadRequest("Expected an array of courts")
		}

		list, err := models.CourtsFromFields(raw)
		if err != nil {
			return apperr.Wrap(apperr.KindBadRequest, err, err.Error())
		}
		n, err := courts.CreateMany(c.UserContext(), list)
		if err != nil {
			return apperr.Internal(err, "Failed to insert courts")
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"insertedCount": n})
	}
}

// decodeObject decodes a JSON object, keeping numbers exact.
func decodeObject(body []byte) (map[string]any, error) {
	var fields map[string]any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return nil, apperr.BadRequest("Invalid request body")
	}
	return fields, nil
}
