package pereval

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// SubmitResponse is the POST /submitData envelope.
type SubmitResponse struct {
	Status  int     `json:"status"`
	Message *string `json:"message"`
	ID      *int64  `json:"id"`
}

// PatchResponse is the PATCH /submitData/{id} envelope. Failures are
// signalled through State, not the HTTP status code.
type PatchResponse struct {
	State   int     `json:"state"`
	Message *string `json:"message"`
}

func submitFailure(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(SubmitResponse{Status: status, Message: &message})
}

func patchFailure(c *fiber.Ctx, message string) error {
	return c.JSON(PatchResponse{State: 0, Message: &message})
}

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Post("/submitData", func(c *fiber.Ctx) error {
		var req SubmitRequest
		if err := c.BodyParser(&req); err != nil {
			return submitFailure(c, fiber.StatusBadRequest, "invalid request body: "+err.Error())
		}
		if err := req.Validate(); err != nil {
			return submitFailure(c, fiber.StatusBadRequest, err.Error())
		}

		id, err := svc.CreateRecord(c.Context(), req)
		if err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				return submitFailure(c, fiber.StatusBadRequest, verr.Error())
			}
			if constraint, ok := UniqueViolation(err); ok {
				return submitFailure(c, fiber.StatusBadRequest, "duplicate value violates unique constraint "+constraint)
			}
			return submitFailure(c, fiber.StatusInternalServerError, "Server error: "+err.Error())
		}
		return c.JSON(SubmitResponse{Status: fiber.StatusOK, ID: &id})
	})

	r.Get("/submitData", func(c *fiber.Ctx) error {
		records, err := svc.ListByEmail(c.Context(), c.Query("user__email"))
		if err != nil {
			return submitFailure(c, fiber.StatusInternalServerError, "Server error: "+err.Error())
		}
		out := make([]RecordResponse, 0, len(records))
		for _, rec := range records {
			out = append(out, rec.Response())
		}
		return c.JSON(out)
	})

	r.Get("/submitData/:id", func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Not found"})
		}
		rec, err := svc.GetRecord(c.Context(), id)
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Not found"})
		}
		if err != nil {
			return submitFailure(c, fiber.StatusInternalServerError, "Server error: "+err.Error())
		}
		return c.JSON(rec.Response())
	})

	r.Patch("/submitData/:id", func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil {
			return patchFailure(c, ErrNotFound.Error())
		}
		var req SubmitRequest
		if err := c.BodyParser(&req); err != nil {
			return patchFailure(c, "invalid request body: "+err.Error())
		}
		if err := req.Validate(); err != nil {
			return patchFailure(c, err.Error())
		}

		if err := svc.UpdateRecord(c.Context(), id, req); err != nil {
			var verr *ValidationError
			var perr *PolicyError
			switch {
			case errors.Is(err, ErrNotFound):
				return patchFailure(c, ErrNotFound.Error())
			case errors.As(err, &verr), errors.As(err, &perr):
				return patchFailure(c, err.Error())
			}
			if constraint, ok := UniqueViolation(err); ok {
				return patchFailure(c, "duplicate value violates unique constraint "+constraint)
			}
			return patchFailure(c, "Server error: "+err.Error())
		}
		return c.JSON(PatchResponse{State: 1})
	})
}
