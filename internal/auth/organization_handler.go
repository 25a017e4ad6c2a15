package auth

import (
	"strings"

	"prodflow-backend/internal/database"
	"prodflow-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CreateOrganizationRequest struct {
	Name string `json:"name"`
}

type JoinOrganizationRequest struct {
	JoinCode string `json:"join_code"`
}

// POST /api/organizations
// Creates an organization and moves the caller into it. The owner key changes
// from usr-<id> to org-<id>, so the client must refresh its token afterwards.
func CreateOrganizationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := CurrentUserID(c)
		if userID == 0 {
			return fiber.NewError(fiber.StatusUnauthorized, "Could not resolve user identity")
		}

		var body CreateOrganizationRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Organization name is required")
		}

		var user models.User
		if err := database.DB.First(&user, userID).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "User not found")
		}
		if user.OrganizationID != nil {
			return fiber.NewError(fiber.StatusBadRequest, "You already belong to an organization")
		}

		org := models.Organization{
			Name:     body.Name,
			JoinCode: strings.ToUpper(uuid.NewString()[:8]),
		}
		if err := database.DB.Create(&org).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create organization")
		}

		user.OrganizationID = &org.ID
		if err := database.DB.Save(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update user membership")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":        org.ID,
			"name":      org.Name,
			"join_code": org.JoinCode,
		})
	}
}

// POST /api/organizations/join
func JoinOrganizationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := CurrentUserID(c)
		if userID == 0 {
			return fiber.NewError(fiber.StatusUnauthorized, "Could not resolve user identity")
		}

		var body JoinOrganizationRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		code := strings.ToUpper(strings.TrimSpace(body.JoinCode))
		if code == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Join code is required")
		}

		var org models.Organization
		if err := database.DB.Where("join_code = ?", code).First(&org).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "No organization with that join code")
		}

		var user models.User
		if err := database.DB.First(&user, userID).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "User not found")
		}
		if user.OrganizationID != nil {
			return fiber.NewError(fiber.StatusBadRequest, "You already belong to an organization")
		}

		user.OrganizationID = &org.ID
		if err := database.DB.Save(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update user membership")
		}

		return c.JSON(fiber.Map{
			"id":   org.ID,
			"name": org.Name,
		})
	}
}
