package auth

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// OwnerID builds the tenant key all data access is scoped by. An organization
// identity wins over the personal one; with neither the request is treated as
// unauthenticated.
func OwnerID(userID uint, orgID *uint) string {
	if orgID != nil {
		return fmt.Sprintf("org-%d", *orgID)
	}
	if userID != 0 {
		return fmt.Sprintf("usr-%d", userID)
	}
	return ""
}

// ResolveOwnerFromContext reads the identity the JWT middleware stored and
// turns it into an owner key.
func ResolveOwnerFromContext(c *fiber.Ctx) (string, error) {
	userID, _ := c.Locals(CtxUserIDKey).(uint)
	orgID, _ := c.Locals(CtxOrgIDKey).(*uint)

	owner := OwnerID(userID, orgID)
	if owner == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Could not resolve user identity")
	}
	return owner, nil
}

// CurrentUserID returns the authenticated user's id, or 0 when missing.
func CurrentUserID(c *fiber.Ctx) uint {
	userID, _ := c.Locals(CtxUserIDKey).(uint)
	return userID
}
