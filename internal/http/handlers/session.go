package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"partforge/internal/domain"
)

// ensureSID returns the caller's session token, minting one on first
// contact. The token keys the anonymous cart and the builder's working
// configuration.
func ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies("sid")
	if sid == "" {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     "sid",
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Secure:   false, // enable true behind TLS
		})
	}
	return sid
}

// owner maps the request to a cart identity: the authenticated user when an
// upstream auth layer set one, otherwise the anonymous session. Anonymous
// carts are deliberately never merged into a user cart on login.
func owner(c *fiber.Ctx) domain.Owner {
	if uid, ok := c.Locals("user_id").(string); ok && uid != "" {
		return domain.UserOwner(uid)
	}
	return domain.SessionOwner(ensureSID(c))
}

// requester returns the id builds are owned by: the user id when present,
// else the session token.
func requester(c *fiber.Ctx) string {
	return owner(c).Ref
}
