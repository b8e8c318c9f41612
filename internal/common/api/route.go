package api

import "github.com/gofiber/fiber/v2"

// Route is implemented by every feature's API registrar. Constructors
// are tagged into the fx "routes" group and Setup is called once per
// feature at startup.
type Route interface {
	Setup(app *fiber.App)
}
