package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"

	"templify/internal/service"
)

// HealthCheck reports whether the database dependency is reachable.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a trivial liveness endpoint.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// OpenAPISpec serves the handwritten API description from the repository root.
func OpenAPISpec() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	}
}

// SwaggerUI serves a minimal Swagger UI page pointed at the spec.
func SwaggerUI() fiber.Handler {
	return func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	}
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app. The auth
// middleware guards every template and document route; health, docs, and
// metrics stay open.
func RegisterRoutes(app *fiber.App, db *sql.DB, auth fiber.Handler, tmplSvc service.TemplateService, docSvc service.DocumentService) {
	app.Get("/openapi.yaml", OpenAPISpec())
	app.Get("/docs", SwaggerUI())

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	templates := app.Group("/templates", auth)
	templates.Post("/", CreateTemplate(tmplSvc))
	templates.Post("/path", CreateTemplateFromPath(tmplSvc))
	templates.Get("/", ListTemplates(tmplSvc))
	templates.Get("/:id", GetTemplate(tmplSvc))
	templates.Get("/:id/variables", GetTemplateVariables(tmplSvc))
	templates.Get("/:id/download", DownloadTemplate(tmplSvc))
	templates.Patch("/:id", UpdateTemplate(tmplSvc))
	templates.Delete("/:id", DeleteTemplate(tmplSvc))

	documents := app.Group("/documents", auth)
	documents.Post("/", CreateDocument(docSvc))
	documents.Get("/", ListDocuments(docSvc))
	documents.Get("/:id", GetDocument(docSvc))
	documents.Patch("/:id", UpdateDocument(docSvc))
	documents.Delete("/:id", DeleteDocument(docSvc))
	documents.Get("/:id/download", DownloadDocument(docSvc))
}
