package handler

import (
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"templify/internal/http/middleware"
	"templify/internal/model"
	"templify/internal/service"
)

// readUpload drains a multipart file header into an in-memory upload.
func readUpload(fh *multipart.FileHeader) (*service.UploadFile, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &service.UploadFile{
		Data:         data,
		OriginalName: fh.Filename,
		MimeType:     fh.Header.Get("Content-Type"),
	}, nil
}

// CreateTemplate handles template upload (multipart/form-data, field name: file).
// An optional "system" form value of "true" requests a shared system template.
func CreateTemplate(svc service.TemplateService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		up, err := readUpload(fh)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}

		tmpl, err := svc.CreateFromUpload(c.UserContext(), service.TemplateCreateInput{
			File:   *up,
			System: c.FormValue("system") == "true",
		}, middleware.ActorFromCtx(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(tmpl)
	}
}

// CreateTemplateFromPath registers a system template from an existing file in
// the local storage tree. Admin only; enforced by the service.
func CreateTemplateFromPath(svc service.TemplateService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Path string `json:"path"`
			Name string `json:"name"`
		}
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		tmpl, err := svc.CreateFromPath(c.UserContext(), service.TemplatePathInput{
			Path: body.Path,
			Name: body.Name,
		}, middleware.ActorFromCtx(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(tmpl)
	}
}

// ListTemplates returns all system templates plus the caller's own.
func ListTemplates(svc service.TemplateService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.List(c.UserContext(), middleware.ActorFromCtx(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"items": items, "total": len(items)})
	}
}

// GetTemplate returns a single template by ID.
func GetTemplate(svc service.TemplateService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		tmpl, err := svc.Get(c.UserContext(), id, middleware.ActorFromCtx(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(tmpl)
	}
}

// GetTemplateVariables returns the stored placeholder names of a template.
func GetTemplateVariables(svc service.TemplateService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		variables, err := svc.GetVariables(c.UserContext(), id, middleware.ActorFromCtx(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"variables": variables})
	}
}

// DownloadTemplate hands out the template file, either as a presigned URL for
// remote-backed templates or as the bytes themselves for local-backed ones.
func DownloadTemplate(svc service.TemplateService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		res, err := svc.Download(c.UserContext(), id, middleware.ActorFromCtx(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		if res.URL != "" {
			return c.JSON(fiber.Map{"url": res.URL})
		}
		c.Set(fiber.HeaderContentType, res.MimeType)
		return c.Send(res.Data)
	}
}

// UpdateTemplate applies a partial edit: a multipart "file" field replaces the
// stored file, a "name" field (form or JSON) renames the template.
func UpdateTemplate(svc service.TemplateService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		var patch model.TemplatePatch
		var newFile *service.UploadFile

		if fh, err := c.FormFile("file"); err == nil {
			up, err := readUpload(fh)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			newFile = up
		}
		if name := c.FormValue("name"); name != "" {
			patch.Name = &name
		} else if c.Is("json") {
			if err := c.BodyParser(&patch); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
			}
		}

		tmpl, err := svc.Update(c.UserContext(), id, middleware.ActorFromCtx(c), patch, newFile)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(tmpl)
	}
}

// DeleteTemplate removes a template's file and record.
func DeleteTemplate(svc service.TemplateService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), id, middleware.ActorFromCtx(c)); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
