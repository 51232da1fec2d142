package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"templify/internal/apperror"
	"templify/internal/http/middleware"
	"templify/internal/identity"
	"templify/internal/model"
	"templify/internal/service"
	serviceMocks "templify/internal/service/mocks"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// asActor injects a fixed actor the way the auth middleware would.
func asActor(actor model.Actor) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(middleware.ActorLocalKey, actor)
		return c.Next()
	}
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateTemplate(t *testing.T) {
	mockSvc := new(serviceMocks.MockTemplateService)
	app := fiber.New()
	app.Post("/templates", asActor(model.Actor{ID: "u1"}), CreateTemplate(mockSvc))

	t.Run("success", func(t *testing.T) {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		part, _ := writer.CreateFormFile("file", "offer letter.docx")
		part.Write([]byte("payload"))
		writer.Close()

		expected := &model.Template{
			ID:          uuid.New().String(),
			Name:        "offer_letter.docx",
			Variables:   []string{"name"},
			StorageType: model.StorageUser,
		}
		mockSvc.On("CreateFromUpload", mock.Anything, mock.MatchedBy(func(in service.TemplateCreateInput) bool {
			return in.File.OriginalName == "offer letter.docx" && !in.System
		}), model.Actor{ID: "u1"}).Return(expected, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/templates", body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		raw := map[string]any{}
		json.NewDecoder(resp.Body).Decode(&raw)
		assert.Equal(t, expected.ID, raw["id"])
		// Internal fields never serialize.
		assert.NotContains(t, raw, "owner_id")
		assert.NotContains(t, raw, "file_path")
		mockSvc.AssertExpectations(t)
	})

	t.Run("system flag propagates", func(t *testing.T) {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		part, _ := writer.CreateFormFile("file", "shared.docx")
		part.Write([]byte("payload"))
		writer.WriteField("system", "true")
		writer.Close()

		mockSvc.On("CreateFromUpload", mock.Anything, mock.MatchedBy(func(in service.TemplateCreateInput) bool {
			return in.System
		}), mock.Anything).Return(&model.Template{ID: uuid.New().String()}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/templates", body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/templates", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "FILE_REQUIRED", res.Error.Code)
	})

	t.Run("quota exceeded maps to conflict", func(t *testing.T) {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		part, _ := writer.CreateFormFile("file", "sixth.docx")
		part.Write([]byte("payload"))
		writer.Close()

		mockSvc.On("CreateFromUpload", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, apperror.New(apperror.KindQuotaExceeded, "template quota exceeded (maximum 5)")).Once()

		req := httptest.NewRequest(http.MethodPost, "/templates", body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "QUOTA_EXCEEDED", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("unsupported file type maps to 415", func(t *testing.T) {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		part, _ := writer.CreateFormFile("file", "legacy.doc")
		part.Write([]byte("payload"))
		writer.Close()

		mockSvc.On("CreateFromUpload", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, apperror.New(apperror.KindUnsupportedFileType, "only .docx files are supported")).Once()

		req := httptest.NewRequest(http.MethodPost, "/templates", body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestGetTemplate(t *testing.T) {
	mockSvc := new(serviceMocks.MockTemplateService)
	app := fiber.New()
	app.Get("/templates/:id", asActor(model.Actor{ID: "u1"}), GetTemplate(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, id, model.Actor{ID: "u1"}).
			Return(&model.Template{ID: id, Name: "offer.docx"}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/templates/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result model.Template
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, id, result.ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("access denied maps to 403", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, id, mock.Anything).
			Return(nil, apperror.AccessDenied()).Once()

		req := httptest.NewRequest(http.MethodGet, "/templates/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "ACCESS_DENIED", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/templates/invalid-uuid", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_ID", res.Error.Code)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, id, mock.Anything).
			Return(nil, apperror.NotFound("template not found")).Once()

		req := httptest.NewRequest(http.MethodGet, "/templates/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestGetTemplateVariables(t *testing.T) {
	mockSvc := new(serviceMocks.MockTemplateService)
	app := fiber.New()
	app.Get("/templates/:id/variables", asActor(model.Actor{ID: "u1"}), GetTemplateVariables(mockSvc))

	id := uuid.New().String()
	mockSvc.On("GetVariables", mock.Anything, id, mock.Anything).
		Return([]string{"name", "date"}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/templates/"+id+"/variables", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string][]string
	json.NewDecoder(resp.Body).Decode(&body)
	assert.Equal(t, []string{"name", "date"}, body["variables"])
	mockSvc.AssertExpectations(t)
}

func TestDownloadTemplate(t *testing.T) {
	mockSvc := new(serviceMocks.MockTemplateService)
	app := fiber.New()
	app.Get("/templates/:id/download", asActor(model.Actor{ID: "u1"}), DownloadTemplate(mockSvc))

	t.Run("presigned url", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Download", mock.Anything, id, mock.Anything).
			Return(&service.DownloadResult{URL: "https://minio.example/x"}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/templates/"+id+"/download", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "https://minio.example/x", body["url"])
	})

	t.Run("raw bytes for local files", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Download", mock.Anything, id, mock.Anything).
			Return(&service.DownloadResult{Data: []byte("bytes"), MimeType: service.DocxMimeType}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/templates/"+id+"/download", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, service.DocxMimeType, resp.Header.Get("Content-Type"))
		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		assert.Equal(t, "bytes", buf.String())
	})
}

func TestUpdateTemplate(t *testing.T) {
	mockSvc := new(serviceMocks.MockTemplateService)
	app := fiber.New()
	app.Patch("/templates/:id", asActor(model.Actor{ID: "u1"}), UpdateTemplate(mockSvc))

	t.Run("json rename", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Update", mock.Anything, id, mock.Anything, mock.MatchedBy(func(p model.TemplatePatch) bool {
			return p.Name != nil && *p.Name == "renamed"
		}), (*service.UploadFile)(nil)).Return(&model.Template{ID: id, Name: "renamed"}, nil).Once()

		req := httptest.NewRequest(http.MethodPatch, "/templates/"+id, strings.NewReader(`{"name":"renamed"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("multipart file replacement", func(t *testing.T) {
		id := uuid.New().String()
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		part, _ := writer.CreateFormFile("file", "fresh.docx")
		part.Write([]byte("payload"))
		writer.Close()

		mockSvc.On("Update", mock.Anything, id, mock.Anything, model.TemplatePatch{},
			mock.MatchedBy(func(f *service.UploadFile) bool {
				return f != nil && f.OriginalName == "fresh.docx"
			})).Return(&model.Template{ID: id}, nil).Once()

		req := httptest.NewRequest(http.MethodPatch, "/templates/"+id, body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestDeleteTemplate(t *testing.T) {
	mockSvc := new(serviceMocks.MockTemplateService)
	app := fiber.New()
	app.Delete("/templates/:id", asActor(model.Actor{ID: "u1"}), DeleteTemplate(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Delete", mock.Anything, id, mock.Anything).Return(nil).Once()

		req := httptest.NewRequest(http.MethodDelete, "/templates/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Delete", mock.Anything, id, mock.Anything).
			Return(apperror.NotFound("template not found")).Once()

		req := httptest.NewRequest(http.MethodDelete, "/templates/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestCreateDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Post("/documents", asActor(model.Actor{ID: "u1"}), CreateDocument(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		tmplID := uuid.New().String()
		mockSvc.On("Create", mock.Anything, mock.MatchedBy(func(in service.DocumentCreateInput) bool {
			return in.TemplateID == tmplID && in.Values["name"] == "Alice" && in.Folder == "contracts"
		}), model.Actor{ID: "u1"}).Return(&model.Document{
			ID:         id,
			TemplateID: tmplID,
			Values:     map[string]any{"name": "Alice"},
		}, nil).Once()

		payload := `{"template_id":"` + tmplID + `","values":{"name":"Alice"},"folder":"contracts"}`
		req := httptest.NewRequest(http.MethodPost, "/documents", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		raw := map[string]any{}
		json.NewDecoder(resp.Body).Decode(&raw)
		assert.Equal(t, id, raw["id"])
		assert.NotContains(t, raw, "owner_id")
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/documents", strings.NewReader("not json"))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("render failure maps to 422", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, apperror.New(apperror.KindRenderError, "failed to render document")).Once()

		req := httptest.NewRequest(http.MethodPost, "/documents", strings.NewReader(`{"template_id":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestListDocuments(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Get("/documents", asActor(model.Actor{ID: "u1"}), ListDocuments(mockSvc))

	mockSvc.On("ListByOwner", mock.Anything, model.Actor{ID: "u1"}).
		Return([]model.Document{{ID: uuid.New().String()}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Items []model.Document `json:"items"`
		Total int              `json:"total"`
	}
	json.NewDecoder(resp.Body).Decode(&body)
	assert.Len(t, body.Items, 1)
	assert.Equal(t, 1, body.Total)
	mockSvc.AssertExpectations(t)
}

func TestUpdateDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Patch("/documents/:id", asActor(model.Actor{ID: "u1"}), UpdateDocument(mockSvc))

	t.Run("values patch", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Update", mock.Anything, id, mock.Anything, mock.MatchedBy(func(p model.DocumentPatch) bool {
			return p.Values != nil && p.Values["name"] == "Bob"
		})).Return(&model.Document{ID: id}, nil).Once()

		req := httptest.NewRequest(http.MethodPatch, "/documents/"+id, strings.NewReader(`{"values":{"name":"Bob"}}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("empty patch rejected by service", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Update", mock.Anything, id, mock.Anything, mock.Anything).
			Return(nil, apperror.InvalidArgument("no changes were provided")).Once()

		req := httptest.NewRequest(http.MethodPatch, "/documents/"+id, strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestDownloadDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Get("/documents/:id/download", asActor(model.Actor{ID: "u1"}), DownloadDocument(mockSvc))

	id := uuid.New().String()
	mockSvc.On("DownloadURL", mock.Anything, id, mock.Anything).
		Return("https://minio.example/doc", nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/documents/"+id+"/download", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	assert.Equal(t, "https://minio.example/doc", body["url"])
	mockSvc.AssertExpectations(t)
}

func TestRouting(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	auth := middleware.Auth(identity.NewStaticResolver("tok-u1:u1"))
	RegisterRoutes(app, db, auth, new(serviceMocks.MockTemplateService), new(serviceMocks.MockDocumentService))

	t.Run("not found route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/non-existent", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
	})

	t.Run("guarded routes demand a token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/templates", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "UNAUTHORIZED", res.Error.Code)
	})

	t.Run("health stays open", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}
