package handler

import (
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/thesistrack/thesistrack-api/internal/dto"
	"github.com/thesistrack/thesistrack-api/internal/service"
	"github.com/thesistrack/thesistrack-api/internal/utils"
	"github.com/thesistrack/thesistrack-api/pkg/filestore"
)

type stubChapterService struct {
	listErr  error
	openErr  error
	versions []dto.ChapterVersionResponse
}

func (s stubChapterService) Upload(context.Context, service.Caller, dto.ChapterUploadRequest, *multipart.FileHeader) (dto.ChapterUploadResponse, error) {
	return dto.ChapterUploadResponse{}, nil
}

func (s stubChapterService) Delete(context.Context, service.Caller, uint) (dto.ChapterDeleteResponse, error) {
	return dto.ChapterDeleteResponse{}, nil
}

func (s stubChapterService) ListVersions(context.Context, service.Caller, uint, int) ([]dto.ChapterVersionResponse, error) {
	return s.versions, s.listErr
}

func (s stubChapterService) OpenFile(context.Context, service.Caller, uint) (dto.ChapterFileResponse, error) {
	return dto.ChapterFileResponse{}, s.openErr
}

func newChapterApp(svc service.ChapterService, debugDiagnostics bool) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/chapters", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(7))
		c.Locals("user_role", "student")
		c.Locals("group_ids", []uint{3})
		return c.Next()
	})
	NewChapterHandler(svc, zerolog.Nop(), debugDiagnostics).Register(group)
	return app
}

func decodeResponse(t *testing.T, resp *http.Response) utils.APIResponse {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var payload utils.APIResponse
	require.NoError(t, json.Unmarshal(body, &payload))
	return payload
}

func TestChapterListRequiresQueryParams(t *testing.T) {
	app := newChapterApp(stubChapterService{}, false)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/chapters?chapter=1", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/chapters?group_id=3", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChapterListMapsServiceErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"group missing", service.ErrGroupNotFound, http.StatusNotFound},
		{"forbidden", service.ErrPermissionDenied, http.StatusForbidden},
		{"oversized upload", filestore.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{"wrong type", filestore.ErrTypeNotAllowed, http.StatusUnsupportedMediaType},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newChapterApp(stubChapterService{listErr: tc.err}, false)
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/chapters?group_id=3&chapter=1", nil))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)

			payload := decodeResponse(t, resp)
			require.False(t, payload.Success)
		})
	}
}

func TestChapterFileNotFoundHidesDiagnosticsByDefault(t *testing.T) {
	notFound := &service.FileNotFoundError{Diagnostics: filestore.Diagnostics{
		StoredPath: "/gone/old.pdf",
		Tried:      []filestore.Candidate{{Strategy: "stored_path", Path: "/gone/old.pdf"}},
	}}

	app := newChapterApp(stubChapterService{openErr: notFound}, false)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/chapters/5/file", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	payload := decodeResponse(t, resp)
	require.False(t, payload.Success)
	require.Nil(t, payload.Details)
}

func TestChapterFileNotFoundExposesDiagnosticsWhenEnabled(t *testing.T) {
	notFound := &service.FileNotFoundError{Diagnostics: filestore.Diagnostics{
		StoredPath: "/gone/old.pdf",
		Tried:      []filestore.Candidate{{Strategy: "stored_path", Path: "/gone/old.pdf"}},
	}}

	app := newChapterApp(stubChapterService{openErr: notFound}, true)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/chapters/5/file", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	payload := decodeResponse(t, resp)
	require.False(t, payload.Success)
	require.NotNil(t, payload.Details)

	details, ok := payload.Details.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "/gone/old.pdf", details["stored_path"])
}

func TestChapterUploadRejectsMissingFile(t *testing.T) {
	app := newChapterApp(stubChapterService{}, false)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chapters", nil)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
