package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"video_sharing_service/internal/media/domain"
	errprocess "video_sharing_service/pkg/err"
	"video_sharing_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockMediaUseCase 是 MediaUseCase 的 Mock
type MockMediaUseCase struct {
	mock.Mock
}

func (m *MockMediaUseCase) UploadVideo(ctx context.Context, up domain.UploadVideoReq) (*domain.UploadVideoRes, error) {
	args := m.Called(ctx, up)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UploadVideoRes), args.Error(1)
}

func (m *MockMediaUseCase) GetVideoURL(ctx context.Context, videoID, quality string) (*domain.VideoURLRes, error) {
	args := m.Called(ctx, videoID, quality)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VideoURLRes), args.Error(1)
}

func (m *MockMediaUseCase) GetThumbnailURL(ctx context.Context, videoID string) (*domain.VideoURLRes, error) {
	args := m.Called(ctx, videoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VideoURLRes), args.Error(1)
}

func (m *MockMediaUseCase) DeleteVideo(ctx context.Context, videoID string, p domain.Principal) (*domain.DeleteVideoRes, error) {
	args := m.Called(ctx, videoID, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DeleteVideoRes), args.Error(1)
}

// newTestApp 建立不掛 JWT middleware 的測試路由，principal 直接缺省
func newTestApp(usecase *MockMediaUseCase) *fiber.App {
	logger.SetNewNop()
	h := NewMediaHandler(usecase)
	app := fiber.New()
	app.Post("/media/upload", h.UploadVideo)
	app.Get("/media/videos/:id/url", h.GetVideoURL)
	app.Get("/media/videos/:id/thumbnail", h.GetThumbnailURL)
	app.Delete("/media/videos/:id", h.DeleteVideo)
	return app
}

func decodeBody(t *testing.T, res *http.Response) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(res.Body)
	assert.NoError(t, err)
	var body map[string]any
	assert.NoError(t, json.Unmarshal(raw, &body))
	return body
}

// multipartUpload 組出帶影片欄位的 multipart body
func multipartUpload(t *testing.T, withFile bool) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	assert.NoError(t, w.WriteField("title", "My Video"))
	assert.NoError(t, w.WriteField("description", "desc"))
	if withFile {
		fw, err := w.CreateFormFile("video", "test.mp4")
		assert.NoError(t, err)
		_, err = fw.Write([]byte("dummy video content"))
		assert.NoError(t, err)
	}
	assert.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

// 測試上傳 API
func TestUploadVideoHandler(t *testing.T) {
	t.Run("成功上傳", func(t *testing.T) {
		usecase := new(MockMediaUseCase)
		usecase.On("UploadVideo", mock.Anything, mock.MatchedBy(func(up domain.UploadVideoReq) bool {
			return up.Title == "My Video" && up.FileName == "test.mp4" && up.File != nil
		})).Return(&domain.UploadVideoRes{VideoID: "vid-1", Message: "影片上傳成功"}, nil)

		app := newTestApp(usecase)
		body, contentType := multipartUpload(t, true)
		req := httptest.NewRequest(http.MethodPost, "/media/upload", body)
		req.Header.Set("Content-Type", contentType)

		res, err := app.Test(req, -1)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, "vid-1", decodeBody(t, res)["video_id"])
	})

	t.Run("缺少檔案回400", func(t *testing.T) {
		usecase := new(MockMediaUseCase)
		app := newTestApp(usecase)
		body, contentType := multipartUpload(t, false)
		req := httptest.NewRequest(http.MethodPost, "/media/upload", body)
		req.Header.Set("Content-Type", contentType)

		res, err := app.Test(req, -1)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		usecase.AssertNotCalled(t, "UploadVideo", mock.Anything, mock.Anything)
	})

	t.Run("驗證失敗回400", func(t *testing.T) {
		usecase := new(MockMediaUseCase)
		usecase.On("UploadVideo", mock.Anything, mock.Anything).
			Return(nil, errprocess.ErrValidation)

		app := newTestApp(usecase)
		body, contentType := multipartUpload(t, true)
		req := httptest.NewRequest(http.MethodPost, "/media/upload", body)
		req.Header.Set("Content-Type", contentType)

		res, err := app.Test(req, -1)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})
}

// 測試簽名 URL API
func TestGetVideoURLHandler(t *testing.T) {
	t.Run("成功取得URL", func(t *testing.T) {
		usecase := new(MockMediaUseCase)
		usecase.On("GetVideoURL", mock.Anything, "vid-1", "q720p").
			Return(&domain.VideoURLRes{URL: "http://signed/q720p", ExpiresIn: 3600}, nil)

		app := newTestApp(usecase)
		req := httptest.NewRequest(http.MethodGet, "/media/videos/vid-1/url?quality=q720p", nil)

		res, err := app.Test(req, -1)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		body := decodeBody(t, res)
		assert.Equal(t, "http://signed/q720p", body["url"])
		assert.Equal(t, float64(3600), body["expires_in"])
	})

	t.Run("畫質不可用回404", func(t *testing.T) {
		usecase := new(MockMediaUseCase)
		usecase.On("GetVideoURL", mock.Anything, "vid-1", "q480p").
			Return(nil, errprocess.ErrQualityUnavailable)

		app := newTestApp(usecase)
		req := httptest.NewRequest(http.MethodGet, "/media/videos/vid-1/url?quality=q480p", nil)

		res, err := app.Test(req, -1)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
	})

	t.Run("影片不存在回404", func(t *testing.T) {
		usecase := new(MockMediaUseCase)
		usecase.On("GetVideoURL", mock.Anything, "missing", "").
			Return(nil, errprocess.ErrNotFound)

		app := newTestApp(usecase)
		req := httptest.NewRequest(http.MethodGet, "/media/videos/missing/url", nil)

		res, err := app.Test(req, -1)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
	})
}

// 測試縮圖 API
func TestGetThumbnailURLHandler(t *testing.T) {
	t.Run("縮圖不可用回404", func(t *testing.T) {
		usecase := new(MockMediaUseCase)
		usecase.On("GetThumbnailURL", mock.Anything, "vid-1").
			Return(nil, errprocess.ErrQualityUnavailable)

		app := newTestApp(usecase)
		req := httptest.NewRequest(http.MethodGet, "/media/videos/vid-1/thumbnail", nil)

		res, err := app.Test(req, -1)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
	})
}

// 測試刪除 API
func TestDeleteVideoHandler(t *testing.T) {
	t.Run("成功刪除", func(t *testing.T) {
		usecase := new(MockMediaUseCase)
		usecase.On("DeleteVideo", mock.Anything, "vid-1", mock.Anything).
			Return(&domain.DeleteVideoRes{Deleted: 4}, nil)

		app := newTestApp(usecase)
		req := httptest.NewRequest(http.MethodDelete, "/media/videos/vid-1", nil)

		res, err := app.Test(req, -1)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, float64(4), decodeBody(t, res)["deleted"])
	})

	t.Run("無權限回403", func(t *testing.T) {
		usecase := new(MockMediaUseCase)
		usecase.On("DeleteVideo", mock.Anything, "vid-1", mock.Anything).
			Return(nil, errprocess.ErrUnauthorized)

		app := newTestApp(usecase)
		req := httptest.NewRequest(http.MethodDelete, "/media/videos/vid-1", nil)

		res, err := app.Test(req, -1)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, res.StatusCode)
	})

	t.Run("部分刪除失敗回報殘留key", func(t *testing.T) {
		usecase := new(MockMediaUseCase)
		usecase.On("DeleteVideo", mock.Anything, "vid-1", mock.Anything).
			Return(&domain.DeleteVideoRes{Deleted: 3, FailedKeys: []string{"thumbnails/t"}},
				errprocess.ErrPartialDelete)

		app := newTestApp(usecase)
		req := httptest.NewRequest(http.MethodDelete, "/media/videos/vid-1", nil)

		res, err := app.Test(req, -1)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
		body := decodeBody(t, res)
		assert.Equal(t, float64(3), body["deleted"])
		assert.Equal(t, []any{"thumbnails/t"}, body["failed_keys"])
	})
}
