package handlers

import (
	"errors"
	"net/http"

	"video_sharing_service/internal/media/app"
	"video_sharing_service/internal/media/domain"
	errprocess "video_sharing_service/pkg/err"
	"video_sharing_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
)

// MediaHandler definition media handler
type MediaHandler struct {
	Usecase app.MediaUseCase
}

// NewMediaHandler create a MediaHandler
func NewMediaHandler(usecase app.MediaUseCase) *MediaHandler {
	return &MediaHandler{Usecase: usecase}
}

// principalFromCtx 取出 middleware 放入的 pre-validated principal
func principalFromCtx(c *fiber.Ctx) domain.Principal {
	id, _ := c.Locals(middlewares.TokenUserID).(string)
	username, _ := c.Locals(middlewares.TokenUsername).(string)
	groups, _ := c.Locals(middlewares.TokenGroups).([]string)
	return domain.Principal{
		ID:       id,
		Username: username,
		Groups:   groups,
	}
}

// statusFromErr 錯誤分類對應 HTTP 狀態碼
func statusFromErr(err error) int {
	switch {
	case errors.Is(err, errprocess.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, errprocess.ErrNotFound), errors.Is(err, errprocess.ErrQualityUnavailable):
		return http.StatusNotFound
	case errors.Is(err, errprocess.ErrUnauthorized):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// UploadVideo 接收 multipart 上傳請求，完成整條 ingestion pipeline
func (h *MediaHandler) UploadVideo(c *fiber.Ctx) error {
	// 1. 取得表單欄位
	title := c.FormValue("title")
	desc := c.FormValue("description")

	// 2. 取得上傳檔案
	fileHeader, err := c.FormFile("video")
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "未檢測到檔案"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "讀取上傳檔案失敗"})
	}
	defer file.Close()

	// 3. 交給 usecase 執行暫存、轉碼、上傳與記錄寫入
	res, err := h.Usecase.UploadVideo(c.Context(), domain.UploadVideoReq{
		Title:       title,
		Description: desc,
		FileName:    fileHeader.Filename,
		File:        file,
		Uploader:    principalFromCtx(c),
	})
	if err != nil {
		return c.Status(statusFromErr(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"msg":               res.Message,
		"video_id":          res.VideoID,
		"failed_renditions": res.FailedRenditions,
	})
}

// GetVideoURL 依畫質選擇器簽發時限 URL
func (h *MediaHandler) GetVideoURL(c *fiber.Ctx) error {
	videoID := c.Params("id")
	quality := c.Query("quality") // 留空等同 original

	res, err := h.Usecase.GetVideoURL(c.Context(), videoID, quality)
	if err != nil {
		return c.Status(statusFromErr(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"url":        res.URL,
		"expires_in": res.ExpiresIn,
	})
}

// GetThumbnailURL 簽發縮圖的時限 URL
func (h *MediaHandler) GetThumbnailURL(c *fiber.Ctx) error {
	videoID := c.Params("id")

	res, err := h.Usecase.GetThumbnailURL(c.Context(), videoID)
	if err != nil {
		return c.Status(statusFromErr(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"url":        res.URL,
		"expires_in": res.ExpiresIn,
	})
}

// DeleteVideo 級聯刪除影片的所有 object 與記錄
func (h *MediaHandler) DeleteVideo(c *fiber.Ctx) error {
	videoID := c.Params("id")

	res, err := h.Usecase.DeleteVideo(c.Context(), videoID, principalFromCtx(c))
	if err != nil {
		// 部分刪除失敗時把殘留的 key 一併回報，不吞掉
		if errors.Is(err, errprocess.ErrPartialDelete) && res != nil {
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
				"error":       "部分 object 刪除失敗",
				"deleted":     res.Deleted,
				"failed_keys": res.FailedKeys,
			})
		}
		return c.Status(statusFromErr(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"msg":     "影片與所有畫質、縮圖刪除成功",
		"deleted": res.Deleted,
	})
}
