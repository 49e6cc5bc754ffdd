package errprocess

import (
	"errors"
	"fmt"

	"video_sharing_service/pkg/logger"
)

// 錯誤分類，handler 依此對應 HTTP 狀態碼
var (
	// ErrValidation 缺少必要欄位或檔案，任何儲存 I/O 之前就拒絕
	ErrValidation = errors.New("validation failed")
	// ErrNotFound 找不到影片記錄
	ErrNotFound = errors.New("video not found")
	// ErrQualityUnavailable 該畫質未產生，與 NotFound 區分，不做畫質替換
	ErrQualityUnavailable = errors.New("requested quality not available")
	// ErrUnauthorized principal 不是擁有者也不是 Admin
	ErrUnauthorized = errors.New("not authorized")
	// ErrPartialDelete 部分物件刪除失敗，記錄保留以便重試
	ErrPartialDelete = errors.New("partial delete")
)

// Set set err info
func Set(errMsg string) error {
	logger.Log.Error(errMsg)
	return errors.New(errMsg)
}

// SetWith 記錄錯誤並包裝分類錯誤，呼叫端可用 errors.Is 判斷
func SetWith(base error, errMsg string) error {
	logger.Log.Error(errMsg)
	return fmt.Errorf("%s: %w", errMsg, base)
}
