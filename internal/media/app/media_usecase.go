package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"video_sharing_service/internal/media/domain"
	"video_sharing_service/internal/media/repository"
	"video_sharing_service/pkg/database"
	errprocess "video_sharing_service/pkg/err"
	"video_sharing_service/pkg/logger"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

// MediaUseCase 這裡封裝了對外提供的應用服務
type MediaUseCase interface {
	// UploadVideo ingestion pipeline：暫存上傳檔、轉碼、上傳產物、寫入記錄
	UploadVideo(ctx context.Context, up domain.UploadVideoReq) (*domain.UploadVideoRes, error)
	// GetVideoURL 依畫質取得時限簽名 URL，quality 留空等同 original
	GetVideoURL(ctx context.Context, videoID, quality string) (*domain.VideoURLRes, error)
	// GetThumbnailURL 取得縮圖的時限簽名 URL
	GetThumbnailURL(ctx context.Context, videoID string) (*domain.VideoURLRes, error)
	// DeleteVideo 授權檢查後級聯刪除記錄引用的全部 object 與記錄本身
	DeleteVideo(ctx context.Context, videoID string, p domain.Principal) (*domain.DeleteVideoRes, error)
}

type mediaUseCase struct {
	MinioClient   database.MinIOClientRepo
	VideoRepo     repository.VideoRepo
	Orchestrator  TranscodeOrchestrator
	AssetCache    database.RedisRepository[domain.VideoAsset]
	RabbitChannel database.RabbitRepo

	ScratchDir    string
	PresignExpiry time.Duration
	CacheTTL      time.Duration
	// StorageTimeout 單次物件儲存呼叫的上限，卡住的連線視為該次操作失敗
	StorageTimeout time.Duration
}

// NewMediaUseCase 建立一個新的 MediaUseCase
func NewMediaUseCase(minIO database.MinIOClientRepo,
	repo repository.VideoRepo,
	orchestrator TranscodeOrchestrator,
	assetCache database.RedisRepository[domain.VideoAsset],
	rabbitChannel database.RabbitRepo,
	scratchDir string,
	presignExpiry, cacheTTL, storageTimeout time.Duration,
) MediaUseCase {
	if storageTimeout <= 0 {
		storageTimeout = 30 * time.Second
	}
	return &mediaUseCase{
		MinioClient:    minIO,
		VideoRepo:      repo,
		Orchestrator:   orchestrator,
		AssetCache:     assetCache,
		RabbitChannel:  rabbitChannel,
		ScratchDir:     scratchDir,
		PresignExpiry:  presignExpiry,
		CacheTTL:       cacheTTL,
		StorageTimeout: storageTimeout,
	}
}

// 讓 test mock 使用包裝函數
var (
	createDir = func(path string) error {
		return os.MkdirAll(path, 0755)
	}

	createFile = func(name string) (*os.File, error) {
		return os.Create(name)
	}

	copyFile = func(dst *os.File, src io.Reader) (written int64, err error) {
		return io.Copy(dst, src)
	}

	removeFile = func(name string) error {
		return os.Remove(name)
	}
)

// newObjectKey 產生不會在併發請求間碰撞的 object key：
// 時間戳 + 請求級 UUID + 畫質標籤，無法僅由 video id 推得
func newObjectKey(prefix, requestID, label, fileName string) string {
	return fmt.Sprintf("%s/%d-%s-%s-%s", prefix, time.Now().UnixNano(), requestID, label, fileName)
}

// UploadVideo 接收上傳請求，完成暫存、轉碼、上傳與資料庫寫入
// 清理動作掛在 defer 上，不論成功、degraded 還是中途失敗都會移除暫存檔
func (s *mediaUseCase) UploadVideo(ctx context.Context, up domain.UploadVideoReq) (*domain.UploadVideoRes, error) {
	// 1. 任何儲存 I/O 之前先驗證欄位
	if up.Title == "" || up.FileName == "" || up.File == nil {
		return nil, errprocess.SetWith(errprocess.ErrValidation, "缺少 title 或上傳檔案")
	}

	if err := createDir(s.ScratchDir); err != nil {
		return nil, errprocess.Set(fmt.Sprintf("fileName[%s] 建立暫存目錄失敗 : %v", up.FileName, err))
	}

	// 2. 以請求級 UUID 命名暫存檔，併發 ingestion 不會互踩
	requestID := uuid.NewString()
	fileName := filepath.Base(up.FileName)
	tempPath := filepath.Join(s.ScratchDir, requestID+"_"+fileName)

	scratch := []string{tempPath}
	defer func() {
		// 所有離開路徑都要清掉本次 ingestion 的暫存檔
		for _, p := range scratch {
			if err := removeFile(p); err != nil && !os.IsNotExist(err) {
				logger.Log.Warn(fmt.Sprintf("清理暫存檔案失敗[%s]: %v", p, err))
			}
		}
	}()

	tempFile, err := createFile(tempPath)
	if err != nil {
		return nil, errprocess.Set(fmt.Sprintf("fileName[%s] 建立暫存檔案失敗 : %v", up.FileName, err))
	}

	if _, err := copyFile(tempFile, up.File); err != nil {
		tempFile.Close()
		return nil, errprocess.Set(fmt.Sprintf("fileName[%s] 儲存檔案失敗 : %v", up.FileName, err))
	}
	tempFile.Close()

	// 3. 原始檔先上傳 MinIO，轉碼一律晚於來源上傳
	sourceKey := newObjectKey("videos", requestID, string(domain.QualityOriginal), fileName)
	if err := s.uploadObject(ctx, sourceKey, tempPath, "video/mp4"); err != nil {
		return nil, errprocess.Set(fmt.Sprintf("fileName[%s] 上傳 MinIO 失敗 : %v", up.FileName, err))
	}

	// 4. 轉碼：所有 profile 都有結果後才返回
	result := s.Orchestrator.Run(ctx, tempPath, domain.DefaultProfiles)
	for _, p := range result.Renditions {
		scratch = append(scratch, p)
	}
	if result.ThumbnailPath != "" {
		scratch = append(scratch, result.ThumbnailPath)
	}

	// 5. 全部畫質都失敗就整筆放棄，並移除剛上傳的原始檔，不留孤兒 object
	if len(result.Renditions) == 0 {
		if failed := s.removeObjects(ctx, []string{sourceKey}); len(failed) > 0 {
			logger.Log.Warn(fmt.Sprintf("fileName[%s] 回收原始檔 object 失敗: %v", up.FileName, failed))
		}
		return nil, errprocess.Set(fmt.Sprintf("fileName[%s] 所有畫質轉碼失敗", up.FileName))
	}

	// 6. 上傳轉碼成功的 rendition，任一上傳失敗即回滾所有已上傳的 object
	uploaded := []string{sourceKey}
	renditionKeys := make(map[string]string, len(result.Renditions))
	for label, outputPath := range result.Renditions {
		key := newObjectKey("videos", requestID, string(label), fileName)
		if err := s.uploadObject(ctx, key, outputPath, "video/mp4"); err != nil {
			s.rollbackObjects(ctx, uploaded)
			return nil, errprocess.Set(fmt.Sprintf("fileName[%s] 上傳 rendition[%s] 失敗 : %v", up.FileName, label, err))
		}
		uploaded = append(uploaded, key)
		renditionKeys[string(label)] = key
	}

	// 7. 縮圖上傳失敗只 degrade，不中止整筆 ingestion
	var thumbnailKey string
	if result.ThumbnailPath != "" {
		key := newObjectKey("thumbnails", requestID, "thumbnail", "thumbnail.png")
		if err := s.uploadObject(ctx, key, result.ThumbnailPath, "image/png"); err != nil {
			logger.Log.Warn(fmt.Sprintf("fileName[%s] 上傳縮圖失敗 : %v", up.FileName, err))
		} else {
			thumbnailKey = key
			uploaded = append(uploaded, key)
		}
	}

	// 8. 所有 object 都已落地後才寫入記錄；寫入失敗則補償刪除，孤兒 blob 比失敗的上傳更糟
	asset := &domain.VideoAsset{
		Title:         up.Title,
		Description:   up.Description,
		OwnerID:       up.Uploader.ID,
		OwnerName:     up.Uploader.Username,
		SourceKey:     sourceKey,
		RenditionKeys: renditionKeys,
		ThumbnailKey:  thumbnailKey,
	}
	if err := s.VideoRepo.Create(ctx, asset); err != nil {
		s.rollbackObjects(ctx, uploaded)
		return nil, errprocess.Set(fmt.Sprintf("fileName[%s] 資料庫建立影片失敗 : %v", up.FileName, err))
	}

	// 9. 發布通知訊息，失敗不影響已完成的 ingestion
	s.publishEvent(domain.MediaEvent{
		Event:      domain.EventIngested,
		VideoID:    asset.ID.Hex(),
		Title:      asset.Title,
		OwnerID:    asset.OwnerID,
		Renditions: sortedLabels(renditionKeys),
	})

	message := "影片上傳成功"
	if result.Degraded() {
		message = "影片上傳成功，部分畫質無法提供"
	}
	return &domain.UploadVideoRes{
		VideoID:          asset.ID.Hex(),
		Message:          message,
		FailedRenditions: result.FailedLabels(),
	}, nil
}

// GetVideoURL 依畫質選擇器簽發時限 URL，缺漏的畫質回傳明確的不可用錯誤，不做替換
func (s *mediaUseCase) GetVideoURL(ctx context.Context, videoID, quality string) (*domain.VideoURLRes, error) {
	asset, err := s.getAsset(ctx, videoID)
	if err != nil {
		return nil, err
	}

	var objectKey string
	switch {
	case quality == "" || quality == string(domain.QualityOriginal):
		objectKey = asset.SourceKey
	default:
		key, ok := asset.RenditionKeys[quality]
		if !ok {
			return nil, errprocess.SetWith(errprocess.ErrQualityUnavailable,
				fmt.Sprintf("videoID[%s] 畫質[%s] 不存在", videoID, quality))
		}
		objectKey = key
	}

	return s.presign(ctx, videoID, objectKey)
}

// GetThumbnailURL 簽發縮圖的時限 URL，縮圖未產生時回傳不可用
func (s *mediaUseCase) GetThumbnailURL(ctx context.Context, videoID string) (*domain.VideoURLRes, error) {
	asset, err := s.getAsset(ctx, videoID)
	if err != nil {
		return nil, err
	}

	if asset.ThumbnailKey == "" {
		return nil, errprocess.SetWith(errprocess.ErrQualityUnavailable,
			fmt.Sprintf("videoID[%s] 縮圖不存在", videoID))
	}

	return s.presign(ctx, videoID, asset.ThumbnailKey)
}

// DeleteVideo 擁有者或 Admin 才可刪除；逐一嘗試刪除所有 object，
// 全部成功才移除記錄，部分失敗時保留記錄讓重試仍找得到引用
func (s *mediaUseCase) DeleteVideo(ctx context.Context, videoID string, p domain.Principal) (*domain.DeleteVideoRes, error) {
	// 授權判斷要用最新的記錄，不走快取
	asset, err := s.VideoRepo.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}

	if asset.OwnerID != p.ID && !p.IsAdmin() {
		return nil, errprocess.SetWith(errprocess.ErrUnauthorized,
			fmt.Sprintf("principal[%s] 無權刪除 videoID[%s]", p.ID, videoID))
	}

	keys := asset.AllObjectKeys()
	failed := s.removeObjects(ctx, keys)
	res := &domain.DeleteVideoRes{
		Deleted:    len(keys) - len(failed),
		FailedKeys: failed,
	}

	// 只要刪掉過任何 object，快取裡的記錄就已指向不存在的東西，立刻失效
	if res.Deleted > 0 && s.AssetCache != nil {
		if err := s.AssetCache.Del(ctx, assetCacheKey(videoID)); err != nil {
			logger.Log.Warn(fmt.Sprintf("videoID[%s] 快取失效失敗: %v", videoID, err))
		}
	}

	if len(failed) > 0 {
		return res, errprocess.SetWith(errprocess.ErrPartialDelete,
			fmt.Sprintf("videoID[%s] 部分 object 刪除失敗: %v", videoID, failed))
	}

	if err := s.VideoRepo.Delete(ctx, videoID); err != nil {
		return res, errprocess.Set(fmt.Sprintf("videoID[%s] 刪除影片記錄失敗 : %v", videoID, err))
	}

	s.publishEvent(domain.MediaEvent{
		Event:   domain.EventDeleted,
		VideoID: videoID,
		Title:   asset.Title,
		OwnerID: asset.OwnerID,
	})

	return res, nil
}

func assetCacheKey(videoID string) string {
	return "video_asset:" + videoID
}

// getAsset 讀取端 cache-aside：先查快取，miss 再讀資料庫並回填
func (s *mediaUseCase) getAsset(ctx context.Context, videoID string) (*domain.VideoAsset, error) {
	if s.AssetCache != nil {
		cached, err := s.AssetCache.Get(ctx, assetCacheKey(videoID))
		if err == nil {
			return &cached, nil
		}
		if err != database.ErrCacheMiss {
			logger.Log.Warn(fmt.Sprintf("videoID[%s] 讀取快取失敗: %v", videoID, err))
		}
	}

	asset, err := s.VideoRepo.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}

	if s.AssetCache != nil {
		if err := s.AssetCache.Set(ctx, assetCacheKey(videoID), *asset, s.CacheTTL); err != nil {
			logger.Log.Warn(fmt.Sprintf("videoID[%s] 寫入快取失敗: %v", videoID, err))
		}
	}
	return asset, nil
}

// uploadObject 單次上傳帶逾時，連線卡住以該次操作失敗處理
func (s *mediaUseCase) uploadObject(ctx context.Context, objectName, filePath, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, s.StorageTimeout)
	defer cancel()
	return s.MinioClient.UploadFile(ctx, objectName, filePath, contentType)
}

func (s *mediaUseCase) presign(ctx context.Context, videoID, objectKey string) (*domain.VideoURLRes, error) {
	ctx, cancel := context.WithTimeout(ctx, s.StorageTimeout)
	defer cancel()

	url, err := s.MinioClient.PresignGetURL(ctx, objectKey, s.PresignExpiry)
	if err != nil {
		return nil, errprocess.Set(fmt.Sprintf("videoID[%s] 生成 Presigned URL 失敗 : %v", videoID, err))
	}
	return &domain.VideoURLRes{
		URL:       url,
		ExpiresIn: int(s.PresignExpiry.Seconds()),
	}, nil
}

// removeObjects 逐一刪除 object，單一失敗不阻擋其餘刪除，回傳失敗的 key
func (s *mediaUseCase) removeObjects(ctx context.Context, keys []string) []string {
	var failed []string
	for _, key := range keys {
		opCtx, cancel := context.WithTimeout(ctx, s.StorageTimeout)
		err := s.MinioClient.RemoveFile(opCtx, key)
		cancel()
		if err != nil {
			logger.Log.Warn(fmt.Sprintf("刪除 object[%s] 失敗: %v", key, err))
			failed = append(failed, key)
		}
	}
	return failed
}

// rollbackObjects 補償刪除，僅記錄無法回收的 key
func (s *mediaUseCase) rollbackObjects(ctx context.Context, keys []string) {
	if failed := s.removeObjects(ctx, keys); len(failed) > 0 {
		logger.Log.Error(fmt.Sprintf("補償刪除未完成，殘留 object: %v", failed))
	}
}

// publishEvent 發布 media_events 訊息，失敗僅記錄
func (s *mediaUseCase) publishEvent(event domain.MediaEvent) {
	if s.RabbitChannel == nil {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Log.Warn(fmt.Sprintf("event[%s] JSON 序列化失敗: %v", event.Event, err))
		return
	}
	err = s.RabbitChannel.Publish(
		"",                     // 預設 exchange
		domain.MediaEventQueue, // queue 名稱
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        data,
		},
	)
	if err != nil {
		logger.Log.Warn(fmt.Sprintf("event[%s] 發送 RabbitMQ 訊息失敗: %v", event.Event, err))
	}
}

func sortedLabels(renditionKeys map[string]string) []string {
	labels := make([]string, 0, len(renditionKeys))
	// 依固定 profile 表的順序輸出，map 迭代順序不穩定
	for _, p := range domain.DefaultProfiles {
		if _, ok := renditionKeys[string(p.Label)]; ok {
			labels = append(labels, string(p.Label))
		}
	}
	return labels
}
