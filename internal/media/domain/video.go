package domain

import (
	"io"
	"time"

	"video_sharing_service/pkg"
	"video_sharing_service/pkg/token"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// QualityLabel 畫質標籤，屬於對外介面的一部分，不可變動
type QualityLabel string

const (
	//QualityOriginal 原始上傳檔
	QualityOriginal QualityLabel = "original"
	//Quality1080p 1080p rendition
	Quality1080p QualityLabel = "q1080p"
	//Quality720p 720p rendition
	Quality720p QualityLabel = "q720p"
	//Quality480p 480p rendition
	Quality480p QualityLabel = "q480p"
)

// TranscodeProfile 一組轉碼目標：標籤與目標垂直解析度
type TranscodeProfile struct {
	Label  QualityLabel
	Height int
}

// DefaultProfiles 固定的轉碼設定表，每次 ingestion 都嘗試全部
var DefaultProfiles = []TranscodeProfile{
	{Label: Quality1080p, Height: 1080},
	{Label: Quality720p, Height: 720},
	{Label: Quality480p, Height: 480},
}

// Principal 已通過驗證的請求者
type Principal struct {
	ID       string
	Username string
	Groups   []string
}

// IsAdmin principal 是否屬於 Admin 群組
func (p Principal) IsAdmin() bool {
	return pkg.Contains(p.Groups, token.GroupAdmin)
}

// VideoAsset 影片記錄，建立後不再修改，刪除時連同所有引用的 object 一併移除
type VideoAsset struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	OwnerID     string             `bson:"owner_id" json:"owner_id"`
	OwnerName   string             `bson:"owner_name" json:"owner_name"`
	// SourceKey 原始上傳檔在 MinIO 上的 object key，記錄存在即必有值
	// object key 不直接回給客戶端，handler 只回簽名後的 URL
	SourceKey string `bson:"source_key" json:"source_key"`
	// RenditionKeys 畫質標籤 -> object key，只包含轉碼成功的畫質
	RenditionKeys map[string]string `bson:"rendition_keys" json:"rendition_keys"`
	// ThumbnailKey 縮圖 object key，縮圖擷取失敗時為空
	ThumbnailKey string    `bson:"thumbnail_key,omitempty" json:"thumbnail_key,omitempty"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

// AllObjectKeys 該記錄引用的全部 object key，級聯刪除用
func (v *VideoAsset) AllObjectKeys() []string {
	keys := []string{v.SourceKey}
	for _, k := range v.RenditionKeys {
		keys = append(keys, k)
	}
	if v.ThumbnailKey != "" {
		keys = append(keys, v.ThumbnailKey)
	}
	return keys
}

// UploadVideoReq usecase upload video request
type UploadVideoReq struct {
	Title       string
	Description string
	FileName    string
	File        io.Reader
	Uploader    Principal
}

// UploadVideoRes usecase upload video response
type UploadVideoRes struct {
	VideoID string
	Message string
	// FailedRenditions 轉碼失敗而缺漏的畫質標籤，全部成功時為空
	FailedRenditions []string
}

// VideoURLRes usecase 簽名 URL 回應
type VideoURLRes struct {
	URL string
	// ExpiresIn URL 有效秒數
	ExpiresIn int
}

// DeleteVideoRes usecase delete video response
type DeleteVideoRes struct {
	// Deleted 成功刪除的 object 數
	Deleted int
	// FailedKeys 刪除失敗的 object key，非空時記錄會保留
	FailedKeys []string
}
