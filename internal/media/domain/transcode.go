package domain

const (
	//MediaEventQueue definition queue name
	MediaEventQueue = "media_events"

	//EventIngested 影片完成 ingestion
	EventIngested = "ingested"
	//EventDeleted 影片已刪除
	EventDeleted = "deleted"
)

// EncodeFailure 單一 profile 的轉碼失敗原因
type EncodeFailure struct {
	Label QualityLabel
	Cause string
}

// TranscodeResult 一次 ingestion 的轉碼結果，只存在於該次請求期間
// Renditions / ThumbnailPath 指向本地暫存輸出檔，上傳後即刪除
type TranscodeResult struct {
	Renditions    map[QualityLabel]string
	ThumbnailPath string
	Failures      []EncodeFailure
}

// Degraded 是否有 profile 失敗
func (r *TranscodeResult) Degraded() bool {
	return len(r.Failures) > 0
}

// FailedLabels 失敗的畫質標籤列表
func (r *TranscodeResult) FailedLabels() []string {
	labels := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		labels = append(labels, string(f.Label))
	}
	return labels
}

// MediaEvent 發布到 media_events queue 的通知訊息
type MediaEvent struct {
	Event      string   `json:"event"`
	VideoID    string   `json:"video_id"`
	Title      string   `json:"title"`
	OwnerID    string   `json:"owner_id"`
	Renditions []string `json:"renditions,omitempty"`
}
