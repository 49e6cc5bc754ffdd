package app

import (
	"context"
	"fmt"
	"sync"

	"video_sharing_service/internal/media/domain"
	"video_sharing_service/pkg/logger"
)

// TranscodeOrchestrator 驅動一個來源檔的全部 rendition 與縮圖
// 採 best-effort：單一 profile 失敗不取消其他已在進行的編碼，
// 全部 profile 都有結果後才返回，由呼叫端決定 degraded 是否可接受
type TranscodeOrchestrator interface {
	Run(ctx context.Context, inputPath string, profiles []domain.TranscodeProfile) domain.TranscodeResult
}

type transcodeOrchestrator struct {
	encoder     Encoder
	workerLimit int
}

// NewTranscodeOrchestrator create a TranscodeOrchestrator
// workerLimit 限制同時執行的外部編碼程序數，避免壓垮主機
func NewTranscodeOrchestrator(encoder Encoder, workerLimit int) TranscodeOrchestrator {
	if workerLimit < 1 {
		workerLimit = 1
	}
	return &transcodeOrchestrator{
		encoder:     encoder,
		workerLimit: workerLimit,
	}
}

// Run 對每個 profile 各跑一次編碼，縮圖獨立於 rendition 成敗
func (o *transcodeOrchestrator) Run(ctx context.Context, inputPath string, profiles []domain.TranscodeProfile) domain.TranscodeResult {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		result = domain.TranscodeResult{
			Renditions: make(map[domain.QualityLabel]string, len(profiles)),
		}
		// 有限的 worker 數，用帶緩衝 channel 當號誌
		sem = make(chan struct{}, o.workerLimit)
	)

	for _, profile := range profiles {
		wg.Add(1)
		go func(p domain.TranscodeProfile) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			outputPath := fmt.Sprintf("%s_%s.mp4", inputPath, p.Label)
			if err := o.encoder.Encode(ctx, inputPath, p, outputPath); err != nil {
				logger.Log.Warn(fmt.Sprintf("profile[%s] 轉碼失敗: %v", p.Label, err))
				mu.Lock()
				result.Failures = append(result.Failures, domain.EncodeFailure{
					Label: p.Label,
					Cause: err.Error(),
				})
				mu.Unlock()
				return
			}

			mu.Lock()
			result.Renditions[p.Label] = outputPath
			mu.Unlock()
		}(profile)
	}

	// 縮圖佔一個 worker 名額，與 rendition 共用同一上限
	wg.Add(1)
	go func() {
		defer wg.Done()
		sem <- struct{}{}
		defer func() { <-sem }()

		thumbPath := inputPath + "_thumbnail.png"
		if err := o.encoder.ExtractThumbnail(ctx, inputPath, thumbPath); err != nil {
			logger.Log.Warn(fmt.Sprintf("縮圖擷取失敗: %v", err))
			return
		}
		mu.Lock()
		result.ThumbnailPath = thumbPath
		mu.Unlock()
	}()

	wg.Wait()
	return result
}
