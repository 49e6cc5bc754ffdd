package app

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"video_sharing_service/internal/media/domain"
	"video_sharing_service/pkg/logger"
)

// Encoder 單次 (input, profile) 的轉碼合約，不重試，重試是 orchestrator 的決定
type Encoder interface {
	// Encode 轉出一個指定解析度的 rendition，失敗回傳原因
	Encode(ctx context.Context, inputPath string, profile domain.TranscodeProfile, outputPath string) error
	// ExtractThumbnail 擷取影片第 1 秒的單一影格作為縮圖
	ExtractThumbnail(ctx context.Context, inputPath, outputPath string) error
}

type ffmpegEncoder struct {
	timeout time.Duration
}

// NewFFmpegEncoder create a ffmpeg Encoder，timeout 為單次呼叫上限
func NewFFmpegEncoder(timeout time.Duration) Encoder {
	return &ffmpegEncoder{timeout: timeout}
}

// 讓 test mock 使用包裝函數
var (
	runFFmpeg = func(ctx context.Context, args []string) ([]byte, error) {
		// CommandContext 在 ctx 結束時會終止外部程序，不會留下執行到一半的 ffmpeg
		cmd := exec.CommandContext(ctx, "ffmpeg", args...)
		return cmd.CombinedOutput()
	}

	statFile = func(name string) (os.FileInfo, error) {
		return os.Stat(name)
	}
)

// Encode 執行 ffmpeg scale 轉碼，輸出檔不存在也視為失敗
func (e *ffmpegEncoder) Encode(ctx context.Context, inputPath string, profile domain.TranscodeProfile, outputPath string) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmdArgs := []string{
		"-y",
		"-i", inputPath,
		"-vf", fmt.Sprintf("scale=-2:%d", profile.Height),
		outputPath,
	}
	output, err := runFFmpeg(ctx, cmdArgs)
	if err != nil {
		// 被終止的 ffmpeg 會留下寫到一半的輸出檔
		discardPartialOutput(outputPath)
		return fmt.Errorf("FFmpeg %s 轉碼錯誤: %v, output: %s", profile.Label, err, string(output))
	}

	if _, err := statFile(outputPath); err != nil {
		return fmt.Errorf("FFmpeg %s 輸出檔不存在: %v", profile.Label, err)
	}
	return nil
}

// discardPartialOutput 移除失敗編碼留下的輸出檔，檔案不存在不算錯
func discardPartialOutput(outputPath string) {
	if err := os.Remove(outputPath); err != nil && !os.IsNotExist(err) {
		logger.Log.Warn(fmt.Sprintf("清理編碼輸出檔失敗[%s]: %v", outputPath, err))
	}
}

// ExtractThumbnail 擷取 00:00:01.000 的影格存成 png
func (e *ffmpegEncoder) ExtractThumbnail(ctx context.Context, inputPath, outputPath string) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmdArgs := []string{
		"-y",
		"-i", inputPath,
		"-ss", "00:00:01.000",
		"-vframes", "1",
		outputPath,
	}
	output, err := runFFmpeg(ctx, cmdArgs)
	if err != nil {
		discardPartialOutput(outputPath)
		return fmt.Errorf("FFmpeg 縮圖擷取錯誤: %v, output: %s", err, string(output))
	}

	if _, err := statFile(outputPath); err != nil {
		return fmt.Errorf("FFmpeg 縮圖輸出檔不存在: %v", err)
	}
	return nil
}
