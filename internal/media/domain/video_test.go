package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// 測試 Principal 權限判斷
func TestPrincipalIsAdmin(t *testing.T) {
	t.Run("Admin群組", func(t *testing.T) {
		p := Principal{ID: "u1", Groups: []string{"Editors", "Admin"}}
		assert.True(t, p.IsAdmin())
	})

	t.Run("非Admin群組", func(t *testing.T) {
		p := Principal{ID: "u1", Groups: []string{"Editors"}}
		assert.False(t, p.IsAdmin())
	})

	t.Run("沒有群組", func(t *testing.T) {
		p := Principal{ID: "u1"}
		assert.False(t, p.IsAdmin())
	})

	t.Run("群組名稱大小寫敏感", func(t *testing.T) {
		p := Principal{ID: "u1", Groups: []string{"admin"}}
		assert.False(t, p.IsAdmin())
	})
}

// 測試 VideoAsset 的 object key 收集
func TestVideoAssetAllObjectKeys(t *testing.T) {
	t.Run("完整記錄", func(t *testing.T) {
		v := &VideoAsset{
			SourceKey: "videos/src",
			RenditionKeys: map[string]string{
				string(Quality1080p): "videos/1080",
				string(Quality720p):  "videos/720",
			},
			ThumbnailKey: "thumbnails/t",
		}
		assert.ElementsMatch(t,
			[]string{"videos/src", "videos/1080", "videos/720", "thumbnails/t"},
			v.AllObjectKeys())
	})

	t.Run("沒有縮圖", func(t *testing.T) {
		v := &VideoAsset{SourceKey: "videos/src"}
		assert.Equal(t, []string{"videos/src"}, v.AllObjectKeys())
	})
}

// 測試固定轉碼設定表
func TestDefaultProfiles(t *testing.T) {
	labels := make([]QualityLabel, 0, len(DefaultProfiles))
	for _, p := range DefaultProfiles {
		labels = append(labels, p.Label)
	}
	// 設定表的標籤與高度是對外介面的一部分
	assert.Equal(t, []QualityLabel{Quality1080p, Quality720p, Quality480p}, labels)
	for _, p := range DefaultProfiles {
		assert.Greater(t, p.Height, 0)
	}
}
