package config

import "time"

// Media definition media_service YAML structure
type Media struct {
	Port string `mapstructure:"port"`
	IP   string `mapstructure:"ip"`

	Mongo     DatabaseConfig  `mapstructure:"mongo"`
	Redis     RedisConfig     `mapstructure:"redis"`
	MinIO     MinIOConfig     `mapstructure:"minio"`
	RabbitMQ  RabbitMQConfig  `mapstructure:"rabbitmq"`
	Transcode TranscodeConfig `mapstructure:"transcode"`
}

// RedisConfig definition redis setting
type RedisConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	RedisDB int    `mapstructure:"redis_db"`
}

// DatabaseConfig definition db setting
type DatabaseConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Database      string `mapstructure:"database"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}

// MinIOConfig definition minio setting
type MinIOConfig struct {
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	User          string        `mapstructure:"user"`
	Password      string        `mapstructure:"password"`
	BucketName    string        `mapstructure:"bucket_name"`
	UseSSL        bool          `mapstructure:"use_ssl"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
	RetryCount    int           `mapstructure:"retry_count"`
}

// RabbitMQConfig definition rabbitmq setting
type RabbitMQConfig struct {
	IP            string        `mapstructure:"ip"`
	Port          string        `mapstructure:"port"`
	User          string        `mapstructure:"user"`
	Password      string        `mapstructure:"password"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
	RetryCount    int           `mapstructure:"retry_count"`
}

// TranscodeConfig definition 轉碼管線設定
type TranscodeConfig struct {
	// ScratchDir 每次 ingestion 的本地暫存目錄
	ScratchDir string `mapstructure:"scratch_dir"`
	// WorkerLimit 單次 ingestion 同時進行的編碼數上限
	WorkerLimit int `mapstructure:"worker_limit"`
	// EncodeTimeoutSec 單一編碼呼叫的逾時秒數
	EncodeTimeoutSec int `mapstructure:"encode_timeout_sec"`
	// PresignExpirySec 簽名 URL 的有效秒數
	PresignExpirySec int `mapstructure:"presign_expiry_sec"`
	// StorageTimeoutSec 單次物件儲存呼叫的逾時秒數
	StorageTimeoutSec int `mapstructure:"storage_timeout_sec"`
	// CacheTTLSec access gateway 的影片記錄快取秒數
	CacheTTLSec int `mapstructure:"cache_ttl_sec"`
}
