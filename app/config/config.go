package config

import (
	"fmt"
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	JWT     JWTConfig     `mapstructure:"jwt"`
	Engine  EngineConfig  `mapstructure:"engine"`
	SMTP    SMTPConfig    `mapstructure:"smtp"`
	Storage StorageConfig `mapstructure:"storage"`
	Queue   QueueConfig   `mapstructure:"queue"`
}

type ServerConfig struct {
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`      // json 或 text
	Output     string `mapstructure:"output"`      // stdout 或 file
	Dir        string `mapstructure:"dir"`         // 日志文件目录
	MaxSize    int    `mapstructure:"max_size"`    // 兆字节
	MaxBackups int    `mapstructure:"max_backups"` // 备份数量
	MaxAge     int    `mapstructure:"max_age"`     // 天数
	Compress   bool   `mapstructure:"compress"`    // 是否压缩旧文件
}

type JWTConfig struct {
	Secret     string `mapstructure:"secret"`      // JWT 密钥
	ExpireTime int    `mapstructure:"expire_time"` // 过期时间（小时）
	Issuer     string `mapstructure:"issuer"`      // 签发者
}

// EngineConfig 外部推理引擎配置
type EngineConfig struct {
	URL     string `mapstructure:"url"`     // 引擎服务地址
	Timeout int    `mapstructure:"timeout"` // 单次调用超时（秒）
}

// SMTPConfig 邮件通知配置，Host 为空时不发送邮件
type SMTPConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	From         string `mapstructure:"from"`
	DownloadBase string `mapstructure:"download_base"` // 下载链接前缀
}

type StorageConfig struct {
	WorkDir       string `mapstructure:"work_dir"`       // 任务工作目录根路径
	RetentionDays int    `mapstructure:"retention_days"` // 任务保留天数
}

type QueueConfig struct {
	SynthesisCapacity int  `mapstructure:"synthesis_capacity"` // 合成队列容量
	MergeCapacity     int  `mapstructure:"merge_capacity"`     // 字幕合并队列容量
	RequeueOnPending  bool `mapstructure:"requeue_on_pending"` // 合并条件未满足时重新入队
	RequeueDelay      int  `mapstructure:"requeue_delay"`      // 重新入队延迟（秒）
}

func Load() *Config {
	setDefaults()

	// 读取配置
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("未找到配置文件，使用默认配置")
		} else {
			log.Fatalf("读取配置文件出错: %v", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		log.Fatalf("无法解码配置: %v", err)
	}

	// 验证配置
	if err := validateConfig(&config); err != nil {
		log.Fatalf("配置验证失败: %v", err)
	}

	return &config
}

// setDefaults 设置默认配置
func setDefaults() {
	viper.SetDefault("server.port", "8000")

	// 日志默认配置
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.dir", "data/logs")
	viper.SetDefault("log.max_size", 100)
	viper.SetDefault("log.max_backups", 3)
	viper.SetDefault("log.max_age", 28)
	viper.SetDefault("log.compress", true)

	// JWT默认配置
	viper.SetDefault("jwt.secret", "your-secret-key-change-in-production")
	viper.SetDefault("jwt.expire_time", 24) // 24小时
	viper.SetDefault("jwt.issuer", "slide-talker")

	// 推理引擎默认配置
	viper.SetDefault("engine.url", "http://localhost:5000")
	viper.SetDefault("engine.timeout", 600)

	// 邮件默认配置
	viper.SetDefault("smtp.port", 587)
	viper.SetDefault("smtp.download_base", "http://localhost:3000")

	// 存储默认配置
	viper.SetDefault("storage.work_dir", "data/tmp")
	viper.SetDefault("storage.retention_days", 7)

	// 队列默认配置
	viper.SetDefault("queue.synthesis_capacity", 100)
	viper.SetDefault("queue.merge_capacity", 100)
	viper.SetDefault("queue.requeue_on_pending", false)
	viper.SetDefault("queue.requeue_delay", 30)
}

// validateConfig 验证配置的有效性
func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("服务器端口未设置")
	}
	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT密钥未设置")
	}
	if config.Engine.URL == "" {
		return fmt.Errorf("推理引擎地址未设置")
	}
	if config.Storage.RetentionDays <= 0 {
		return fmt.Errorf("任务保留天数必须大于 0")
	}
	return nil
}
