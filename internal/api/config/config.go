package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例
var Cfg *Config

// LoadConfig 从文件加载配置并填充到 Cfg，VITRIN_ 前缀的环境变量可覆盖文件中的值
func LoadConfig() error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.SetEnvPrefix("VITRIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("config file not found: %w", err)
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	Cfg = &cfg

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.max_upload_mb", 200)
	v.SetDefault("minio.presign_minutes", 60)
	v.SetDefault("mongo.timeout", 10)
	v.SetDefault("jwt.expire_hours", 24)
	v.SetDefault("jwt.issuer", "vitrin")
	v.SetDefault("notify.timeout", 5)
	v.SetDefault("editor.draft_ttl_hours", 6)
	v.SetDefault("editor.upload_workers", 4)
	v.SetDefault("kafka_listing_consumer.batch_size", 100)
	v.SetDefault("elastic.indices.listing_index", "listings")
}
