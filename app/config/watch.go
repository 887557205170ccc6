package config

import (
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// LevelSetter 支持运行时调整日志级别的接口
type LevelSetter interface {
	SetLevel(level string)
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
}

// Watch 监听配置文件变更，目前只支持热更新日志级别。
// 其余配置项（端口、队列容量等）在进程生命周期内固定。
func Watch(log LevelSetter) {
	viper.OnConfigChange(func(e fsnotify.Event) {
		log.Infof("检测到配置文件变更: %s", e.Name)

		var config Config
		if err := viper.Unmarshal(&config); err != nil {
			log.Warnf("重新解码配置失败，忽略本次变更: %v", err)
			return
		}

		log.SetLevel(config.Log.Level)
		log.Infof("日志级别已更新为: %s", config.Log.Level)
	})
	viper.WatchConfig()
}
