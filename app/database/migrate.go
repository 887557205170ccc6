package database

import "slide-talker/app/model"

func AutoMigrate() error {
	// 自动迁移表结构
	return DB.AutoMigrate(
		&model.Task{},
		&model.User{},
	)
}
