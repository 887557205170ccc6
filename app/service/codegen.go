package service

import (
	"fmt"
	"math/rand"
	"time"
)

const codeCharset = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateCode 生成未被占用的任务码。
// 随机部分叠加时间戳推导的偏移量以降低并发碰撞概率，
// 生成后仍会查库确认，碰撞时重新生成。持续碰撞意味着存储异常，由存储错误中断。
func GenerateCode(store *TaskStore) (string, error) {
	for {
		code := randomCode()
		exists, err := store.Exists(code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
}

// randomCode 生成 5 位随机字母数字加 3 位时间戳后缀的任务码
func randomCode() string {
	nano := time.Now().UnixNano()
	offset := int((nano % 93229) * (int64(rand.Intn(93229)) % 93229) % int64(len(codeCharset)))

	buf := make([]byte, 5)
	for i := range buf {
		buf[i] = codeCharset[(rand.Intn(len(codeCharset))+offset)%len(codeCharset)]
	}
	return fmt.Sprintf("%s%03d", buf, nano%1000)
}
