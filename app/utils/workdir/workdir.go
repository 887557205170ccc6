// Package workdir 管理按任务码划分的工作目录。
// 所有路径都由 (根目录, 任务码) 推导，不单独存储，清理因此只依赖任务码。
package workdir

import (
	"fmt"
	"os"
	"path/filepath"
)

// 工作目录内的固定文件名
const (
	VideoFile              = "video.mp4"
	AvatarFile             = "avatar.jpg"
	AudioFile              = "audio.wav"
	GenDir                 = "gen" // 头像合成分段输出目录
	AvatarVideoFile        = "avatar_video.mp4"
	ResultFile             = "result.mp4"
	CaptionsFile           = "captions.srt"
	ResultWithCaptionsFile = "result_with_captions.mp4"
)

// 最终交付物，清理中间产物时保留
var deliverables = map[string]bool{
	ResultFile:             true,
	ResultWithCaptionsFile: true,
}

// Arena 按任务码划分的工作目录
type Arena struct {
	root string
}

// New 创建工作目录管理器
func New(root string) *Arena {
	return &Arena{root: root}
}

// Root 返回根目录
func (a *Arena) Root() string {
	return a.root
}

// Dir 返回任务的工作目录路径
func (a *Arena) Dir(code string) string {
	return filepath.Join(a.root, code)
}

// Path 返回任务目录下指定文件的路径
func (a *Arena) Path(code, name string) string {
	return filepath.Join(a.root, code, name)
}

// CreateDir 创建任务的工作目录
func (a *Arena) CreateDir(code string) error {
	if err := os.MkdirAll(a.Dir(code), 0755); err != nil {
		return fmt.Errorf("创建任务目录失败: %w", err)
	}
	return nil
}

// EnsureGen 创建并返回分段输出目录
func (a *Arena) EnsureGen(code string) (string, error) {
	dir := a.Path(code, GenDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("创建分段输出目录失败: %w", err)
	}
	return dir, nil
}

// Exists 判断任务目录下指定文件是否存在
func (a *Arena) Exists(code, name string) bool {
	_, err := os.Stat(a.Path(code, name))
	return err == nil
}

// CleanupScratch 删除任务目录下除最终交付物以外的所有文件与子目录。
// 单个条目删除失败即返回错误，由调用方记录日志。
func (a *Arena) CleanupScratch(code string) error {
	dir := a.Dir(code)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("读取任务目录失败: %w", err)
	}

	for _, entry := range entries {
		if deliverables[entry.Name()] {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return fmt.Errorf("删除中间产物 %s 失败: %w", entry.Name(), err)
		}
	}
	return nil
}

// Remove 删除整个任务目录，目录不存在时视为成功
func (a *Arena) Remove(code string) error {
	dir := a.Dir(code)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}
	return os.RemoveAll(dir)
}
