package service

import (
	"errors"
	"fmt"
	"time"

	"slide-talker/app/model"

	"gorm.io/gorm"
)

// ErrTaskNotFound 任务不存在
var ErrTaskNotFound = errors.New("任务不存在")

// TaskStore 任务存储。视频协程与字幕提交路径会并发更新同一行的不同字段，
// 所有写操作都按单个字段更新，避免整行覆盖造成丢失。
type TaskStore struct {
	db *gorm.DB
}

// NewTaskStore 创建任务存储
func NewTaskStore(db *gorm.DB) *TaskStore {
	return &TaskStore{db: db}
}

// Insert 创建任务行。未请求字幕时 subs_status 直接置为 Finish（视为已满足），
// 否则为 Processing，等待人工确认字幕。
func (s *TaskStore) Insert(code string, captionsRequested bool) error {
	subsStatus := model.StatusFinish
	if captionsRequested {
		subsStatus = model.StatusProcessing
	}

	task := model.Task{
		Code:        code,
		Status:      model.StatusProcessing,
		VideoStatus: model.StatusProcessing,
		SubsStatus:  subsStatus,
		Date:        Today(),
	}
	if err := s.db.Create(&task).Error; err != nil {
		return fmt.Errorf("创建任务失败: %w", err)
	}
	return nil
}

// GetStatus 查询总状态
func (s *TaskStore) GetStatus(code string) (model.Status, error) {
	var task model.Task
	if err := s.db.Select("status").Where("code = ?", code).Take(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrTaskNotFound
		}
		return "", fmt.Errorf("查询任务状态失败: %w", err)
	}
	return task.Status, nil
}

// GetTask 查询完整任务
func (s *TaskStore) GetTask(code string) (*model.Task, error) {
	var task model.Task
	if err := s.db.Where("code = ?", code).Take(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("查询任务失败: %w", err)
	}
	return &task, nil
}

// SetStatus 写入终态。总状态只允许从 Processing 进入 Finish/Fail 一次，
// 之后的写入不生效，保证终态不被回退或改写。
// 任务不存在时返回 ErrTaskNotFound，已处于终态时静默成功。
func (s *TaskStore) SetStatus(code string, status model.Status) error {
	result := s.db.Model(&model.Task{}).
		Where("code = ? AND status = ?", code, model.StatusProcessing).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("更新任务状态失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return s.checkExists(code)
	}
	return nil
}

// SetVideoStatus 更新视频合成子状态，同样只允许从 Processing 前进
func (s *TaskStore) SetVideoStatus(code string, status model.Status) error {
	result := s.db.Model(&model.Task{}).
		Where("code = ? AND video_status = ?", code, model.StatusProcessing).
		Update("video_status", status)
	if result.Error != nil {
		return fmt.Errorf("更新视频状态失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return s.checkExists(code)
	}
	return nil
}

// SetSubsStatus 更新字幕子状态
func (s *TaskStore) SetSubsStatus(code string, status model.Status) error {
	result := s.db.Model(&model.Task{}).
		Where("code = ? AND subs_status = ?", code, model.StatusProcessing).
		Update("subs_status", status)
	if result.Error != nil {
		return fmt.Errorf("更新字幕状态失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return s.checkExists(code)
	}
	return nil
}

// checkExists 区分「行不存在」与「状态守卫未命中」：
// 前者返回 ErrTaskNotFound，后者是终态不可改写的正常结果。
func (s *TaskStore) checkExists(code string) error {
	exists, err := s.Exists(code)
	if err != nil {
		return err
	}
	if !exists {
		return ErrTaskNotFound
	}
	return nil
}

// SetEmail 设置通知邮箱，任务终结后不再接受
func (s *TaskStore) SetEmail(code, email string) error {
	result := s.db.Model(&model.Task{}).
		Where("code = ? AND status = ?", code, model.StatusProcessing).
		Update("email", email)
	if result.Error != nil {
		return fmt.Errorf("更新邮箱失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// GetEmail 查询通知邮箱，未设置时返回 nil
func (s *TaskStore) GetEmail(code string) (*string, error) {
	var task model.Task
	if err := s.db.Select("email").Where("code = ?", code).Take(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("查询邮箱失败: %w", err)
	}
	return task.Email, nil
}

// SetSubtitles 保存人工确认后的字幕
func (s *TaskStore) SetSubtitles(code string, subtitles model.SubtitleList) error {
	result := s.db.Model(&model.Task{}).
		Where("code = ?", code).
		Update("subtitles", subtitles)
	if result.Error != nil {
		return fmt.Errorf("更新字幕失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// GetSubtitles 读取字幕
func (s *TaskStore) GetSubtitles(code string) (model.SubtitleList, error) {
	task, err := s.GetTask(code)
	if err != nil {
		return nil, err
	}
	return task.Subtitles, nil
}

// Exists 判断任务码是否已被占用
func (s *TaskStore) Exists(code string) (bool, error) {
	var count int64
	if err := s.db.Model(&model.Task{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, fmt.Errorf("查询任务码失败: %w", err)
	}
	return count > 0, nil
}

// Delete 删除任务行
func (s *TaskStore) Delete(code string) error {
	if err := s.db.Where("code = ?", code).Delete(&model.Task{}).Error; err != nil {
		return fmt.Errorf("删除任务失败: %w", err)
	}
	return nil
}

// FindOlderThan 查询创建日期不晚于 cutoff 的任务码（边界含当天）
func (s *TaskStore) FindOlderThan(cutoff time.Time) ([]string, error) {
	var codes []string
	if err := s.db.Model(&model.Task{}).Where("date <= ?", cutoff).Pluck("code", &codes).Error; err != nil {
		return nil, fmt.Errorf("按日期查询任务失败: %w", err)
	}
	return codes, nil
}

// Today 返回本地时区当天零点，任务日期按天存储
func Today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
