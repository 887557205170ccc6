package service

import (
	"fmt"

	"slide-talker/app/config"
	"slide-talker/app/logger"

	"gopkg.in/gomail.v2"
)

// Notifier 任务完成邮件通知。未配置 SMTP 时所有发送都是空操作。
type Notifier struct {
	logger *logger.Logger
	cfg    *config.SMTPConfig
}

// NewNotifier 创建邮件通知器
func NewNotifier(cfg *config.SMTPConfig, log *logger.Logger) *Notifier {
	return &Notifier{
		logger: log,
		cfg:    cfg,
	}
}

// Send 发送完成或失败通知
func (n *Notifier) Send(email, code string, success bool) error {
	if n.cfg.Host == "" {
		n.logger.Debugf("未配置 SMTP，跳过邮件通知: code=%s", code)
		return nil
	}

	subject := "Gen video done!"
	body := fmt.Sprintf("Hi, your video is ready, please download it from: %s/%s", n.cfg.DownloadBase, code)
	if !success {
		subject = "Gen video failed"
		body = "Your video generation has failed"
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.From)
	m.SetHeader("To", email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(n.cfg.Host, n.cfg.Port, n.cfg.Username, n.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}

	n.logger.Infof("通知邮件已发送: code=%s, success=%v", code, success)
	return nil
}
