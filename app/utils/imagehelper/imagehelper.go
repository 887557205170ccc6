// Package imagehelper 处理上传头像的规范化与字幕样式预览图渲染。
package imagehelper

import (
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/colornames"
)

// 头像最长边，超过时等比缩小，避免推理引擎处理过大图片
const maxAvatarSize = 512

// NormalizeAvatar 解码上传的头像（PNG 或 JPEG），矫正方向并限制尺寸，
// 统一以 JPEG 格式保存到 dst。推理引擎只接受 avatar.jpg。
func NormalizeAvatar(r io.Reader, dst string) error {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("解码头像失败: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxAvatarSize || bounds.Dy() > maxAvatarSize {
		img = imaging.Fit(img, maxAvatarSize, maxAvatarSize, imaging.Lanczos)
	}

	if err := imaging.Save(img, dst, imaging.JPEGQuality(90)); err != nil {
		return fmt.Errorf("保存头像失败: %w", err)
	}
	return nil
}

// RenderCaption 按字幕样式把文本渲染为预览图，供人工校对界面展示效果。
// 背景为黑色模拟视频画面，文本居中。
func RenderCaption(text, fontPath string, fontSize int, colorName string, width, height int) (image.Image, error) {
	dc := gg.NewContext(width, height)
	dc.SetRGB(0, 0, 0)
	dc.Clear()

	if err := dc.LoadFontFace(fontPath, float64(fontSize)); err != nil {
		return nil, fmt.Errorf("加载字体失败: %w", err)
	}

	c, ok := colornames.Map[strings.ToLower(colorName)]
	if !ok {
		return nil, fmt.Errorf("未知颜色: %q", colorName)
	}
	dc.SetColor(c)

	dc.DrawStringAnchored(text, float64(width)/2, float64(height)/2, 0.5, 0.5)
	return dc.Image(), nil
}
