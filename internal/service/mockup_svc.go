package service

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// ==================== 样机合成 ====================

// MockupTemplate 一张平铺样机底图和设计稿的摆放区域
type MockupTemplate struct {
	Name string `json:"name"`
	Path string `json:"path"`

	// 摆放框（底图像素坐标），设计稿等比缩放后贴在框中心
	BoxX      int     `json:"box_x"`
	BoxY      int     `json:"box_y"`
	BoxWidth  int     `json:"box_width"`
	BoxHeight int     `json:"box_height"`
	Scale     float64 `json:"scale"` // 相对摆放框的缩放，缺省 1.0
}

// MockupService 平铺样机合成：设计稿 PNG 贴进 T 恤底图
type MockupService struct {
	outputDir string
}

// NewMockupService 创建样机服务
func NewMockupService(outputDir string) (*MockupService, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("创建样机输出目录失败: %w", err)
	}
	return &MockupService{outputDir: outputDir}, nil
}

// Composite 把一张设计稿合成到一组样机底图上，返回输出文件路径
func (s *MockupService) Composite(designPath string, templates []MockupTemplate) ([]string, error) {
	if len(templates) == 0 {
		return nil, fmt.Errorf("没有可用的样机模板")
	}

	design, err := imaging.Open(designPath)
	if err != nil {
		return nil, fmt.Errorf("打开设计稿失败: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(designPath), filepath.Ext(designPath))
	out := make([]string, 0, len(templates))
	for _, tpl := range templates {
		outPath := filepath.Join(s.outputDir, fmt.Sprintf("%s_%s.png", base, tpl.Name))
		if err := s.compositeOne(design, tpl, outPath); err != nil {
			return nil, fmt.Errorf("合成样机 %s 失败: %w", tpl.Name, err)
		}
		out = append(out, outPath)
	}
	return out, nil
}

func (s *MockupService) compositeOne(design image.Image, tpl MockupTemplate, outPath string) error {
	backdrop, err := imaging.Open(tpl.Path)
	if err != nil {
		return fmt.Errorf("打开底图失败: %w", err)
	}

	if tpl.BoxWidth <= 0 || tpl.BoxHeight <= 0 {
		return fmt.Errorf("摆放框尺寸非法: %dx%d", tpl.BoxWidth, tpl.BoxHeight)
	}
	scale := tpl.Scale
	if scale <= 0 || scale > 1 {
		scale = 1.0
	}

	fitted := fitInBox(design, int(float64(tpl.BoxWidth)*scale), int(float64(tpl.BoxHeight)*scale))

	// 贴在摆放框中心
	offsetX := tpl.BoxX + (tpl.BoxWidth-fitted.Bounds().Dx())/2
	offsetY := tpl.BoxY + (tpl.BoxHeight-fitted.Bounds().Dy())/2
	composed := imaging.Overlay(backdrop, fitted, image.Pt(offsetX, offsetY), 1.0)

	if err := imaging.Save(composed, outPath); err != nil {
		return fmt.Errorf("保存样机失败: %w", err)
	}
	return nil
}

// fitInBox 等比缩放到不超过 maxW×maxH；小图不放大
func fitInBox(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxW && b.Dy() <= maxH {
		return img
	}
	return imaging.Fit(img, maxW, maxH, imaging.Lanczos)
}
