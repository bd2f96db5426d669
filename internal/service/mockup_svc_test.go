package service

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

func writeTestPNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := imaging.New(w, h, c)
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("写测试图失败: %v", err)
	}
}

func TestMockupService_Composite(t *testing.T) {
	dir := t.TempDir()
	designPath := filepath.Join(dir, "fuji.png")
	tplPath := filepath.Join(dir, "tee_black.png")
	writeTestPNG(t, designPath, 400, 200, color.NRGBA{R: 255, A: 255})
	writeTestPNG(t, tplPath, 1000, 1200, color.NRGBA{A: 255})

	svc, err := NewMockupService(filepath.Join(dir, "out"))
	if err != nil {
		t.Fatal(err)
	}

	paths, err := svc.Composite(designPath, []MockupTemplate{{
		Name: "black", Path: tplPath,
		BoxX: 300, BoxY: 350, BoxWidth: 400, BoxHeight: 500,
	}})
	if err != nil {
		t.Fatalf("合成失败: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("输出数量: %d", len(paths))
	}

	// 输出尺寸与底图一致
	composed, err := imaging.Open(paths[0])
	if err != nil {
		t.Fatalf("打开合成结果失败: %v", err)
	}
	if composed.Bounds().Dx() != 1000 || composed.Bounds().Dy() != 1200 {
		t.Errorf("合成尺寸: %v", composed.Bounds())
	}

	// 摆放框中心应被设计稿覆盖（红色），框外保持底色（黑色）
	nrgba := imaging.Clone(composed)
	center := nrgba.NRGBAAt(300+200, 350+250)
	if center.R < 200 {
		t.Errorf("框中心应是设计稿颜色: %+v", center)
	}
	corner := nrgba.NRGBAAt(10, 10)
	if corner.R > 50 {
		t.Errorf("框外不应被覆盖: %+v", corner)
	}
}

func TestMockupService_FitKeepsAspect(t *testing.T) {
	// 400x200 的设计稿塞进 100x100 的框：等比缩放到 100x50
	img := imaging.New(400, 200, color.NRGBA{A: 255})
	fitted := fitInBox(img, 100, 100)
	if fitted.Bounds().Dx() != 100 || fitted.Bounds().Dy() != 50 {
		t.Errorf("等比缩放: %v", fitted.Bounds())
	}

	// 小图不放大
	small := imaging.New(40, 30, color.NRGBA{A: 255})
	kept := fitInBox(small, 100, 100)
	if kept.Bounds() != image.Rect(0, 0, 40, 30) {
		t.Errorf("小图被放大: %v", kept.Bounds())
	}
}

func TestMockupService_Errors(t *testing.T) {
	dir := t.TempDir()
	designPath := filepath.Join(dir, "d.png")
	writeTestPNG(t, designPath, 10, 10, color.NRGBA{A: 255})

	svc, err := NewMockupService(dir)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Composite(designPath, nil); err == nil {
		t.Error("无模板应报错")
	}
	if _, err := svc.Composite(filepath.Join(dir, "ghost.png"), []MockupTemplate{{Name: "x", Path: designPath, BoxWidth: 10, BoxHeight: 10}}); err == nil {
		t.Error("设计稿不存在应报错")
	}
	if _, err := svc.Composite(designPath, []MockupTemplate{{Name: "x", Path: designPath, BoxWidth: 0, BoxHeight: 10}}); err == nil {
		t.Error("非法摆放框应报错")
	}
}
