package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"printify_dev_v1_202608/pkg/printify"
)

// ==================== 外部依赖接口 ====================
// 按操作拆小接口，复制流程的三步在测试里可以分别替换

// TemplateSource 模板读取
type TemplateSource interface {
	GetProduct(ctx context.Context, productID string) (*printify.TemplateProduct, error)
}

// MediaUploader 媒体重传：把模板引用的图按 URL 收进自己的媒体库
type MediaUploader interface {
	UploadImageByURL(ctx context.Context, url, fileName string) (*printify.Upload, error)
}

// ProductCreator 商品创建
type ProductCreator interface {
	CreateProduct(ctx context.Context, payload *printify.CreationPayload) (*printify.TemplateProduct, error)
}

// PrintifyGateway 三步合一，*printify.Client 直接满足
type PrintifyGateway interface {
	TemplateSource
	MediaUploader
	ProductCreator
}

// ==================== 服务 ====================

// DuplicateService 模板复制服务
// 核心职责：把任意形状的模板商品归一化成合法的最小创建负载，
// 过程中把所有可取回的图片重传进媒体库，并保持变体-印刷区的覆盖关系
type DuplicateService struct {
	source   TemplateSource
	uploader MediaUploader
	creator  ProductCreator
}

// NewDuplicateService 创建复制服务
func NewDuplicateService(gateway PrintifyGateway) *DuplicateService {
	return &DuplicateService{
		source:   gateway,
		uploader: gateway,
		creator:  gateway,
	}
}

var hex6Pattern = regexp.MustCompile(`^[0-9A-Fa-f]{6}$`)

// ==================== 复制入口 ====================

// Duplicate 按模板复制出一个新商品：拉取 → 归一化（含图片重传）→ 创建
// 任何一步失败整个复制终止，不会留下半成品
func (s *DuplicateService) Duplicate(ctx context.Context, templateID, title, description string, tags []string) (*printify.TemplateProduct, error) {
	tpl, err := s.source.GetProduct(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("拉取模板商品失败: %w", err)
	}

	if title == "" {
		title = strings.TrimSpace(firstNonEmpty(tpl.Title, tpl.Name) + " (Copy)")
	}
	if description == "" {
		description = tpl.Description
	}

	payload, err := s.Normalize(ctx, tpl, title, description, tags)
	if err != nil {
		return nil, err
	}

	created, err := s.creator.CreateProduct(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("创建商品失败: %w", err)
	}
	return created, nil
}

// Normalize 把模板归一化成最小创建负载
// 前置校验在任何网络调用之前完成；图片重传失败直接向上传播
func (s *DuplicateService) Normalize(ctx context.Context, tpl *printify.TemplateProduct, title, description string, tags []string) (*printify.CreationPayload, error) {
	if tpl == nil {
		return nil, fmt.Errorf("模板为空")
	}
	if tpl.BlueprintID == nil || tpl.PrintProviderID == nil {
		return nil, fmt.Errorf("模板缺少 blueprint_id 或 print_provider_id，无法复制")
	}
	if len(tpl.Variants) == 0 {
		return nil, fmt.Errorf("模板缺少 variants，无法复制")
	}

	printAreas, err := s.slimPrintAreas(ctx, tpl.PrintAreas)
	if err != nil {
		return nil, err
	}

	outTags := tags
	if len(outTags) == 0 {
		outTags = tpl.Tags
	}
	if outTags == nil {
		outTags = []string{}
	}

	return &printify.CreationPayload{
		BlueprintID:     *tpl.BlueprintID,
		PrintProviderID: *tpl.PrintProviderID,
		Title:           title,
		Description:     description,
		Tags:            outTags,
		Variants:        slimVariants(tpl.Variants),
		PrintAreas:      printAreas,
	}, nil
}

// ==================== 变体瘦身 ====================

// slimVariants 变体瘦身：只保留 id / price / is_enabled
// 输出中恰好一个变体带 is_default：输入里第一个标了 is_default 的；
// 谁都没标就取第一个。数字解析失败按 0 处理，上游噪声不拖垮整单
func slimVariants(in []printify.TemplateVariant) []printify.PayloadVariant {
	defaultIdx := 0
	for i, v := range in {
		if v.IsDefault {
			defaultIdx = i
			break
		}
	}

	out := make([]printify.PayloadVariant, 0, len(in))
	for i, v := range in {
		out = append(out, printify.PayloadVariant{
			ID:        v.ID.Or(0),
			Price:     v.Price.Or(0),
			IsEnabled: v.Enabled(),
			IsDefault: i == defaultIdx,
		})
	}
	return out
}

// ==================== 印刷区瘦身 ====================

func (s *DuplicateService) slimPrintAreas(ctx context.Context, in []printify.TemplatePrintArea) ([]printify.PayloadPrintArea, error) {
	out := make([]printify.PayloadPrintArea, 0, len(in))
	for _, pa := range in {
		placeholders, err := s.slimPlaceholders(ctx, pa.Placeholders)
		if err != nil {
			return nil, err
		}
		// 校验器拒绝空印刷区，整块丢弃
		if len(placeholders) == 0 {
			continue
		}

		entry := printify.PayloadPrintArea{
			VariantIDs:   coerceVariantIDs(pa.VariantIDs),
			Placeholders: placeholders,
		}
		// background 只在是 6 位十六进制时保留，坏值静默丢弃（纯装饰字段，不值得让整单失败）
		if bg := pa.Background.String(); hex6Pattern.MatchString(bg) {
			entry.Background = strings.ToUpper(bg)
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *DuplicateService) slimPlaceholders(ctx context.Context, in []printify.TemplatePlaceholder) ([]printify.PayloadPlaceholder, error) {
	out := make([]printify.PayloadPlaceholder, 0, len(in))
	for _, ph := range in {
		images := make([]printify.PayloadImage, 0, len(ph.Images))
		for _, img := range ph.Images {
			src := img.SourceURL()
			if src == "" {
				// 模板内置素材没有可取回的源文件，静默跳过
				continue
			}
			up, err := s.uploader.UploadImageByURL(ctx, src, img.FileName())
			if err != nil {
				return nil, fmt.Errorf("重传图片失败 (%s): %w", src, err)
			}
			images = append(images, printify.PayloadImage{
				ID:    up.ID,
				X:     img.X.Or(0.5),
				Y:     img.Y.Or(0.5),
				Scale: img.Scale.Or(1.0),
				Angle: img.Angle.RoundInt(0),
			})
		}
		// 校验器拒绝零图印刷位
		if len(images) == 0 {
			continue
		}

		position := ph.Position
		if position == "" {
			position = "front"
		}
		entry := printify.PayloadPlaceholder{Position: position, Images: images}
		if dm := ph.DecorationMethod.String(); dm != "" {
			entry.DecorationMethod = dm
		}
		out = append(out, entry)
	}
	return out, nil
}

func coerceVariantIDs(in []printify.FlexInt) []int {
	out := make([]int, 0, len(in))
	for _, id := range in {
		out = append(out, id.Or(0))
	}
	return out
}

// ==================== 前图应用 ====================

// EnsureFrontWithImage 生成一个只改 FRONT 印刷位的最小更新负载
// 覆盖商品上所有启用变体
func EnsureFrontWithImage(tpl *printify.TemplateProduct, imageID string, x, y, scale float64, angle int) *printify.ProductPatch {
	enabled := make([]int, 0, len(tpl.Variants))
	for _, v := range tpl.Variants {
		if v.Enabled() {
			enabled = append(enabled, v.ID.Or(0))
		}
	}

	return &printify.ProductPatch{
		PrintAreas: []printify.PayloadPrintArea{{
			VariantIDs: enabled,
			Placeholders: []printify.PayloadPlaceholder{{
				Position: "front",
				Images: []printify.PayloadImage{{
					ID:    imageID,
					X:     x,
					Y:     y,
					Scale: scale,
					Angle: angle,
				}},
			}},
		}},
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
