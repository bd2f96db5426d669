package controller

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"printify_dev_v1_202608/internal/service"
	"printify_dev_v1_202608/pkg/printify"
)

// ==================== 依赖接口 ====================

// PrintifyAPI 控制器直连的供应商操作，*printify.Client 直接满足
type PrintifyAPI interface {
	GetProduct(ctx context.Context, productID string) (*printify.TemplateProduct, error)
	UpdateProduct(ctx context.Context, productID string, patch *printify.ProductPatch) (*printify.TemplateProduct, error)
	PublishToShopify(ctx context.Context, productID string, details *printify.PublishDetails) error
	UploadImageByURL(ctx context.Context, url, fileName string) (*printify.Upload, error)
	UploadImageFile(ctx context.Context, filePath, fileName string) (*printify.Upload, error)
}

// CatalogOps 目录服务操作
type CatalogOps interface {
	CachedProducts(ctx context.Context, publishedOnly bool) ([]service.ProductSummary, error)
	RefreshProducts(ctx context.Context) (int, error)
	ColorVariants(ctx context.Context, blueprintID, printProviderID int) (map[string][]int, error)
}

// DuplicateOps 模板复制操作
type DuplicateOps interface {
	Duplicate(ctx context.Context, templateID, title, description string, tags []string) (*printify.TemplateProduct, error)
}

// ==================== 控制器 ====================

type PrintifyController struct {
	api       PrintifyAPI
	catalog   CatalogOps
	duplicate DuplicateOps
}

func NewPrintifyController(api PrintifyAPI, catalog CatalogOps, duplicate DuplicateOps) *PrintifyController {
	return &PrintifyController{api: api, catalog: catalog, duplicate: duplicate}
}

// vendorStatus 供应商报错时尽量透传原始状态码，排查靠原文
func vendorStatus(err error, fallback int) (int, string) {
	var apiErr *printify.APIError
	if errors.As(err, &apiErr) {
		status := apiErr.Status
		if status < 400 || status > 599 {
			status = 502
		}
		return status, err.Error()
	}
	return fallback, err.Error()
}

// ==================== 查询接口 ====================

// GetProducts 获取商品缓存列表
// @Summary 获取 Printify 商品缓存
// @Tags Printify
// @Param published query bool false "只看已发布"
// @Router /api/printify/products [get]
func (ctrl *PrintifyController) GetProducts(c *gin.Context) {
	publishedOnly := c.Query("published") == "true"

	products, err := ctrl.catalog.CachedProducts(c.Request.Context(), publishedOnly)
	if err != nil {
		c.JSON(500, gin.H{"code": 500, "message": "查询失败: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{"code": 0, "message": "success", "data": products, "total": len(products)})
}

// UpdateCache 全量刷新商品缓存
// @Summary 刷新 Printify 商品缓存
// @Tags Printify
// @Router /api/printify/products/cache/update [post]
func (ctrl *PrintifyController) UpdateCache(c *gin.Context) {
	count, err := ctrl.catalog.RefreshProducts(c.Request.Context())
	if err != nil {
		status, msg := vendorStatus(err, 502)
		c.JSON(status, gin.H{"code": status, "message": "刷新失败: " + msg})
		return
	}

	c.JSON(200, gin.H{"code": 0, "message": "success", "data": gin.H{"count": count}})
}

// Colors 查商品蓝图下的 颜色→变体 映射
// @Summary 获取商品可用颜色
// @Tags Printify
// @Param product_id path string true "商品ID"
// @Router /api/printify/colors/{product_id} [get]
func (ctrl *PrintifyController) Colors(c *gin.Context) {
	productID := c.Param("product_id")

	ctx := c.Request.Context()
	product, err := ctrl.api.GetProduct(ctx, productID)
	if err != nil {
		status, msg := vendorStatus(err, 502)
		c.JSON(status, gin.H{"code": status, "message": "拉取商品失败: " + msg})
		return
	}
	if product.BlueprintID == nil || product.PrintProviderID == nil {
		c.JSON(422, gin.H{"code": 422, "message": "商品缺少 blueprint_id 或 print_provider_id"})
		return
	}

	colors, err := ctrl.catalog.ColorVariants(ctx, *product.BlueprintID, *product.PrintProviderID)
	if err != nil {
		c.JSON(502, gin.H{"code": 502, "message": err.Error()})
		return
	}

	c.JSON(200, gin.H{"code": 0, "message": "success", "data": colors})
}

// ==================== 复制接口 ====================

// DuplicateReq 模板复制请求
type DuplicateReq struct {
	TemplateID  string   `json:"template_id" binding:"required"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// Duplicate 按模板复制新商品
// @Summary 从模板商品复制出一个新商品
// @Tags Printify
// @Router /api/printify/products/duplicate [post]
func (ctrl *PrintifyController) Duplicate(c *gin.Context) {
	var req DuplicateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	created, err := ctrl.duplicate.Duplicate(c.Request.Context(),
		req.TemplateID, req.Title, req.Description, req.Tags)
	if err != nil {
		status, msg := vendorStatus(err, 502)
		c.JSON(status, gin.H{"code": status, "message": msg})
		return
	}

	c.JSON(201, gin.H{"code": 0, "message": "success", "data": gin.H{
		"id":    created.ID,
		"title": created.Title,
	}})
}

// ==================== 设计应用与发布 ====================

// ApplyDesignReq 前图应用请求：二选一给图（本地路径或 URL）
type ApplyDesignReq struct {
	ImageURL  string  `json:"image_url"`
	ImagePath string  `json:"image_path"`
	FileName  string  `json:"file_name"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Scale     float64 `json:"scale"`
	Angle     int     `json:"angle"`
}

// ApplyDesign 把一张设计图铺到商品 FRONT 印刷位（覆盖所有启用变体）
// @Summary 应用设计图到商品正面
// @Tags Printify
// @Param id path string true "商品ID"
// @Router /api/printify/products/{id}/apply_design [post]
func (ctrl *PrintifyController) ApplyDesign(c *gin.Context) {
	productID := c.Param("id")

	var req ApplyDesignReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	if req.ImageURL == "" && req.ImagePath == "" {
		c.JSON(400, gin.H{"code": 400, "message": "image_url 和 image_path 至少给一个"})
		return
	}
	if req.X == 0 {
		req.X = 0.5
	}
	if req.Y == 0 {
		req.Y = 0.5
	}
	if req.Scale == 0 {
		req.Scale = 1.0
	}

	ctx := c.Request.Context()

	var up *printify.Upload
	var err error
	if req.ImageURL != "" {
		up, err = ctrl.api.UploadImageByURL(ctx, req.ImageURL, req.FileName)
	} else {
		up, err = ctrl.api.UploadImageFile(ctx, req.ImagePath, req.FileName)
	}
	if err != nil {
		status, msg := vendorStatus(err, 502)
		c.JSON(status, gin.H{"code": status, "message": "上传设计图失败: " + msg})
		return
	}

	product, err := ctrl.api.GetProduct(ctx, productID)
	if err != nil {
		status, msg := vendorStatus(err, 502)
		c.JSON(status, gin.H{"code": status, "message": "拉取商品失败: " + msg})
		return
	}

	patch := service.EnsureFrontWithImage(product, up.ID, req.X, req.Y, req.Scale, req.Angle)
	updated, err := ctrl.api.UpdateProduct(ctx, productID, patch)
	if err != nil {
		status, msg := vendorStatus(err, 502)
		c.JSON(status, gin.H{"code": status, "message": "更新商品失败: " + msg})
		return
	}

	c.JSON(200, gin.H{"code": 0, "message": "success", "data": gin.H{
		"id":       updated.ID,
		"image_id": up.ID,
	}})
}

// Publish 把商品发布到绑定店面
// @Summary 发布商品
// @Tags Printify
// @Param id path string true "商品ID"
// @Router /api/printify/products/{id}/publish [post]
func (ctrl *PrintifyController) Publish(c *gin.Context) {
	productID := c.Param("id")

	if err := ctrl.api.PublishToShopify(c.Request.Context(), productID, nil); err != nil {
		status, msg := vendorStatus(err, 502)
		c.JSON(status, gin.H{"code": status, "message": "发布失败: " + msg})
		return
	}

	c.JSON(200, gin.H{"code": 0, "message": "success"})
}
