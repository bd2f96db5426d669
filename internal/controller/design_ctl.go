package controller

import (
	"context"

	"github.com/gin-gonic/gin"

	"printify_dev_v1_202608/internal/service"
)

// ==================== 依赖接口 ====================

// ListingAI 文案与配色生成
type ListingAI interface {
	GenerateListingContent(ctx context.Context, designSlug, designTitle string, persona *service.Persona) (*service.ListingContent, error)
	SuggestColors(ctx context.Context, designSlug, designTitle string, available []string, count int) ([]string, error)
}

// MockupComposer 样机合成
type MockupComposer interface {
	Composite(designPath string, templates []service.MockupTemplate) ([]string, error)
}

// ==================== 控制器 ====================

type DesignController struct {
	designs  *service.DesignService
	personas *service.PersonaService
	ai       ListingAI
	mockups  MockupComposer
	catalog  CatalogOps
}

func NewDesignController(
	designs *service.DesignService,
	personas *service.PersonaService,
	ai ListingAI,
	mockups MockupComposer,
	catalog CatalogOps,
) *DesignController {
	return &DesignController{
		designs:  designs,
		personas: personas,
		ai:       ai,
		mockups:  mockups,
		catalog:  catalog,
	}
}

// ==================== CRUD ====================

// List 设计稿列表
// @Summary 获取全部设计稿
// @Tags Design
// @Router /api/designs [get]
func (ctrl *DesignController) List(c *gin.Context) {
	designs, err := ctrl.designs.List()
	if err != nil {
		c.JSON(500, gin.H{"code": 500, "message": "查询失败: " + err.Error()})
		return
	}
	c.JSON(200, gin.H{"code": 0, "message": "success", "data": designs, "total": len(designs)})
}

// Create 新建设计稿
// @Summary 新建设计稿
// @Tags Design
// @Router /api/designs [post]
func (ctrl *DesignController) Create(c *gin.Context) {
	var d service.Design
	if err := c.ShouldBindJSON(&d); err != nil {
		c.JSON(400, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	created, err := ctrl.designs.Create(&d)
	if err != nil {
		c.JSON(400, gin.H{"code": 400, "message": err.Error()})
		return
	}
	c.JSON(201, gin.H{"code": 0, "message": "success", "data": created})
}

// Get 设计稿详情
// @Summary 获取单个设计稿
// @Tags Design
// @Param slug path string true "设计稿标识"
// @Router /api/designs/{slug} [get]
func (ctrl *DesignController) Get(c *gin.Context) {
	d, err := ctrl.designs.Get(c.Param("slug"))
	if err != nil {
		c.JSON(500, gin.H{"code": 500, "message": err.Error()})
		return
	}
	if d == nil {
		c.JSON(404, gin.H{"code": 404, "message": "设计稿不存在"})
		return
	}
	c.JSON(200, gin.H{"code": 0, "message": "success", "data": d})
}

// Update 部分更新
// @Summary 更新设计稿
// @Tags Design
// @Param slug path string true "设计稿标识"
// @Router /api/designs/{slug} [put]
func (ctrl *DesignController) Update(c *gin.Context) {
	var patch map[string]interface{}
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(400, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	d, err := ctrl.designs.Update(c.Param("slug"), patch)
	if err != nil {
		c.JSON(404, gin.H{"code": 404, "message": err.Error()})
		return
	}
	c.JSON(200, gin.H{"code": 0, "message": "success", "data": d})
}

// Delete 删除设计稿
// @Summary 删除设计稿
// @Tags Design
// @Param slug path string true "设计稿标识"
// @Router /api/designs/{slug} [delete]
func (ctrl *DesignController) Delete(c *gin.Context) {
	removed, err := ctrl.designs.Delete(c.Param("slug"))
	if err != nil {
		c.JSON(500, gin.H{"code": 500, "message": err.Error()})
		return
	}
	if !removed {
		c.JSON(404, gin.H{"code": 404, "message": "设计稿不存在"})
		return
	}
	c.JSON(200, gin.H{"code": 0, "message": "success"})
}

// ==================== AI 生成 ====================

// GenerateMetadataReq AI 文案生成请求
type GenerateMetadataReq struct {
	Persona string `json:"persona"`
}

// GenerateMetadata 生成上架文案并落到设计稿上
// @Summary AI 生成上架文案
// @Tags Design
// @Param slug path string true "设计稿标识"
// @Router /api/designs/{slug}/ai/metadata [post]
func (ctrl *DesignController) GenerateMetadata(c *gin.Context) {
	slug := c.Param("slug")

	d, err := ctrl.designs.Get(slug)
	if err != nil {
		c.JSON(500, gin.H{"code": 500, "message": err.Error()})
		return
	}
	if d == nil {
		c.JSON(404, gin.H{"code": 404, "message": "设计稿不存在"})
		return
	}

	var req GenerateMetadataReq
	_ = c.ShouldBindJSON(&req) // body 可空

	personaName := req.Persona
	if personaName == "" {
		personaName = d.Persona
	}
	var persona *service.Persona
	if personaName != "" {
		persona, err = ctrl.personas.Get(personaName)
		if err != nil {
			c.JSON(500, gin.H{"code": 500, "message": err.Error()})
			return
		}
		if persona == nil {
			c.JSON(404, gin.H{"code": 404, "message": "人设不存在: " + personaName})
			return
		}
	}

	content, err := ctrl.ai.GenerateListingContent(c.Request.Context(), slug, d.Title, persona)
	if err != nil {
		c.JSON(502, gin.H{"code": 502, "message": "生成失败: " + err.Error()})
		return
	}

	gen := d.Generated
	if gen == nil {
		gen = &service.DesignGenerated{}
	}
	gen.Title = content.Title
	gen.Description = content.Description
	gen.Tags = content.Tags

	updated, err := ctrl.designs.SetGenerated(slug, gen)
	if err != nil {
		c.JSON(500, gin.H{"code": 500, "message": err.Error()})
		return
	}
	c.JSON(200, gin.H{"code": 0, "message": "success", "data": updated})
}

// SuggestColorsReq AI 配色请求
type SuggestColorsReq struct {
	BlueprintID     int `json:"blueprint_id" binding:"required"`
	PrintProviderID int `json:"print_provider_id" binding:"required"`
	Count           int `json:"count"`
}

// SuggestColors 从蓝图可选颜色里让 AI 挑配色
// @Summary AI 推荐服装颜色
// @Tags Design
// @Param slug path string true "设计稿标识"
// @Router /api/designs/{slug}/ai/colors [post]
func (ctrl *DesignController) SuggestColors(c *gin.Context) {
	slug := c.Param("slug")

	d, err := ctrl.designs.Get(slug)
	if err != nil {
		c.JSON(500, gin.H{"code": 500, "message": err.Error()})
		return
	}
	if d == nil {
		c.JSON(404, gin.H{"code": 404, "message": "设计稿不存在"})
		return
	}

	var req SuggestColorsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	colorMap, err := ctrl.catalog.ColorVariants(ctx, req.BlueprintID, req.PrintProviderID)
	if err != nil {
		c.JSON(502, gin.H{"code": 502, "message": err.Error()})
		return
	}

	available := make([]string, 0, len(colorMap))
	for color := range colorMap {
		available = append(available, color)
	}

	picks, err := ctrl.ai.SuggestColors(ctx, slug, d.Title, available, req.Count)
	if err != nil {
		c.JSON(502, gin.H{"code": 502, "message": "配色失败: " + err.Error()})
		return
	}

	gen := d.Generated
	if gen == nil {
		gen = &service.DesignGenerated{}
	}
	gen.Colors = picks
	updated, err := ctrl.designs.SetGenerated(slug, gen)
	if err != nil {
		c.JSON(500, gin.H{"code": 500, "message": err.Error()})
		return
	}

	c.JSON(200, gin.H{"code": 0, "message": "success", "data": gin.H{
		"colors": picks,
		"design": updated,
	}})
}

// ==================== 样机 ====================

// MockupReq 样机合成请求
type MockupReq struct {
	Templates []service.MockupTemplate `json:"templates" binding:"required"`
}

// Mockups 合成平铺样机
// @Summary 合成样机图
// @Tags Design
// @Param slug path string true "设计稿标识"
// @Router /api/designs/{slug}/mockups [post]
func (ctrl *DesignController) Mockups(c *gin.Context) {
	slug := c.Param("slug")

	d, err := ctrl.designs.Get(slug)
	if err != nil {
		c.JSON(500, gin.H{"code": 500, "message": err.Error()})
		return
	}
	if d == nil {
		c.JSON(404, gin.H{"code": 404, "message": "设计稿不存在"})
		return
	}
	if d.DesignPNGPath == "" {
		c.JSON(422, gin.H{"code": 422, "message": "设计稿缺少 design_png_path"})
		return
	}

	var req MockupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	paths, err := ctrl.mockups.Composite(d.DesignPNGPath, req.Templates)
	if err != nil {
		c.JSON(500, gin.H{"code": 500, "message": "合成失败: " + err.Error()})
		return
	}

	gen := d.Generated
	if gen == nil {
		gen = &service.DesignGenerated{}
	}
	gen.MockupPaths = paths
	if _, err := ctrl.designs.SetGenerated(slug, gen); err != nil {
		c.JSON(500, gin.H{"code": 500, "message": err.Error()})
		return
	}

	c.JSON(200, gin.H{"code": 0, "message": "success", "data": gin.H{"paths": paths}})
}
