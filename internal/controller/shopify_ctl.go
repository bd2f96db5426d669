package controller

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"printify_dev_v1_202608/pkg/shopify"
)

// ==================== 依赖接口 ====================

// ShopifyAPI 店面侧操作，*shopify.Client 直接满足
type ShopifyAPI interface {
	ListAllProducts(ctx context.Context) ([]shopify.Product, error)
	GetProduct(ctx context.Context, productID int64) (*shopify.Product, error)
	UpdateProduct(ctx context.Context, patch *shopify.ProductPatch) (*shopify.Product, error)
	ProductURL(handle string) string
}

// ==================== 控制器 ====================

type ShopifyController struct {
	api ShopifyAPI
}

func NewShopifyController(api ShopifyAPI) *ShopifyController {
	return &ShopifyController{api: api}
}

func shopifyStatus(err error) (int, string) {
	var apiErr *shopify.APIError
	if errors.As(err, &apiErr) {
		status := apiErr.Status
		if status < 400 || status > 599 {
			status = 502
		}
		return status, err.Error()
	}
	return 502, err.Error()
}

// GetProducts 店面商品列表
// @Summary 获取 Shopify 全部商品
// @Tags Shopify
// @Router /api/shopify/products [get]
func (ctrl *ShopifyController) GetProducts(c *gin.Context) {
	products, err := ctrl.api.ListAllProducts(c.Request.Context())
	if err != nil {
		status, msg := shopifyStatus(err)
		c.JSON(status, gin.H{"code": status, "message": "查询失败: " + msg})
		return
	}
	c.JSON(200, gin.H{"code": 0, "message": "success", "data": products, "total": len(products)})
}

// PushReq 元数据推送请求
type PushReq struct {
	Title    string `json:"title"`
	BodyHTML string `json:"body_html"`
	Tags     string `json:"tags"`
}

// Push 把文案元数据推到店面商品
// @Summary 推送商品元数据到 Shopify
// @Tags Shopify
// @Param id path int true "Shopify商品ID"
// @Router /api/shopify/products/{id}/push [post]
func (ctrl *ShopifyController) Push(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || productID <= 0 {
		c.JSON(400, gin.H{"code": 400, "message": "无效的商品ID"})
		return
	}

	var req PushReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	if req.Title == "" && req.BodyHTML == "" && req.Tags == "" {
		c.JSON(400, gin.H{"code": 400, "message": "没有可推送的字段"})
		return
	}

	updated, err := ctrl.api.UpdateProduct(c.Request.Context(), &shopify.ProductPatch{
		ID:       productID,
		Title:    req.Title,
		BodyHTML: req.BodyHTML,
		Tags:     req.Tags,
	})
	if err != nil {
		status, msg := shopifyStatus(err)
		c.JSON(status, gin.H{"code": status, "message": "推送失败: " + msg})
		return
	}

	c.JSON(200, gin.H{"code": 0, "message": "success", "data": gin.H{
		"id":    updated.ID,
		"title": updated.Title,
		"url":   ctrl.api.ProductURL(updated.Handle),
	}})
}
