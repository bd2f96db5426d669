package router

import (
	"github.com/gin-gonic/gin"

	"printify_dev_v1_202608/internal/controller"
	"printify_dev_v1_202608/internal/middleware"
)

// InitRoutes 注册所有路由
func InitRoutes(r *gin.Engine,
	printifyCtl *controller.PrintifyController,
	designCtl *controller.DesignController,
	personaCtl *controller.PersonaController,
	shopifyCtl *controller.ShopifyController) {
	r.Use(middleware.CORS())

	// API 路由组
	api := r.Group("/api")
	{
		// printify 供应商侧
		printify := api.Group("/printify")
		{
			// GET /api/printify/products
			printify.GET("/products", printifyCtl.GetProducts)
			// 目录刷新要分页拉全量，加冷却
			printify.POST("/products/cache/update",
				middleware.ActionCooldown(middleware.ActionCatalogRefresh, 0),
				printifyCtl.UpdateCache)
			printify.POST("/products/duplicate", printifyCtl.Duplicate)
			printify.GET("/colors/:product_id", printifyCtl.Colors)
			printify.POST("/products/:id/apply_design", printifyCtl.ApplyDesign)
			printify.POST("/products/:id/publish", printifyCtl.Publish)
		}

		// design 设计稿组
		designs := api.Group("/designs")
		{
			designs.GET("", designCtl.List)
			designs.POST("", designCtl.Create)
			designs.GET("/:slug", designCtl.Get)
			designs.PUT("/:slug", designCtl.Update)
			designs.DELETE("/:slug", designCtl.Delete)

			// AI 调用按设计稿维度冷却
			designs.POST("/:slug/ai/metadata",
				middleware.ActionCooldown(middleware.ActionAIText, 0),
				designCtl.GenerateMetadata)
			designs.POST("/:slug/ai/colors",
				middleware.ActionCooldown(middleware.ActionAIText, 0),
				designCtl.SuggestColors)
			designs.POST("/:slug/mockups", designCtl.Mockups)
		}

		// persona 文案人设组
		personas := api.Group("/personas")
		{
			personas.GET("", personaCtl.List)
			personas.POST("", personaCtl.Upsert)
			personas.GET("/:name", personaCtl.Get)
			personas.DELETE("/:name", personaCtl.Delete)
		}

		// shopify 店面侧
		shopify := api.Group("/shopify")
		{
			shopify.GET("/products", shopifyCtl.GetProducts)
			shopify.POST("/products/:id/push", shopifyCtl.Push)
		}
	}
}
