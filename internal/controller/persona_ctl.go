package controller

import (
	"github.com/gin-gonic/gin"

	"printify_dev_v1_202608/internal/service"
)

type PersonaController struct {
	personas *service.PersonaService
}

func NewPersonaController(personas *service.PersonaService) *PersonaController {
	return &PersonaController{personas: personas}
}

// List 人设列表
// @Summary 获取全部文案人设
// @Tags Persona
// @Router /api/personas [get]
func (ctrl *PersonaController) List(c *gin.Context) {
	personas, err := ctrl.personas.List()
	if err != nil {
		c.JSON(500, gin.H{"code": 500, "message": err.Error()})
		return
	}
	c.JSON(200, gin.H{"code": 0, "message": "success", "data": personas})
}

// Get 人设详情
// @Summary 获取单个人设
// @Tags Persona
// @Param name path string true "人设名称"
// @Router /api/personas/{name} [get]
func (ctrl *PersonaController) Get(c *gin.Context) {
	p, err := ctrl.personas.Get(c.Param("name"))
	if err != nil {
		c.JSON(500, gin.H{"code": 500, "message": err.Error()})
		return
	}
	if p == nil {
		c.JSON(404, gin.H{"code": 404, "message": "人设不存在"})
		return
	}
	c.JSON(200, gin.H{"code": 0, "message": "success", "data": p})
}

// Upsert 新建或覆盖人设
// @Summary 写入人设
// @Tags Persona
// @Router /api/personas [post]
func (ctrl *PersonaController) Upsert(c *gin.Context) {
	var p service.Persona
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(400, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	if err := ctrl.personas.Upsert(&p); err != nil {
		c.JSON(400, gin.H{"code": 400, "message": err.Error()})
		return
	}
	c.JSON(200, gin.H{"code": 0, "message": "success", "data": p})
}

// Delete 删除人设
// @Summary 删除人设
// @Tags Persona
// @Param name path string true "人设名称"
// @Router /api/personas/{name} [delete]
func (ctrl *PersonaController) Delete(c *gin.Context) {
	removed, err := ctrl.personas.Delete(c.Param("name"))
	if err != nil {
		c.JSON(500, gin.H{"code": 500, "message": err.Error()})
		return
	}
	if !removed {
		c.JSON(404, gin.H{"code": 404, "message": "人设不存在"})
		return
	}
	c.JSON(200, gin.H{"code": 0, "message": "success"})
}
