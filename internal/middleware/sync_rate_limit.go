package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ==================== 冷却限流中间件 ====================

// ActionCooldown 冷却限流中间件
// 按设计稿 + 操作类型维度进行限流；路由上没有 slug 参数时退化为全局限流
//
// 使用示例:
//
//	router.POST("/api/printify/products/cache/update",
//	    middleware.ActionCooldown(middleware.ActionCatalogRefresh, 0),
//	    ctrl.UpdateCache,
//	)
//
// 参数:
//   - action: 操作类型
//   - interval: 冷却间隔，0 表示使用默认值
func ActionCooldown(action ActionType, interval time.Duration) gin.HandlerFunc {
	if interval == 0 {
		interval = GetInterval(action)
	}

	return func(c *gin.Context) {
		slug := c.Param("slug")

		var key string
		if slug != "" {
			key = DesignActionKey(slug, action)
		} else {
			key = GlobalActionKey(action)
		}

		result := GetLimiter().Check(key, interval)
		if !result.Allowed {
			retryAfter := int(result.RetryAfter.Seconds())
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    429,
				"message": formatRetryMessage(result.RetryAfter),
				"data": gin.H{
					"retry_after": retryAfter,
					"action":      action,
				},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// ==================== 辅助函数 ====================

// formatRetryMessage 格式化重试提示信息
func formatRetryMessage(d time.Duration) string {
	seconds := int(d.Seconds())

	if seconds < 60 {
		return fmt.Sprintf("操作冷却中，请 %d 秒后重试", seconds)
	}

	minutes := seconds / 60
	remainingSeconds := seconds % 60

	if remainingSeconds == 0 {
		return fmt.Sprintf("操作冷却中，请 %d 分钟后重试", minutes)
	}

	return fmt.Sprintf("操作冷却中，请 %d 分 %d 秒后重试", minutes, remainingSeconds)
}

// ==================== 手动限流检查（供 Service 层使用）====================

// CheckActionAllowed 检查操作是否允许（不更新时间）
func CheckActionAllowed(slug string, action ActionType) (bool, time.Duration) {
	key := DesignActionKey(slug, action)
	interval := GetInterval(action)
	result := GetLimiter().CheckOnly(key, interval)
	return result.Allowed, result.RetryAfter
}

// ResetActionLimit 重置操作限流
func ResetActionLimit(slug string, action ActionType) {
	key := DesignActionKey(slug, action)
	GetLimiter().Reset(key)
}
