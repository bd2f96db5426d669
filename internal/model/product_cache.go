package model

import (
	"time"

	"gorm.io/datatypes"
)

// ProductCache Printify 商品缓存
// 列表接口慢且限流，本地存一份摘要供前端秒开；整表随刷新任务批量覆盖
type ProductCache struct {
	BaseModel

	PrintifyID   string `gorm:"size:64;uniqueIndex;comment:Printify商品ID"`
	Title        string `gorm:"size:512;comment:商品标题"`
	PrimaryImage string `gorm:"size:1024;comment:首图地址"`

	// 店面状态
	Published  bool   `gorm:"index;comment:是否已发布到店面"`
	ShopifyURL string `gorm:"size:1024;comment:店面商品链接"`

	Tags datatypes.JSON `gorm:"comment:标签列表"`

	// 远端时间戳（Printify 侧的 created_at/updated_at 原文）
	RemoteCreatedAt string `gorm:"size:64;comment:远端创建时间"`
	RemoteUpdatedAt string `gorm:"size:64;comment:远端更新时间"`

	SyncedAt time.Time `gorm:"comment:本地同步时间"`
}

func (ProductCache) TableName() string {
	return "product_caches"
}
