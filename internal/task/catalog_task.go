package task

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// CatalogRefresher 目录刷新能力，*service.CatalogService 直接满足
type CatalogRefresher interface {
	RefreshProducts(ctx context.Context) (int, error)
}

// CatalogSyncTask 供应商商品目录定时刷新
// 启动时先全量拉一次，之后每 6 小时刷新，保证前端列表不依赖供应商实时接口
type CatalogSyncTask struct {
	catalog CatalogRefresher
	Cron    *cron.Cron

	timeout time.Duration
}

func NewCatalogSyncTask(catalog CatalogRefresher) *CatalogSyncTask {
	return &CatalogSyncTask{
		catalog: catalog,
		Cron:    cron.New(cron.WithSeconds()), // 支持秒级控制
		timeout: 10 * time.Minute,             // 分页拉全量目录，放宽超时
	}
}

// Start 启动定时任务
func (t *CatalogSyncTask) Start() {
	// 首次执行
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()
		log.Println("[Task] 服务启动，正在执行首次目录刷新...")
		t.refreshJob(ctx)
	}()

	// 定时策略
	_, err := t.Cron.AddFunc("0 0 0/6 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()

		t.refreshJob(ctx)
	})

	if err != nil {
		log.Fatalf("无法启动目录刷新定时任务: %v", err)
	}

	t.Cron.Start()
	log.Println("目录刷新任务已启动 (每6小时一次)")
}

// Stop 停止定时任务，等待进行中的刷新结束
func (t *CatalogSyncTask) Stop() {
	ctx := t.Cron.Stop()
	<-ctx.Done()
	log.Println("目录刷新任务已停止")
}

// RefreshNow 手动触发一次刷新
func (t *CatalogSyncTask) RefreshNow(ctx context.Context) (int, error) {
	return t.catalog.RefreshProducts(ctx)
}

func (t *CatalogSyncTask) refreshJob(ctx context.Context) {
	count, err := t.catalog.RefreshProducts(ctx)
	if err != nil {
		log.Printf("[Cron] 目录刷新失败: %v", err)
		return
	}
	log.Printf("[Cron] 本轮目录刷新完成，共 %d 个商品", count)
}
