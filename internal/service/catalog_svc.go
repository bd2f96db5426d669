package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"gorm.io/datatypes"

	"printify_dev_v1_202608/internal/model"
	"printify_dev_v1_202608/internal/repository"
	"printify_dev_v1_202608/internal/storage"
	"printify_dev_v1_202608/pkg/printify"
)

// ==================== 外部依赖接口 ====================

// ProductLister 商品列表读取
type ProductLister interface {
	ListProducts(ctx context.Context, page, limit int) (*printify.ProductList, error)
}

// CatalogReader 蓝图目录读取
type CatalogReader interface {
	GetBlueprintProviderVariants(ctx context.Context, blueprintID, printProviderID int) (*printify.BlueprintVariants, error)
	ListBlueprintProviders(ctx context.Context, blueprintID int) ([]printify.PrintProvider, error)
}

// ==================== 服务 ====================

const productCollection = "printify_products"

// CatalogService 商品缓存与蓝图目录服务
// 列表接口限流严，商品摘要落两份：gorm（查询）+ JSON 集合（前端整包拉取）；
// 蓝图变体目录进程内缓存，颜色表一天内不会变
type CatalogService struct {
	lister      ProductLister
	catalog     CatalogReader
	cacheRepo   repository.ProductCacheRepository
	store       *storage.JSONStore
	variantMemo *gocache.Cache
	storeDomain string // 店面域名，拼商品链接用
}

// NewCatalogService 创建目录服务
func NewCatalogService(
	lister ProductLister,
	catalog CatalogReader,
	cacheRepo repository.ProductCacheRepository,
	store *storage.JSONStore,
	storeDomain string,
) *CatalogService {
	return &CatalogService{
		lister:      lister,
		catalog:     catalog,
		cacheRepo:   cacheRepo,
		store:       store,
		variantMemo: gocache.New(6*time.Hour, 30*time.Minute),
		storeDomain: strings.TrimSuffix(storeDomain, "/"),
	}
}

// ==================== 商品摘要 ====================

// ProductSummary 商品摘要，缓存与接口共用一个形状
type ProductSummary struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	PrimaryImage string   `json:"primary_image"`
	Published    bool     `json:"published"`
	ShopifyURL   string   `json:"shopify_url"`
	Tags         []string `json:"tags"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
}

// summarize 把列表条目归一化成摘要；无主键的脏条目返回 false
func (s *CatalogService) summarize(p printify.ListedProduct) (ProductSummary, bool) {
	id := p.Key()
	if id == "" {
		return ProductSummary{}, false
	}

	out := ProductSummary{
		ID:           id,
		Title:        p.DisplayTitle(),
		PrimaryImage: p.PrimaryImage(),
		Tags:         p.Tags,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}

	if handle := p.External.Handle; handle != "" {
		out.Published = true
		if strings.HasPrefix(handle, "http") {
			out.ShopifyURL = handle
		} else if s.storeDomain != "" {
			out.ShopifyURL = fmt.Sprintf("%s/products/%s", s.storeDomain, strings.TrimPrefix(handle, "/"))
		}
	} else if p.External.ID != "" {
		out.Published = true
	}

	return out, true
}

// RefreshProducts 全量刷新商品缓存：翻完所有页 → 归一化 → 两份缓存整体替换
func (s *CatalogService) RefreshProducts(ctx context.Context) (int, error) {
	summaries := make([]ProductSummary, 0, 64)

	page := 1
	for {
		list, err := s.lister.ListProducts(ctx, page, 100)
		if err != nil {
			return 0, fmt.Errorf("拉取商品列表第 %d 页失败: %w", page, err)
		}

		items := list.Items()
		for _, item := range items {
			if summary, ok := s.summarize(item); ok {
				summaries = append(summaries, summary)
			}
		}

		last := list.LastPage.Or(page)
		if len(items) == 0 || page >= last {
			break
		}
		page++
	}

	if err := s.persist(ctx, summaries); err != nil {
		return 0, err
	}

	log.Printf("[目录] 商品缓存刷新完成，共 %d 件", len(summaries))
	return len(summaries), nil
}

func (s *CatalogService) persist(ctx context.Context, summaries []ProductSummary) error {
	now := time.Now()
	rows := make([]model.ProductCache, 0, len(summaries))
	keepIDs := make([]string, 0, len(summaries))
	records := make(map[string]storage.Record, len(summaries))

	for _, sum := range summaries {
		tagsJSON, _ := json.Marshal(sum.Tags)
		rows = append(rows, model.ProductCache{
			PrintifyID:      sum.ID,
			Title:           sum.Title,
			PrimaryImage:    sum.PrimaryImage,
			Published:       sum.Published,
			ShopifyURL:      sum.ShopifyURL,
			Tags:            datatypes.JSON(tagsJSON),
			RemoteCreatedAt: sum.CreatedAt,
			RemoteUpdatedAt: sum.UpdatedAt,
			SyncedAt:        now,
		})
		keepIDs = append(keepIDs, sum.ID)

		var rec storage.Record
		raw, _ := json.Marshal(sum)
		_ = json.Unmarshal(raw, &rec)
		records[sum.ID] = rec
	}

	if err := s.cacheRepo.BatchUpsert(ctx, rows); err != nil {
		return fmt.Errorf("写入商品缓存表失败: %w", err)
	}
	if err := s.cacheRepo.DeleteMissing(ctx, keepIDs); err != nil {
		return fmt.Errorf("清理过期缓存失败: %w", err)
	}
	if err := s.store.ReplaceCollection(productCollection, records); err != nil {
		return fmt.Errorf("写入商品集合文件失败: %w", err)
	}
	return nil
}

// CachedProducts 读缓存表
func (s *CatalogService) CachedProducts(ctx context.Context, publishedOnly bool) ([]ProductSummary, error) {
	rows, err := s.cacheRepo.List(ctx, publishedOnly)
	if err != nil {
		return nil, fmt.Errorf("读取商品缓存失败: %w", err)
	}

	out := make([]ProductSummary, 0, len(rows))
	for _, row := range rows {
		sum := ProductSummary{
			ID:           row.PrintifyID,
			Title:        row.Title,
			PrimaryImage: row.PrimaryImage,
			Published:    row.Published,
			ShopifyURL:   row.ShopifyURL,
			CreatedAt:    row.RemoteCreatedAt,
			UpdatedAt:    row.RemoteUpdatedAt,
			Tags:         []string{},
		}
		if len(row.Tags) > 0 {
			_ = json.Unmarshal(row.Tags, &sum.Tags)
		}
		out = append(out, sum)
	}
	return out, nil
}

// ==================== 蓝图颜色目录 ====================

// ColorVariants 某蓝图×生产商下 颜色 → 变体 ID 列表
// 结果进程内缓存；生产商不存在时把可用生产商列进错误里，省一次人工排查
func (s *CatalogService) ColorVariants(ctx context.Context, blueprintID, printProviderID int) (map[string][]int, error) {
	key := fmt.Sprintf("colors:bp:%d:pp:%d", blueprintID, printProviderID)
	if cached, ok := s.variantMemo.Get(key); ok {
		return cached.(map[string][]int), nil
	}

	bv, err := s.catalog.GetBlueprintProviderVariants(ctx, blueprintID, printProviderID)
	if err != nil {
		var apiErr *printify.APIError
		if errors.As(err, &apiErr) && apiErr.Status == 404 {
			return nil, s.providerFallbackErr(ctx, blueprintID, printProviderID)
		}
		return nil, fmt.Errorf("拉取蓝图变体目录失败: %w", err)
	}

	colors := make(map[string][]int)
	for _, v := range bv.Variants {
		color := v.Options.ColorTitle()
		if color == "" {
			if before, _, found := strings.Cut(v.Title, " / "); found {
				color = strings.TrimSpace(before)
			}
		}
		if color == "" {
			continue
		}
		colors[color] = append(colors[color], v.ID.Or(0))
	}

	s.variantMemo.Set(key, colors, gocache.DefaultExpiration)
	return colors, nil
}

func (s *CatalogService) providerFallbackErr(ctx context.Context, blueprintID, printProviderID int) error {
	providers, listErr := s.catalog.ListBlueprintProviders(ctx, blueprintID)
	if listErr != nil || len(providers) == 0 {
		return fmt.Errorf("蓝图 %d 下生产商 %d 不存在", blueprintID, printProviderID)
	}

	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, fmt.Sprintf("%d(%s)", p.ID.Or(0), p.Title))
	}
	return fmt.Errorf("蓝图 %d 下生产商 %d 不存在，可用: %s",
		blueprintID, printProviderID, strings.Join(names, ", "))
}
