package printify

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultBaseURL = "https://api.printify.com/v1"

// ==================== 配置 ====================

// Config 客户端配置
// Token 和 ShopID 由构造时显式传入，不在组件内部读环境变量
type Config struct {
	APIToken string
	ShopID   string
	BaseURL  string        // 留空走官方地址，测试时指向 httptest
	Timeout  time.Duration // 上传大图较慢，默认给 60s
}

// ==================== 错误 ====================

// APIError 非 2xx 响应
// Body 保留服务端原文，排查校验器拒绝原因全靠它
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("printify API 异常 [%d]: %s", e.Status, e.Body)
}

// ==================== 客户端 ====================

// Client Printify v1 REST 客户端
type Client struct {
	http   *resty.Client
	shopID string
}

// NewClient 创建客户端
func NewClient(cfg *Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	http := resty.New().
		SetBaseURL(base).
		SetTimeout(timeout).
		SetHeader("Authorization", "Bearer "+cfg.APIToken).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "POD-Studio-Go/1.0")

	return &Client{http: http, shopID: cfg.ShopID}
}

// ShopID 当前店铺 ID
func (c *Client) ShopID() string { return c.shopID }

func (c *Client) checkResp(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("网络请求失败: %w", err)
	}
	if resp.IsError() {
		return &APIError{Status: resp.StatusCode(), Body: resp.String()}
	}
	return nil
}

// ==================== 商品读写 ====================

// GetProduct 拉取单个商品全量结构（变体、选项、印刷区）
func (c *Client) GetProduct(ctx context.Context, productID string) (*TemplateProduct, error) {
	var out TemplateProduct
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("/shops/%s/products/%s.json", c.shopID, productID))
	if err := c.checkResp(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListProducts 分页拉取商品列表，limit 上限 100
func (c *Client) ListProducts(ctx context.Context, page, limit int) (*ProductList, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 100
	}

	var out ProductList
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("page", fmt.Sprintf("%d", page)).
		SetQueryParam("limit", fmt.Sprintf("%d", limit)).
		SetResult(&out).
		Get(fmt.Sprintf("/shops/%s/products.json", c.shopID))
	if err := c.checkResp(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateProduct 提交创建负载，返回新商品全量结构
func (c *Client) CreateProduct(ctx context.Context, payload *CreationPayload) (*TemplateProduct, error) {
	var out TemplateProduct
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&out).
		Post(fmt.Sprintf("/shops/%s/products.json", c.shopID))
	if err := c.checkResp(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProduct PUT 更新商品（标题、描述、印刷区等）
func (c *Client) UpdateProduct(ctx context.Context, productID string, patch *ProductPatch) (*TemplateProduct, error) {
	var out TemplateProduct
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(patch).
		SetResult(&out).
		Put(fmt.Sprintf("/shops/%s/products/%s.json", c.shopID, productID))
	if err := c.checkResp(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// PublishToShopify 把商品发布到绑定的店面渠道
func (c *Client) PublishToShopify(ctx context.Context, productID string, details *PublishDetails) error {
	if details == nil {
		details = &PublishDetails{Title: true, Description: true, Images: true, Variants: true, Tags: true}
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(details).
		Post(fmt.Sprintf("/shops/%s/products/%s/publish.json", c.shopID, productID))
	return c.checkResp(resp, err)
}

// ==================== 媒体库 ====================

// UploadImageByURL 按 URL 把图片收录进媒体库，返回新的媒体 ID
func (c *Client) UploadImageByURL(ctx context.Context, url, fileName string) (*Upload, error) {
	if fileName == "" {
		fileName = "art.png"
	}

	var out Upload
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"file_name": fileName, "url": url}).
		SetResult(&out).
		Post("/uploads/images.json")
	if err := c.checkResp(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadImageFile 上传本地文件
// v1 接口要求 JSON 负载 {"file_name", "contents": base64}，不是 multipart
func (c *Client) UploadImageFile(ctx context.Context, filePath, fileName string) (*Upload, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("读取本地文件失败: %w", err)
	}
	if fileName == "" {
		fileName = filepath.Base(filePath)
	}

	var out Upload
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"file_name": fileName,
			"contents":  base64.StdEncoding.EncodeToString(data),
		}).
		SetResult(&out).
		Post("/uploads/images.json")
	if err := c.checkResp(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// ==================== 目录 ====================

// GetBlueprintProviderVariants 查某蓝图在某生产商下的变体目录
func (c *Client) GetBlueprintProviderVariants(ctx context.Context, blueprintID, printProviderID int) (*BlueprintVariants, error) {
	var out BlueprintVariants
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("/catalog/blueprints/%d/print_providers/%d/variants.json", blueprintID, printProviderID))
	if err := c.checkResp(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListBlueprintProviders 列出某蓝图可用的生产商，报错时用来给出候选
func (c *Client) ListBlueprintProviders(ctx context.Context, blueprintID int) ([]PrintProvider, error) {
	var out []PrintProvider
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("/catalog/blueprints/%d/print_providers.json", blueprintID))
	if err := c.checkResp(resp, err); err != nil {
		return nil, err
	}
	return out, nil
}
