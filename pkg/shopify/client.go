package shopify

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"regexp"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/go-resty/resty/v2"

	_ "golang.org/x/image/webp" // 解码线上已有的 WebP 商品图
)

const apiVersion = "2024-01"

// ==================== 配置 ====================

// Config Shopify Admin API 客户端配置
type Config struct {
	StoreDomain string // my-store.myshopify.com
	AccessToken string
	BaseURL     string // 测试时指向 httptest，留空按 StoreDomain 拼
	Timeout     time.Duration
}

// ==================== 错误 ====================

// APIError 非 2xx 响应，保留服务端原文
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shopify API 异常 [%d]: %s", e.Status, e.Body)
}

// ==================== 客户端 ====================

// Client Shopify Admin REST 客户端
type Client struct {
	http        *resty.Client
	storeDomain string
}

// NewClient 创建客户端
func NewClient(cfg *Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = fmt.Sprintf("https://%s/admin/api/%s", cfg.StoreDomain, apiVersion)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	http := resty.New().
		SetBaseURL(base).
		SetTimeout(timeout).
		SetHeader("X-Shopify-Access-Token", cfg.AccessToken).
		SetHeader("Content-Type", "application/json")

	return &Client{http: http, storeDomain: cfg.StoreDomain}
}

func (c *Client) checkResp(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("网络请求失败: %w", err)
	}
	if resp.IsError() {
		return &APIError{Status: resp.StatusCode(), Body: resp.String()}
	}
	return nil
}

// ==================== 数据结构 ====================

// Product Shopify 商品
type Product struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	BodyHTML    string  `json:"body_html"`
	Handle      string  `json:"handle"`
	Tags        string  `json:"tags"` // Shopify 的 tags 是逗号分隔字符串
	Status      string  `json:"status"`
	ProductType string  `json:"product_type"`
	Images      []Image `json:"images"`
}

// Image 商品图
type Image struct {
	ID       int64  `json:"id,omitempty"`
	Src      string `json:"src,omitempty"`
	Position int    `json:"position,omitempty"`
	Alt      string `json:"alt,omitempty"`
}

// ProductPatch 商品更新负载，零值字段不下发
type ProductPatch struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title,omitempty"`
	BodyHTML string  `json:"body_html,omitempty"`
	Tags     string  `json:"tags,omitempty"`
	Images   []Image `json:"images,omitempty"`
}

type productEnvelope struct {
	Product Product `json:"product"`
}

type productsEnvelope struct {
	Products []Product `json:"products"`
}

// ==================== 商品读写 ====================

// GetProduct 拉取单个商品
func (c *Client) GetProduct(ctx context.Context, productID int64) (*Product, error) {
	var out productEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("/products/%d.json", productID))
	if err := c.checkResp(resp, err); err != nil {
		return nil, err
	}
	return &out.Product, nil
}

var pageInfoPattern = regexp.MustCompile(`page_info=([^>&;]+)[^>]*>;\s*rel="next"`)

// nextPageInfo 从 Link 响应头解析下一页游标，没有下一页返回空
func nextPageInfo(linkHeader string) string {
	if m := pageInfoPattern.FindStringSubmatch(linkHeader); m != nil {
		return m[1]
	}
	return ""
}

// ListAllProducts 翻完所有页取全部商品（游标分页，Link 响应头携带 page_info）
func (c *Client) ListAllProducts(ctx context.Context) ([]Product, error) {
	all := make([]Product, 0, 64)
	pageInfo := ""

	for {
		req := c.http.R().SetContext(ctx).SetQueryParam("limit", "250")
		if pageInfo != "" {
			req.SetQueryParam("page_info", pageInfo)
		}

		var out productsEnvelope
		resp, err := req.SetResult(&out).Get("/products.json")
		if err := c.checkResp(resp, err); err != nil {
			return nil, err
		}

		all = append(all, out.Products...)
		pageInfo = nextPageInfo(resp.Header().Get("Link"))
		if pageInfo == "" {
			break
		}
	}
	return all, nil
}

// UpdateProduct 更新商品（{"product": …} 信封）
func (c *Client) UpdateProduct(ctx context.Context, patch *ProductPatch) (*Product, error) {
	var out productEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]*ProductPatch{"product": patch}).
		SetResult(&out).
		Put(fmt.Sprintf("/products/%d.json", patch.ID))
	if err := c.checkResp(resp, err); err != nil {
		return nil, err
	}
	return &out.Product, nil
}

// ==================== 图片上传 ====================

// UploadProductImages 把图片挂到商品上
// 能解码的图先转成 WebP（体积小一截，店面展示看不出差别），解不动的原样上传
func (c *Client) UploadProductImages(ctx context.Context, productID int64, images [][]byte, altPrefix string) ([]Image, error) {
	out := make([]Image, 0, len(images))
	for i, data := range images {
		encoded, filename := encodeForUpload(data, fmt.Sprintf("%s_%d", altPrefix, i+1))

		payload := map[string]interface{}{
			"image": map[string]interface{}{
				"attachment": base64.StdEncoding.EncodeToString(encoded),
				"filename":   filename,
				"position":   i + 1,
				"alt":        fmt.Sprintf("%s %d", altPrefix, i+1),
			},
		}

		var result struct {
			Image Image `json:"image"`
		}
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(payload).
			SetResult(&result).
			Post(fmt.Sprintf("/products/%d/images.json", productID))
		if err := c.checkResp(resp, err); err != nil {
			return out, fmt.Errorf("上传第 %d 张商品图失败: %w", i+1, err)
		}
		out = append(out, result.Image)
	}
	return out, nil
}

// encodeForUpload 尝试 WebP 重编码；解码失败就原样返回
func encodeForUpload(data []byte, name string) ([]byte, string) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data, name + ".png"
	}

	// 超大图先压到 2048 宽，店面用不到更大的
	if img.Bounds().Dx() > 2048 {
		img = imaging.Resize(img, 2048, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: 90}); err != nil {
		return data, name + ".png"
	}
	return buf.Bytes(), name + ".webp"
}

// ==================== 链接 ====================

// ProductURL 店面商品页链接
func (c *Client) ProductURL(handle string) string {
	domain := strings.TrimSuffix(c.storeDomain, "/")
	return fmt.Sprintf("https://%s/products/%s", domain, handle)
}
