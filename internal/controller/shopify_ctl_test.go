package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"printify_dev_v1_202608/pkg/shopify"
)

// ==================== 测试辅助 ====================

type fakeShopifyAPI struct {
	products []shopify.Product
	listErr  error
	pushErr  error
	lastPush *shopify.ProductPatch
}

func (f *fakeShopifyAPI) ListAllProducts(_ context.Context) ([]shopify.Product, error) {
	return f.products, f.listErr
}

func (f *fakeShopifyAPI) GetProduct(_ context.Context, productID int64) (*shopify.Product, error) {
	for i := range f.products {
		if f.products[i].ID == productID {
			return &f.products[i], nil
		}
	}
	return nil, &shopify.APIError{Status: 404, Body: `{"errors":"Not Found"}`}
}

func (f *fakeShopifyAPI) UpdateProduct(_ context.Context, patch *shopify.ProductPatch) (*shopify.Product, error) {
	if f.pushErr != nil {
		return nil, f.pushErr
	}
	f.lastPush = patch
	return &shopify.Product{ID: patch.ID, Title: patch.Title, Handle: "fuji-tee"}, nil
}

func (f *fakeShopifyAPI) ProductURL(handle string) string {
	return "https://shop.example.com/products/" + handle
}

func setupShopifyRouter(api *fakeShopifyAPI) *gin.Engine {
	r := gin.New()
	ctrl := NewShopifyController(api)

	grp := r.Group("/api/shopify")
	{
		grp.GET("/products", ctrl.GetProducts)
		grp.POST("/products/:id/push", ctrl.Push)
	}
	return r
}

// ==================== 查询 ====================

func TestShopifyController_GetProducts(t *testing.T) {
	api := &fakeShopifyAPI{products: []shopify.Product{
		{ID: 101, Title: "Fuji Tee"},
		{ID: 102, Title: "Wave Tee"},
	}}
	r := setupShopifyRouter(api)

	w := doJSON(t, r, http.MethodGet, "/api/shopify/products", nil)
	if w.Code != 200 {
		t.Fatalf("状态码: %d, body: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Code  int               `json:"code"`
		Data  []shopify.Product `json:"data"`
		Total int               `json:"total"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Code != 0 || resp.Total != 2 || resp.Data[0].ID != 101 {
		t.Errorf("响应: %+v", resp)
	}
}

func TestShopifyController_GetProductsErrorPassthrough(t *testing.T) {
	api := &fakeShopifyAPI{listErr: &shopify.APIError{Status: 401, Body: `{"errors":"Invalid API key"}`}}
	r := setupShopifyRouter(api)

	w := doJSON(t, r, http.MethodGet, "/api/shopify/products", nil)
	if w.Code != 401 {
		t.Errorf("店面状态码应透传: %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("Invalid API key")) {
		t.Errorf("应携带服务端原文: %s", w.Body.String())
	}
}

// ==================== 推送 ====================

func TestShopifyController_Push(t *testing.T) {
	api := &fakeShopifyAPI{}
	r := setupShopifyRouter(api)

	w := doJSON(t, r, http.MethodPost, "/api/shopify/products/101/push", gin.H{
		"title": "Fuji Tee v2",
		"tags":  "japan, mountain",
	})
	if w.Code != 200 {
		t.Fatalf("状态码: %d, body: %s", w.Code, w.Body.String())
	}
	if api.lastPush == nil || api.lastPush.ID != 101 || api.lastPush.Tags != "japan, mountain" {
		t.Errorf("推送负载: %+v", api.lastPush)
	}

	var resp struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data.URL != "https://shop.example.com/products/fuji-tee" {
		t.Errorf("店面链接: %q", resp.Data.URL)
	}
}

func TestShopifyController_PushValidation(t *testing.T) {
	r := setupShopifyRouter(&fakeShopifyAPI{})

	// 非数字 ID → 400
	w := doJSON(t, r, http.MethodPost, "/api/shopify/products/abc/push", gin.H{"title": "x"})
	if w.Code != 400 {
		t.Errorf("坏 ID 状态码: %d", w.Code)
	}

	// 全空字段 → 400
	w = doJSON(t, r, http.MethodPost, "/api/shopify/products/101/push", gin.H{})
	if w.Code != 400 {
		t.Errorf("空负载状态码: %d", w.Code)
	}
}

func TestShopifyController_PushErrorPassthrough(t *testing.T) {
	api := &fakeShopifyAPI{pushErr: &shopify.APIError{Status: 422, Body: `{"errors":{"title":["is too long"]}}`}}
	r := setupShopifyRouter(api)

	w := doJSON(t, r, http.MethodPost, "/api/shopify/products/101/push", gin.H{"title": "x"})
	if w.Code != 422 {
		t.Errorf("推送失败状态码: %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("is too long")) {
		t.Errorf("应携带服务端原文: %s", w.Body.String())
	}
}
