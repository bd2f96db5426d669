package printify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	client := NewClient(&Config{
		APIToken: "test-token",
		ShopID:   "8888",
		BaseURL:  srv.URL,
	})
	return client, srv
}

// ==================== 错误语义 ====================

func TestClient_APIErrorEchoesBody(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"print_areas[0].placeholders must not be empty"}`))
	}))
	defer srv.Close()

	_, err := client.CreateProduct(context.Background(), &CreationPayload{})
	if err == nil {
		t.Fatal("非 2xx 必须报错")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("期望 *APIError，实际 %T", err)
	}
	if apiErr.Status != 422 {
		t.Errorf("状态码: %d", apiErr.Status)
	}
	if !strings.Contains(apiErr.Body, "placeholders must not be empty") {
		t.Errorf("必须携带服务端原文: %q", apiErr.Body)
	}
	if !strings.Contains(apiErr.Error(), "422") {
		t.Errorf("Error() 应包含状态码: %q", apiErr.Error())
	}
}

// ==================== 商品读写 ====================

func TestClient_GetProduct(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/shops/8888/products/tpl-1.json" {
			t.Errorf("路径错误: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("鉴权头错误: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "tpl-1", "title": "Tee", "blueprint_id": 6, "variants": [{"id": "42"}]}`))
	}))
	defer srv.Close()

	p, err := client.GetProduct(context.Background(), "tpl-1")
	if err != nil {
		t.Fatalf("拉取失败: %v", err)
	}
	if p.ID != "tpl-1" || p.Title != "Tee" || *p.BlueprintID != 6 {
		t.Errorf("解析错误: %+v", p)
	}
	if p.Variants[0].ID.Or(0) != 42 {
		t.Errorf("容错变体 ID: %+v", p.Variants[0])
	}
}

func TestClient_ListProductsClampsLimit(t *testing.T) {
	var gotQuery string
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": [{"id": "p1"}], "current_page": 1, "last_page": 1}`))
	}))
	defer srv.Close()

	list, err := client.ListProducts(context.Background(), 0, 500)
	if err != nil {
		t.Fatalf("列表失败: %v", err)
	}
	if !strings.Contains(gotQuery, "page=1") || !strings.Contains(gotQuery, "limit=100") {
		t.Errorf("page/limit 应夹紧: %q", gotQuery)
	}
	if len(list.Items()) != 1 {
		t.Errorf("条目数: %d", len(list.Items()))
	}
}

func TestClient_CreateProductSendsPayload(t *testing.T) {
	var received CreationPayload
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("方法错误: %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("负载解码失败: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "new-1"}`))
	}))
	defer srv.Close()

	created, err := client.CreateProduct(context.Background(), &CreationPayload{
		BlueprintID:     6,
		PrintProviderID: 99,
		Title:           "Tee",
		Tags:            []string{},
		Variants:        []PayloadVariant{{ID: 1, IsEnabled: true, IsDefault: true}},
	})
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	if created.ID != "new-1" {
		t.Errorf("返回结构: %+v", created)
	}
	if received.BlueprintID != 6 || received.Variants[0].ID != 1 {
		t.Errorf("下发负载: %+v", received)
	}
	if received.Tags == nil {
		t.Error("空 tags 应下发 [] 而不是 null")
	}
}

// ==================== 媒体库 ====================

func TestClient_UploadImageByURL(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/uploads/images.json" {
			t.Errorf("路径错误: %s", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["url"] != "https://x/a.png" || body["file_name"] != "a.png" {
			t.Errorf("上传负载: %v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "media-1", "file_name": "a.png"}`))
	}))
	defer srv.Close()

	up, err := client.UploadImageByURL(context.Background(), "https://x/a.png", "a.png")
	if err != nil {
		t.Fatalf("上传失败: %v", err)
	}
	if up.ID != "media-1" {
		t.Errorf("媒体 ID: %+v", up)
	}
}

func TestClient_UploadImageByURL_DefaultFileName(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["file_name"] != "art.png" {
			t.Errorf("缺省文件名: %v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "media-2"}`))
	}))
	defer srv.Close()

	if _, err := client.UploadImageByURL(context.Background(), "https://x/a.png", ""); err != nil {
		t.Fatalf("上传失败: %v", err)
	}
}

func TestClient_UploadImageFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "design.png")
	content := []byte("fake-png-bytes")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["file_name"] != "design.png" {
			t.Errorf("文件名: %v", body["file_name"])
		}
		decoded, err := base64.StdEncoding.DecodeString(body["contents"])
		if err != nil || string(decoded) != string(content) {
			t.Errorf("contents 应为 base64 文件内容")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "media-3"}`))
	}))
	defer srv.Close()

	up, err := client.UploadImageFile(context.Background(), path, "")
	if err != nil {
		t.Fatalf("上传失败: %v", err)
	}
	if up.ID != "media-3" {
		t.Errorf("媒体 ID: %+v", up)
	}
}

// ==================== 目录 ====================

func TestClient_GetBlueprintProviderVariants(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/catalog/blueprints/6/print_providers/99/variants.json" {
			t.Errorf("路径错误: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"variants": [{"id": 1, "title": "Black / S", "options": {"color": "Black"}}]}`))
	}))
	defer srv.Close()

	bv, err := client.GetBlueprintProviderVariants(context.Background(), 6, 99)
	if err != nil {
		t.Fatalf("目录查询失败: %v", err)
	}
	if len(bv.Variants) != 1 || bv.Variants[0].Options.ColorTitle() != "Black" {
		t.Errorf("目录变体: %+v", bv.Variants)
	}
}

func TestClient_PublishDefaultsAllFields(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/shops/8888/products/p1/publish.json" {
			t.Errorf("路径错误: %s", r.URL.Path)
		}
		var body PublishDetails
		json.NewDecoder(r.Body).Decode(&body)
		if !body.Title || !body.Description || !body.Images || !body.Variants || !body.Tags {
			t.Errorf("缺省发布应同步全部字段: %+v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	if err := client.PublishToShopify(context.Background(), "p1", nil); err != nil {
		t.Fatalf("发布失败: %v", err)
	}
}
