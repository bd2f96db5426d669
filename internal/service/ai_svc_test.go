package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"printify_dev_v1_202608/internal/model"
	"printify_dev_v1_202608/internal/repository"
)

func TestNewAIService_DefaultConfig(t *testing.T) {
	svc := NewAIService(&AIConfig{}, nil, nil)

	if svc.Config.TextModel != "gemini-2.0-flash" {
		t.Errorf("默认 TextModel 不正确: got %s", svc.Config.TextModel)
	}
	if svc.Config.ImageModel != "gemini-2.0-flash-exp-image-generation" {
		t.Errorf("默认 ImageModel 不正确: got %s", svc.Config.ImageModel)
	}
	if svc.Config.BaseURL == "" {
		t.Error("默认 BaseURL 为空")
	}
}

func newAILogRepo(t *testing.T) repository.AICallLogRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&model.AICallLog{}); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}
	return repository.NewAICallLogRepository(db)
}

// 假 Gemini 服务：文本模型返回 JSON 文案，图片模型返回 inlineData
func newFakeGemini(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(r.URL.Path, "image") {
			w.Write([]byte(`{"candidates": [{"content": {"parts": [
				{"inlineData": {"mimeType": "image/png", "data": "aW1hZ2UtYnl0ZXM="}}
			]}}]}`))
			return
		}
		w.Write([]byte(`{
			"candidates": [{"content": {"parts": [{"text": "{\"title\": \"Mount Fuji Sunrise Tee\", \"description\": \"A scenic print.\", \"tags\": [\"japan\", \"mountain\"]}"}]}}],
			"usageMetadata": {"promptTokenCount": 120, "candidatesTokenCount": 80}
		}`))
	}))
}

func TestAIService_GenerateListingContent(t *testing.T) {
	srv := newFakeGemini(t)
	defer srv.Close()

	logRepo := newAILogRepo(t)
	svc := NewAIService(&AIConfig{ApiKey: "k", BaseURL: srv.URL}, nil, logRepo)

	result, err := svc.GenerateListingContent(context.Background(), "fuji", "Mount Fuji", &Persona{
		Voice:    "calm, sparse",
		Audience: "minimalism fans",
		Keywords: []string{"japan", "zen"},
	})
	if err != nil {
		t.Fatalf("GenerateListingContent() error = %v", err)
	}

	if result.Title != "Mount Fuji Sunrise Tee" {
		t.Errorf("标题: %q", result.Title)
	}
	if result.Description == "" || len(result.Tags) != 2 {
		t.Errorf("结果: %+v", result)
	}

	// 调用日志应落库
	logs, err := logRepo.ListByDesign(context.Background(), "fuji", 10)
	if err != nil || len(logs) != 1 {
		t.Fatalf("调用日志: %v %d", err, len(logs))
	}
	entry := logs[0]
	if entry.CallType != model.AICallTypeText || entry.Status != model.AICallStatusSuccess {
		t.Errorf("日志内容: %+v", entry)
	}
	if entry.InputTokens != 120 || entry.OutputTokens != 80 {
		t.Errorf("token 统计: %+v", entry)
	}
}

func TestAIService_GenerateListingContent_APIErrorLogged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "quota exceeded"}}`))
	}))
	defer srv.Close()

	logRepo := newAILogRepo(t)
	svc := NewAIService(&AIConfig{ApiKey: "k", BaseURL: srv.URL}, nil, logRepo)

	_, err := svc.GenerateListingContent(context.Background(), "fuji", "Mount Fuji", nil)
	if err == nil {
		t.Fatal("非 2xx 应报错")
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("错误应携带服务端原文: %v", err)
	}

	logs, _ := logRepo.ListByDesign(context.Background(), "fuji", 10)
	if len(logs) != 1 || logs[0].Status != model.AICallStatusFailed {
		t.Errorf("失败也应落日志: %+v", logs)
	}
}

func TestAIService_GenerateImages(t *testing.T) {
	srv := newFakeGemini(t)
	defer srv.Close()

	logRepo := newAILogRepo(t)
	svc := NewAIService(&AIConfig{ApiKey: "k", BaseURL: srv.URL}, nil, logRepo)

	images, err := svc.GenerateImages(context.Background(), "fuji", "tee mockup", "", 1)
	if err != nil {
		t.Fatalf("GenerateImages() error = %v", err)
	}
	if len(images) != 1 || images[0] != "aW1hZ2UtYnl0ZXM=" {
		t.Errorf("图片结果: %v", images)
	}

	logs, _ := logRepo.ListByDesign(context.Background(), "fuji", 10)
	if len(logs) != 1 || logs[0].CallType != model.AICallTypeImage || logs[0].ImageCount != 1 {
		t.Errorf("图片调用日志: %+v", logs)
	}
}

func TestAIService_GenerateImages_RequestBodyShape(t *testing.T) {
	var captured map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates": [{"content": {"parts": [
			{"inlineData": {"mimeType": "image/png", "data": "eA=="}}
		]}}]}`))
	}))
	defer srv.Close()

	svc := NewAIService(&AIConfig{ApiKey: "k", BaseURL: srv.URL, ImageModel: "image-model"}, nil, nil)
	if _, err := svc.GenerateImages(context.Background(), "fuji", "prompt", "", 1); err != nil {
		t.Fatal(err)
	}

	gen, ok := captured["generationConfig"].(map[string]interface{})
	if !ok {
		t.Fatalf("缺 generationConfig: %v", captured)
	}
	modalities, _ := gen["responseModalities"].([]interface{})
	if len(modalities) != 2 {
		t.Errorf("responseModalities: %v", modalities)
	}
}

func TestAIService_SuggestColors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates": [{"content": {"parts": [
			{"text": "{\"colors\": [\"Black\", \"Heather Navy\", \"Neon Pink\"]}"}
		]}}]}`))
	}))
	defer srv.Close()

	svc := NewAIService(&AIConfig{ApiKey: "k", BaseURL: srv.URL}, nil, nil)

	picks, err := svc.SuggestColors(context.Background(), "fuji", "Mount Fuji",
		[]string{"Black", "White", "Heather Navy"}, 2)
	if err != nil {
		t.Fatalf("SuggestColors() error = %v", err)
	}
	// "Neon Pink" 不在可选集合里，应被过滤
	if len(picks) != 2 || picks[0] != "Black" || picks[1] != "Heather Navy" {
		t.Errorf("颜色挑选: %v", picks)
	}

	if _, err := svc.SuggestColors(context.Background(), "fuji", "x", nil, 2); err == nil {
		t.Error("无可选颜色应报错")
	}
}

func TestAIService_GenerateImages_NoAPIKey(t *testing.T) {
	svc := NewAIService(&AIConfig{ApiKey: ""}, nil, nil)

	_, err := svc.GenerateImages(context.Background(), "fuji", "test prompt", "", 1)
	if err == nil {
		t.Error("期望返回错误，但未返回")
	}
}

func TestAIService_GenerateListingContent_NoAPIKey(t *testing.T) {
	svc := NewAIService(&AIConfig{ApiKey: ""}, nil, nil)

	_, err := svc.GenerateListingContent(context.Background(), "fuji", "test", nil)
	if err == nil {
		t.Error("期望返回错误，但未返回")
	}
}
