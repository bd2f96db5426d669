package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"printify_dev_v1_202608/internal/model"
	"printify_dev_v1_202608/internal/repository"
)

// ==================== 配置 ====================

// AIConfig AI 服务配置
type AIConfig struct {
	ApiKey     string
	TextModel  string
	ImageModel string
	BaseURL    string // 留空走官方地址，测试时指向 httptest
}

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// ==================== 服务 ====================

type AIService struct {
	Config      *AIConfig
	Storage     *StorageService
	callLogRepo repository.AICallLogRepository
}

// NewAIService 创建 AI 服务
func NewAIService(cfg *AIConfig, storage *StorageService, callLogRepo repository.AICallLogRepository) *AIService {
	// 固定模型配置
	if cfg.TextModel == "" {
		cfg.TextModel = "gemini-2.0-flash"
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = "gemini-2.0-flash-exp-image-generation"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGeminiBaseURL
	}

	return &AIService{
		Config:      cfg,
		Storage:     storage,
		callLogRepo: callLogRepo,
	}
}

func (s *AIService) endpoint(modelName string) string {
	return fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		strings.TrimSuffix(s.Config.BaseURL, "/"), modelName, s.Config.ApiKey)
}

// logCall 写调用日志；日志失败只打印，不影响业务返回
func (s *AIService) logCall(ctx context.Context, entry *model.AICallLog) {
	if s.callLogRepo == nil {
		return
	}
	if err := s.callLogRepo.Create(ctx, entry); err != nil {
		log.Printf("[AI] 写调用日志失败: %v", err)
	}
}

// ==================== 文案生成 ====================

// ListingContent 上架文案生成结果
type ListingContent struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// GenerateListingContent 根据设计稿标题（可带人设）生成店面上架文案
func (s *AIService) GenerateListingContent(ctx context.Context, designSlug, designTitle string, persona *Persona) (*ListingContent, error) {
	if s.Config.ApiKey == "" {
		return nil, fmt.Errorf("Gemini API Key 未配置")
	}

	voice := "friendly e-commerce copywriter"
	audience := "online apparel shoppers"
	keywords := ""
	if persona != nil {
		if persona.Voice != "" {
			voice = persona.Voice
		}
		if persona.Audience != "" {
			audience = persona.Audience
		}
		if len(persona.Keywords) > 0 {
			keywords = "Work in these keywords where natural: " + strings.Join(persona.Keywords, ", ")
		}
	}

	prompt := fmt.Sprintf(`You are a %s writing for %s. Generate optimized listing content for a print-on-demand apparel design:

Design: %s
%s

Requirements:
1. Title: SEO optimized, max 140 characters, include high-traffic keywords
2. Description: Engaging sales copy, 200-400 words, highlight the design and garment quality
3. Tags: 13 relevant tags for search visibility

Output Format (JSON only, no markdown):
{
  "title": "Your SEO Title Here",
  "description": "Your engaging description here...",
  "tags": ["tag1", "tag2", "tag3", "tag4", "tag5", "tag6", "tag7", "tag8", "tag9", "tag10", "tag11", "tag12", "tag13"]
}`, voice, audience, designTitle, keywords)

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]interface{}{{"text": prompt}}},
		},
		"generationConfig": map[string]interface{}{
			"responseMimeType": "application/json",
		},
	}

	startTime := time.Now()
	respBody, err := s.post(ctx, s.endpoint(s.Config.TextModel), reqBody, 60*time.Second)
	if err != nil {
		s.logCall(ctx, &model.AICallLog{
			DesignSlug: designSlug,
			CallType:   model.AICallTypeText,
			ModelName:  s.Config.TextModel,
			DurationMs: time.Since(startTime).Milliseconds(),
			Status:     model.AICallStatusFailed,
			ErrorMsg:   truncate(err.Error(), 1024),
		})
		return nil, err
	}

	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
		UsageMetadata struct {
			PromptTokenCount     int `json:"promptTokenCount"`
			CandidatesTokenCount int `json:"candidatesTokenCount"`
		} `json:"usageMetadata"`
	}
	if err := json.Unmarshal(respBody, &geminiResp); err != nil {
		return nil, fmt.Errorf("解析响应失败: %v", err)
	}
	if len(geminiResp.Candidates) == 0 {
		return nil, fmt.Errorf("无生成结果")
	}

	var jsonText string
	for _, candidate := range geminiResp.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				jsonText = part.Text
				break
			}
		}
	}

	var result ListingContent
	if err := json.Unmarshal([]byte(jsonText), &result); err != nil {
		return nil, fmt.Errorf("解析生成结果失败: %v, raw: %s", err, jsonText)
	}

	s.logCall(ctx, &model.AICallLog{
		DesignSlug:   designSlug,
		CallType:     model.AICallTypeText,
		ModelName:    s.Config.TextModel,
		InputTokens:  geminiResp.UsageMetadata.PromptTokenCount,
		OutputTokens: geminiResp.UsageMetadata.CandidatesTokenCount,
		DurationMs:   time.Since(startTime).Milliseconds(),
		Status:       model.AICallStatusSuccess,
	})

	return &result, nil
}

// SuggestColors 从可选的服装颜色里让模型挑出最配这张设计稿的几个
func (s *AIService) SuggestColors(ctx context.Context, designSlug, designTitle string, available []string, count int) ([]string, error) {
	if s.Config.ApiKey == "" {
		return nil, fmt.Errorf("Gemini API Key 未配置")
	}
	if len(available) == 0 {
		return nil, fmt.Errorf("没有可选颜色")
	}
	if count < 1 {
		count = 4
	}

	prompt := fmt.Sprintf(`You are an apparel merchandiser. A print-on-demand design titled "%s" will be printed on t-shirts.

Available garment colors: %s

Pick the %d colors that best complement the design. Use ONLY colors from the available list, spelled exactly as given.

Output Format (JSON only, no markdown):
{"colors": ["color1", "color2"]}`, designTitle, strings.Join(available, ", "), count)

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]interface{}{{"text": prompt}}},
		},
		"generationConfig": map[string]interface{}{
			"responseMimeType": "application/json",
		},
	}

	startTime := time.Now()
	respBody, err := s.post(ctx, s.endpoint(s.Config.TextModel), reqBody, 60*time.Second)
	if err != nil {
		s.logCall(ctx, &model.AICallLog{
			DesignSlug: designSlug,
			CallType:   model.AICallTypeText,
			ModelName:  s.Config.TextModel,
			DurationMs: time.Since(startTime).Milliseconds(),
			Status:     model.AICallStatusFailed,
			ErrorMsg:   truncate(err.Error(), 1024),
		})
		return nil, err
	}

	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(respBody, &geminiResp); err != nil {
		return nil, fmt.Errorf("解析响应失败: %v", err)
	}

	var jsonText string
	for _, candidate := range geminiResp.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				jsonText = part.Text
				break
			}
		}
	}

	var result struct {
		Colors []string `json:"colors"`
	}
	if err := json.Unmarshal([]byte(jsonText), &result); err != nil {
		return nil, fmt.Errorf("解析生成结果失败: %v, raw: %s", err, jsonText)
	}

	// 模型偶尔会自创颜色名，过滤回可选集合
	allowed := make(map[string]bool, len(available))
	for _, c := range available {
		allowed[strings.ToLower(c)] = true
	}
	picks := make([]string, 0, len(result.Colors))
	for _, c := range result.Colors {
		if allowed[strings.ToLower(c)] {
			picks = append(picks, c)
		}
	}
	if len(picks) == 0 {
		return nil, fmt.Errorf("模型未返回可用颜色, raw: %s", jsonText)
	}

	s.logCall(ctx, &model.AICallLog{
		DesignSlug: designSlug,
		CallType:   model.AICallTypeText,
		ModelName:  s.Config.TextModel,
		DurationMs: time.Since(startTime).Milliseconds(),
		Status:     model.AICallStatusSuccess,
	})

	return picks, nil
}

// ==================== 图片生成 ====================

// GenerateImages 调用 Gemini 多模态能力生成商品图
// 返回 Base64 编码的图片数据
func (s *AIService) GenerateImages(ctx context.Context, designSlug, prompt, referenceImageURL string, count int) ([]string, error) {
	if s.Config.ApiKey == "" {
		return nil, fmt.Errorf("Gemini API Key 未配置")
	}
	if count < 1 {
		count = 1
	}

	// 下载参考图片
	var referenceImageData []byte
	var referenceImageMimeType string
	if referenceImageURL != "" {
		data, mimeType, err := downloadImageData(ctx, referenceImageURL)
		if err != nil {
			log.Printf("[AI] 下载参考图片失败: %v, 继续使用纯文本生成", err)
		} else {
			referenceImageData = data
			referenceImageMimeType = mimeType
		}
	}

	fullPrompt := fmt.Sprintf(`You are a professional product photographer.
Generate a high-quality product image based on the following description:

%s

Requirements:
- Professional studio lighting
- Clean, appealing composition
- High resolution, suitable for e-commerce
- Focus on product details and quality`, prompt)

	startTime := time.Now()
	images := make([]string, 0, count)
	var lastErr error

	for i := 0; i < count; i++ {
		imageData, err := s.callGeminiImageGeneration(ctx, fullPrompt, referenceImageData, referenceImageMimeType)
		if err != nil {
			log.Printf("[AI] 生成第 %d 张图片失败: %v", i+1, err)
			lastErr = err
			continue
		}
		images = append(images, imageData)

		// 避免请求过快
		if i < count-1 {
			time.Sleep(500 * time.Millisecond)
		}
	}

	entry := &model.AICallLog{
		DesignSlug: designSlug,
		CallType:   model.AICallTypeImage,
		ModelName:  s.Config.ImageModel,
		ImageCount: len(images),
		DurationMs: time.Since(startTime).Milliseconds(),
		Status:     model.AICallStatusSuccess,
	}
	if len(images) == 0 {
		entry.Status = model.AICallStatusFailed
		if lastErr != nil {
			entry.ErrorMsg = truncate(lastErr.Error(), 1024)
		}
		s.logCall(ctx, entry)
		return nil, fmt.Errorf("所有图片生成均失败")
	}
	s.logCall(ctx, entry)

	return images, nil
}

// callGeminiImageGeneration 调用 Gemini 图片生成API
func (s *AIService) callGeminiImageGeneration(ctx context.Context, prompt string, referenceImage []byte, mimeType string) (string, error) {
	parts := []map[string]interface{}{
		{"text": prompt},
	}

	// 如果有参考图片，添加到请求中
	if len(referenceImage) > 0 {
		parts = append(parts, map[string]interface{}{
			"inline_data": map[string]interface{}{
				"mime_type": mimeType,
				"data":      base64.StdEncoding.EncodeToString(referenceImage),
			},
		})
	}

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": parts},
		},
		"generationConfig": map[string]interface{}{
			"responseModalities": []string{"TEXT", "IMAGE"},
		},
	}

	respBody, err := s.post(ctx, s.endpoint(s.Config.ImageModel), reqBody, 60*time.Second)
	if err != nil {
		return "", err
	}

	// 解析响应，提取生成的图片
	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text       string `json:"text,omitempty"`
					InlineData *struct {
						MimeType string `json:"mimeType"`
						Data     string `json:"data"`
					} `json:"inlineData,omitempty"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(respBody, &geminiResp); err != nil {
		return "", fmt.Errorf("解析响应失败: %v", err)
	}
	if geminiResp.Error != nil {
		return "", fmt.Errorf("API错误: %s", geminiResp.Error.Message)
	}

	for _, candidate := range geminiResp.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && part.InlineData.Data != "" {
				return part.InlineData.Data, nil
			}
		}
	}

	return "", fmt.Errorf("响应中未找到图片数据")
}

// ==================== 图片上传辅助 ====================

// GenerateAndUploadImages 生成图片并上传到存储
func (s *AIService) GenerateAndUploadImages(ctx context.Context, designSlug, prompt, referenceImageURL string, count int, prefix string) ([]string, error) {
	if s.Storage == nil {
		return nil, fmt.Errorf("StorageService 未配置")
	}

	base64Images, err := s.GenerateImages(ctx, designSlug, prompt, referenceImageURL, count)
	if err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(base64Images))
	for i, imgData := range base64Images {
		url, err := s.Storage.SaveBase64(imgData, fmt.Sprintf("%s_%d", prefix, i))
		if err != nil {
			log.Printf("[AI] 上传第 %d 张图片失败: %v", i+1, err)
			continue
		}
		urls = append(urls, url)
	}

	return urls, nil
}

// ==================== 工具函数 ====================

func (s *AIService) post(ctx context.Context, url string, reqBody interface{}, timeout time.Duration) ([]byte, error) {
	bodyBytes, _ := json.Marshal(reqBody)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("请求失败: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Gemini API 错误 [%d]: %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func downloadImageData(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("下载失败: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("下载失败: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("读取失败: %v", err)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	return data, mimeType, nil
}
