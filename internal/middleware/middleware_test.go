package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ==================== CORS ====================

func TestCORS_Headers(t *testing.T) {
	r := gin.New()
	r.Use(CORS())
	r.GET("/ping", func(c *gin.Context) { c.String(200, "pong") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if w.Code != 200 {
		t.Fatalf("状态码: %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin: %q", got)
	}
}

func TestCORS_Preflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS())
	r.POST("/ping", func(c *gin.Context) { c.String(200, "pong") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/ping", nil))

	if w.Code != http.StatusNoContent {
		t.Errorf("预检状态码: %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got == "" {
		t.Error("预检缺少 Allow-Methods")
	}
}

// ==================== 冷却限流 ====================

func TestCooldownLimiter_Check(t *testing.T) {
	limiter := &CooldownLimiter{}

	first := limiter.Check("design:fuji:ai_text", time.Minute)
	if !first.Allowed {
		t.Fatal("首次请求应放行")
	}

	second := limiter.Check("design:fuji:ai_text", time.Minute)
	if second.Allowed {
		t.Fatal("冷却期内应拒绝")
	}
	if second.RetryAfter <= 0 || second.RetryAfter > time.Minute {
		t.Errorf("剩余冷却时间异常: %v", second.RetryAfter)
	}

	// 其他 key 互不影响
	other := limiter.Check("design:wave:ai_text", time.Minute)
	if !other.Allowed {
		t.Error("不同 key 不应被连带限流")
	}

	// 重置后放行
	limiter.Reset("design:fuji:ai_text")
	if !limiter.Check("design:fuji:ai_text", time.Minute).Allowed {
		t.Error("重置后应放行")
	}
}

func TestCooldownLimiter_CheckOnly(t *testing.T) {
	limiter := &CooldownLimiter{}

	// CheckOnly 不应占用配额
	if !limiter.CheckOnly("global:catalog_refresh", time.Minute).Allowed {
		t.Fatal("未执行过的 key 应放行")
	}
	if !limiter.Check("global:catalog_refresh", time.Minute).Allowed {
		t.Fatal("CheckOnly 不应更新最后执行时间")
	}
	if limiter.CheckOnly("global:catalog_refresh", time.Minute).Allowed {
		t.Error("执行后冷却期内 CheckOnly 应拒绝")
	}
}

func TestActionCooldown_Middleware(t *testing.T) {
	// 用独立的 action 避免和全局限流器里其他测试的 key 撞上
	r := gin.New()
	r.POST("/designs/:slug/ai/metadata",
		ActionCooldown(ActionType("test_meta"), time.Hour),
		func(c *gin.Context) { c.JSON(200, gin.H{"code": 0}) },
	)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/designs/fuji/ai/metadata", nil))
	if w.Code != 200 {
		t.Fatalf("首次请求状态码: %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/designs/fuji/ai/metadata", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("冷却期内状态码: %d", w.Code)
	}

	// 其他设计稿不受影响
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/designs/wave/ai/metadata", nil))
	if w.Code != 200 {
		t.Errorf("其他 slug 状态码: %d", w.Code)
	}
}

func TestFormatRetryMessage(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "操作冷却中，请 30 秒后重试"},
		{2 * time.Minute, "操作冷却中，请 2 分钟后重试"},
		{90 * time.Second, "操作冷却中，请 1 分 30 秒后重试"},
	}
	for _, tc := range cases {
		if got := formatRetryMessage(tc.d); got != tc.want {
			t.Errorf("formatRetryMessage(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}
