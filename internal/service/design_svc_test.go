package service

import (
	"testing"

	"printify_dev_v1_202608/internal/storage"
)

func newDesignTestService(t *testing.T) *DesignService {
	t.Helper()
	store, err := storage.NewJSONStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewDesignService(store)
}

func TestSlugify(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Mount Fuji Tee!", "mount-fuji-tee"},
		{"  Wave -- Hoodie  ", "wave-hoodie"},
		{"日本", ""},
		{"ALREADY-fine", "already-fine"},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDesignService_CreateAndGet(t *testing.T) {
	svc := newDesignTestService(t)

	created, err := svc.Create(&Design{Title: "Mount Fuji Tee", DesignPNGPath: "designs/fuji.png"})
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	if created.Slug != "mount-fuji-tee" {
		t.Errorf("slug 生成: %q", created.Slug)
	}
	if created.Status != DesignStatusDraft {
		t.Errorf("初始状态: %q", created.Status)
	}
	if created.CreatedAt == "" || created.Tags == nil {
		t.Errorf("缺省字段未填: %+v", created)
	}

	got, err := svc.Get("mount-fuji-tee")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Title != "Mount Fuji Tee" {
		t.Errorf("读取: %+v", got)
	}

	missing, err := svc.Get("ghost")
	if err != nil || missing != nil {
		t.Errorf("不存在应返回 nil: %v %v", missing, err)
	}
}

func TestDesignService_CreateDuplicateRejected(t *testing.T) {
	svc := newDesignTestService(t)
	if _, err := svc.Create(&Design{Title: "Fuji"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(&Design{Title: "Fuji"}); err == nil {
		t.Error("重名应报错")
	}
}

func TestDesignService_CreateNeedsTitleOrSlug(t *testing.T) {
	svc := newDesignTestService(t)
	if _, err := svc.Create(&Design{}); err == nil {
		t.Error("无标题无 slug 应报错")
	}
}

func TestDesignService_UpdatePartial(t *testing.T) {
	svc := newDesignTestService(t)
	created, _ := svc.Create(&Design{Title: "Fuji", Notes: "v1"})

	updated, err := svc.Update("fuji", map[string]interface{}{
		"notes":      "v2",
		"slug":       "hacked",
		"created_at": "1999-01-01T00:00:00Z",
	})
	if err != nil {
		t.Fatalf("更新失败: %v", err)
	}
	if updated.Notes != "v2" {
		t.Errorf("notes 未更新: %q", updated.Notes)
	}
	if updated.Slug != "fuji" {
		t.Errorf("slug 不可改: %q", updated.Slug)
	}
	if updated.CreatedAt != created.CreatedAt {
		t.Errorf("created_at 不可改: %q", updated.CreatedAt)
	}
	if updated.Title != "Fuji" {
		t.Errorf("未触及字段应保留: %q", updated.Title)
	}

	if _, err := svc.Update("ghost", map[string]interface{}{"notes": "x"}); err == nil {
		t.Error("不存在应报错")
	}
}

func TestDesignService_SetGenerated(t *testing.T) {
	svc := newDesignTestService(t)
	svc.Create(&Design{Title: "Fuji"})

	d, err := svc.SetGenerated("fuji", &DesignGenerated{
		Title:       "Mount Fuji Sunrise Tee",
		Description: "A scenic print.",
		Tags:        []string{"japan", "mountain"},
		Colors:      []string{"Black", "Navy"},
	})
	if err != nil {
		t.Fatalf("写入生成结果失败: %v", err)
	}
	if d.Status != DesignStatusGenerated {
		t.Errorf("状态应推进: %q", d.Status)
	}
	if d.Generated == nil || d.Generated.GeneratedAt == "" {
		t.Errorf("生成时间未填: %+v", d.Generated)
	}

	// 落盘后可读回
	got, _ := svc.Get("fuji")
	if got.Generated == nil || got.Generated.Title != "Mount Fuji Sunrise Tee" {
		t.Errorf("生成结果未落盘: %+v", got.Generated)
	}

	// 已上架状态不回退
	svc.Update("fuji", map[string]interface{}{"status": DesignStatusListed})
	d, _ = svc.SetGenerated("fuji", &DesignGenerated{Title: "v2"})
	if d.Status != DesignStatusListed {
		t.Errorf("listed 状态不应被拉回: %q", d.Status)
	}
}

func TestDesignService_Delete(t *testing.T) {
	svc := newDesignTestService(t)
	svc.Create(&Design{Title: "Fuji"})

	removed, err := svc.Delete("fuji")
	if err != nil || !removed {
		t.Fatalf("删除失败: %v %v", removed, err)
	}
	removed, _ = svc.Delete("fuji")
	if removed {
		t.Error("重复删除应返回 false")
	}
}

func TestPersonaService_CRUD(t *testing.T) {
	store, err := storage.NewJSONStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	svc := NewPersonaService(store)

	if err := svc.Upsert(&Persona{}); err == nil {
		t.Error("无名称应报错")
	}

	err = svc.Upsert(&Persona{
		Name:     "Minimal Japan",
		Voice:    "calm, sparse",
		Audience: "minimalism fans",
	})
	if err != nil {
		t.Fatalf("写入失败: %v", err)
	}

	got, err := svc.Get("Minimal Japan")
	if err != nil || got == nil {
		t.Fatalf("读取失败: %v %v", got, err)
	}
	if got.Voice != "calm, sparse" || got.Keywords == nil {
		t.Errorf("记录内容: %+v", got)
	}

	list, _ := svc.List()
	if len(list) != 1 {
		t.Errorf("列表条数: %d", len(list))
	}

	removed, _ := svc.Delete("minimal-japan")
	if !removed {
		t.Error("按 slug 删除失败")
	}
}
