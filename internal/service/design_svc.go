package service

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"printify_dev_v1_202608/internal/storage"
)

// ==================== 设计稿 ====================

const designCollection = "designs"

// DesignStatus 设计稿状态机：草稿 → 已生成元数据 → 已上架
const (
	DesignStatusDraft     = "draft"
	DesignStatusGenerated = "generated"
	DesignStatusListed    = "listed"
)

// Design 设计稿记录
type Design struct {
	Slug          string   `json:"slug"`
	Title         string   `json:"title"`
	DesignPNGPath string   `json:"design_png_path"`
	Collections   []string `json:"collections"`
	Tags          []string `json:"tags"`
	Notes         string   `json:"notes"`
	Status        string   `json:"status"`
	Persona       string   `json:"persona"`

	// AI 生成的上架元数据
	Generated *DesignGenerated `json:"generated,omitempty"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// DesignGenerated AI 生成的文案与配色
type DesignGenerated struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Colors      []string `json:"colors"`
	MockupPaths []string `json:"mockup_paths"`
	GeneratedAt string   `json:"generated_at"`
}

// ==================== 服务 ====================

// DesignService 设计稿 CRUD，落 JSON 集合
type DesignService struct {
	store *storage.JSONStore
	now   func() time.Time
}

// NewDesignService 创建设计稿服务
func NewDesignService(store *storage.JSONStore) *DesignService {
	return &DesignService{store: store, now: time.Now}
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify 标题转 slug："Mount Fuji Tee!" → "mount-fuji-tee"
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugPattern.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

func (s *DesignService) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func toRecord(d *Design) (storage.Record, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	var rec storage.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func fromRecord(rec storage.Record) (*Design, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	var d Design
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Create 新建设计稿；slug 缺省从标题生成，重名直接报错
func (s *DesignService) Create(d *Design) (*Design, error) {
	if d.Slug == "" {
		d.Slug = Slugify(d.Title)
	}
	if d.Slug == "" {
		return nil, fmt.Errorf("设计稿缺少 slug 和标题")
	}

	existing, err := s.store.Get(designCollection, d.Slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("设计稿 %s 已存在", d.Slug)
	}

	if d.Status == "" {
		d.Status = DesignStatusDraft
	}
	if d.Collections == nil {
		d.Collections = []string{}
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	d.CreatedAt = s.timestamp()
	d.UpdatedAt = d.CreatedAt

	rec, err := toRecord(d)
	if err != nil {
		return nil, err
	}
	if err := s.store.Upsert(designCollection, d.Slug, rec); err != nil {
		return nil, err
	}
	return d, nil
}

// List 全部设计稿
func (s *DesignService) List() ([]*Design, error) {
	records, err := s.store.List(designCollection)
	if err != nil {
		return nil, err
	}

	out := make([]*Design, 0, len(records))
	for _, rec := range records {
		d, err := fromRecord(rec)
		if err != nil {
			continue // 手工编辑过的坏记录跳过，不拖垮整个列表
		}
		out = append(out, d)
	}
	return out, nil
}

// Get 按 slug 取单条，不存在返回 (nil, nil)
func (s *DesignService) Get(slug string) (*Design, error) {
	rec, err := s.store.Get(designCollection, slug)
	if err != nil || rec == nil {
		return nil, err
	}
	return fromRecord(rec)
}

// Update 部分更新：只覆盖 patch 里出现的字段
func (s *DesignService) Update(slug string, patch map[string]interface{}) (*Design, error) {
	rec, err := s.store.Get(designCollection, slug)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("设计稿 %s 不存在", slug)
	}

	for k, v := range patch {
		if k == "slug" || k == "created_at" {
			continue // 主键和创建时间不可改
		}
		rec[k] = v
	}
	rec["updated_at"] = s.timestamp()

	if err := s.store.Upsert(designCollection, slug, rec); err != nil {
		return nil, err
	}
	return fromRecord(rec)
}

// SetGenerated 写入 AI 生成结果并推进状态
func (s *DesignService) SetGenerated(slug string, gen *DesignGenerated) (*Design, error) {
	d, err := s.Get(slug)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("设计稿 %s 不存在", slug)
	}

	gen.GeneratedAt = s.timestamp()
	d.Generated = gen
	if d.Status == DesignStatusDraft {
		d.Status = DesignStatusGenerated
	}
	d.UpdatedAt = s.timestamp()

	rec, err := toRecord(d)
	if err != nil {
		return nil, err
	}
	if err := s.store.Upsert(designCollection, slug, rec); err != nil {
		return nil, err
	}
	return d, nil
}

// Delete 删除设计稿
func (s *DesignService) Delete(slug string) (bool, error) {
	return s.store.Delete(designCollection, slug)
}

// ==================== 人设 ====================

const personaCollection = "personas"

// Persona 文案人设：喂给 AI 的语气与受众预设
type Persona struct {
	Name     string   `json:"name"`
	Voice    string   `json:"voice"`
	Audience string   `json:"audience"`
	Keywords []string `json:"keywords"`
}

// PersonaService 人设 CRUD
type PersonaService struct {
	store *storage.JSONStore
}

// NewPersonaService 创建人设服务
func NewPersonaService(store *storage.JSONStore) *PersonaService {
	return &PersonaService{store: store}
}

func (s *PersonaService) List() ([]*Persona, error) {
	records, err := s.store.List(personaCollection)
	if err != nil {
		return nil, err
	}

	out := make([]*Persona, 0, len(records))
	for _, rec := range records {
		raw, _ := json.Marshal(rec)
		var p Persona
		if err := json.Unmarshal(raw, &p); err != nil {
			continue
		}
		out = append(out, &p)
	}
	return out, nil
}

func (s *PersonaService) Get(name string) (*Persona, error) {
	rec, err := s.store.Get(personaCollection, Slugify(name))
	if err != nil || rec == nil {
		return nil, err
	}
	raw, _ := json.Marshal(rec)
	var p Persona
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PersonaService) Upsert(p *Persona) error {
	if p.Name == "" {
		return fmt.Errorf("人设缺少名称")
	}
	if p.Keywords == nil {
		p.Keywords = []string{}
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	var rec storage.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return err
	}
	return s.store.Upsert(personaCollection, Slugify(p.Name), rec)
}

func (s *PersonaService) Delete(name string) (bool, error) {
	return s.store.Delete(personaCollection, Slugify(name))
}
