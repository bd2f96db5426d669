package printify

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ==========================================
// DTO: 用于接收 Printify API 返回的原始 JSON 数据
// 模板商品的字段形状不稳定（数字可能是字符串、对象可能是数组），
// 所以这里统一用容错类型在边界上归一化，业务层只看一种形状
// ==========================================

// ==================== 容错标量 ====================

// FlexInt 容错整数
// 接受 JSON 数字或数字字符串（"19.99" 按四舍五入处理）；
// 其他形状一律解析为"缺失"，由调用方决定默认值，绝不让整个解码失败
type FlexInt struct {
	val int
	ok  bool
}

// NewFlexInt 构造一个有效值（测试和内部组装用）
func NewFlexInt(v int) FlexInt {
	return FlexInt{val: v, ok: true}
}

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	f.val, f.ok = 0, false

	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		return nil
	}

	if s[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return nil
		}
		s = strings.TrimSpace(str)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}

	f.val = int(math.Round(v))
	f.ok = true
	return nil
}

func (f FlexInt) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.val)
}

// Or 取值，无效时返回默认值
func (f FlexInt) Or(def int) int {
	if f.ok {
		return f.val
	}
	return def
}

// Valid 是否解析成功
func (f FlexInt) Valid() bool { return f.ok }

// FlexFloat 容错浮点数，规则同 FlexInt
type FlexFloat struct {
	val float64
	ok  bool
}

// NewFlexFloat 构造一个有效值
func NewFlexFloat(v float64) FlexFloat {
	return FlexFloat{val: v, ok: true}
}

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	f.val, f.ok = 0, false

	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		return nil
	}

	if s[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return nil
		}
		s = strings.TrimSpace(str)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}

	f.val = v
	f.ok = true
	return nil
}

func (f FlexFloat) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.val)
}

// Or 取值，无效时返回默认值
func (f FlexFloat) Or(def float64) float64 {
	if f.ok {
		return f.val
	}
	return def
}

// Valid 是否解析成功
func (f FlexFloat) Valid() bool { return f.ok }

// RoundInt 四舍五入取整，无效时返回默认值
func (f FlexFloat) RoundInt(def int) int {
	if f.ok {
		return int(math.Round(f.val))
	}
	return def
}

// FlexString 容错字符串：只接受 JSON 字符串，其他形状视为缺失
// 用于 background / decoration_method 这类"是字符串才保留"的字段
type FlexString struct {
	val string
	ok  bool
}

func (f *FlexString) UnmarshalJSON(data []byte) error {
	f.val, f.ok = "", false

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	f.val = s
	f.ok = true
	return nil
}

func (f FlexString) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.val)
}

func (f FlexString) String() string {
	if f.ok {
		return f.val
	}
	return ""
}

// ==================== 容错复合结构 ====================

// ImageRef 图片引用：上游可能给对象 {src, url, name}，也可能直接给字符串
type ImageRef struct {
	Src  string
	Name string
}

func (r *ImageRef) UnmarshalJSON(data []byte) error {
	r.Src, r.Name = "", ""

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		r.Src = strings.TrimSpace(s)
		return nil
	}

	var obj struct {
		Src  FlexString `json:"src"`
		URL  FlexString `json:"url"`
		Name FlexString `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil
	}
	r.Src = obj.Src.String()
	if r.Src == "" {
		r.Src = obj.URL.String()
	}
	r.Name = obj.Name.String()
	return nil
}

// ExternalRef 外部渠道引用：对象 {handle, id} 或裸 handle 字符串
type ExternalRef struct {
	Handle string
	ID     string
}

func (r *ExternalRef) UnmarshalJSON(data []byte) error {
	r.Handle, r.ID = "", ""

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		r.Handle = strings.TrimSpace(s)
		return nil
	}

	var obj struct {
		Handle        FlexString `json:"handle"`
		ShopifyHandle FlexString `json:"shopify_handle"`
		ProductHandle FlexString `json:"product_handle"`
		ID            FlexString `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil
	}
	r.Handle = obj.Handle.String()
	if r.Handle == "" {
		r.Handle = obj.ShopifyHandle.String()
	}
	if r.Handle == "" {
		r.Handle = obj.ProductHandle.String()
	}
	r.ID = obj.ID.String()
	return nil
}

// OptionAssign 变体的选项赋值
// v1 API 有两种形状：字典 {"color": "Black", "size": "M"}
// 或数组 [{"name": "Color", "value": "Black"}, ...]；偶尔还会是纯 ID 数组，直接忽略
type OptionAssign struct {
	byName map[string]string
}

func (o *OptionAssign) UnmarshalJSON(data []byte) error {
	o.byName = nil

	var asMap map[string]json.RawMessage
	if err := json.Unmarshal(data, &asMap); err == nil {
		for k, raw := range asMap {
			var v FlexString
			_ = v.UnmarshalJSON(raw)
			if v.String() != "" {
				o.set(k, v.String())
			}
		}
		return nil
	}

	var asList []struct {
		Name  FlexString `json:"name"`
		Value FlexString `json:"value"`
		Title FlexString `json:"title"`
	}
	if err := json.Unmarshal(data, &asList); err != nil {
		return nil
	}
	for _, item := range asList {
		val := item.Value.String()
		if val == "" {
			val = item.Title.String()
		}
		if item.Name.String() != "" && val != "" {
			o.set(item.Name.String(), val)
		}
	}
	return nil
}

func (o *OptionAssign) set(name, value string) {
	if o.byName == nil {
		o.byName = make(map[string]string)
	}
	o.byName[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(value)
}

// Get 按名称取选项值（大小写不敏感）
func (o OptionAssign) Get(name string) string {
	return o.byName[strings.ToLower(name)]
}

// ColorTitle 提取颜色选项值，兼容英式拼写
func (o OptionAssign) ColorTitle() string {
	for _, key := range []string{"color", "colour"} {
		if v := o.byName[key]; v != "" {
			return v
		}
	}
	return ""
}

// ==================== 模板商品（输入） ====================

// TemplateProduct 模板商品：作为复制来源的现有商品全量结构
type TemplateProduct struct {
	ID              string              `json:"id"`
	Title           string              `json:"title"`
	Name            string              `json:"name"`
	Description     string              `json:"description"`
	BlueprintID     *int                `json:"blueprint_id"`
	PrintProviderID *int                `json:"print_provider_id"`
	Tags            []string            `json:"tags"`
	Variants        []TemplateVariant   `json:"variants"`
	PrintAreas      []TemplatePrintArea `json:"print_areas"`
	Options         []TemplateOption    `json:"options"`
}

// TemplateVariant 模板变体（SKU）
type TemplateVariant struct {
	ID        FlexInt      `json:"id"`
	Price     FlexInt      `json:"price"`
	IsEnabled *bool        `json:"is_enabled"`
	IsDefault bool         `json:"is_default"`
	Title     string       `json:"title"`
	SKU       string       `json:"sku"`
	Options   OptionAssign `json:"options"`
}

// Enabled is_enabled 缺省为 true
func (v TemplateVariant) Enabled() bool {
	if v.IsEnabled == nil {
		return true
	}
	return *v.IsEnabled
}

// ColorTitle 变体颜色：优先看 options，退化到 "Black / M" 形式的标题
func (v TemplateVariant) ColorTitle() string {
	if c := v.Options.ColorTitle(); c != "" {
		return c
	}
	if before, _, found := strings.Cut(v.Title, " / "); found {
		return strings.TrimSpace(before)
	}
	return ""
}

// TemplatePrintArea 模板印刷区
type TemplatePrintArea struct {
	VariantIDs   []FlexInt             `json:"variant_ids"`
	Placeholders []TemplatePlaceholder `json:"placeholders"`
	Background   FlexString            `json:"background"`
}

// TemplatePlaceholder 印刷位（front / back / neck-label 等）
type TemplatePlaceholder struct {
	Position         string          `json:"position"`
	DecorationMethod FlexString      `json:"decoration_method"`
	Images           []TemplateImage `json:"images"`
}

// TemplateImage 印刷位上的一张图
type TemplateImage struct {
	ID        FlexString `json:"id"`
	Name      FlexString `json:"name"`
	Type      FlexString `json:"type"`
	Src       FlexString `json:"src"`
	URL       FlexString `json:"url"`
	X         FlexFloat  `json:"x"`
	Y         FlexFloat  `json:"y"`
	Scale     FlexFloat  `json:"scale"`
	Angle     FlexFloat  `json:"angle"`
	InputText FlexString `json:"input_text"`
}

// SourceURL 可重传的源地址：src 优先，其次 url；必须是可抓取的 http(s) 地址
// 模板内置素材没有源地址，返回空串，调用方据此丢弃该图
func (img TemplateImage) SourceURL() string {
	for _, cand := range []string{img.Src.String(), img.URL.String()} {
		cand = strings.TrimSpace(cand)
		if strings.HasPrefix(cand, "http") {
			return cand
		}
	}
	return ""
}

// FileName 上传媒体库时使用的文件名
func (img TemplateImage) FileName() string {
	if n := img.Name.String(); n != "" {
		return n
	}
	return "art.png"
}

// TemplateOption 商品级选项目录（颜色、尺码）
type TemplateOption struct {
	Name   string                `json:"name"`
	Type   string                `json:"type"`
	Values []TemplateOptionValue `json:"values"`
}

// TemplateOptionValue 选项取值，颜色会带十六进制色号
type TemplateOptionValue struct {
	ID     FlexInt  `json:"id"`
	Title  string   `json:"title"`
	Colors []string `json:"colors"`
}

// ==================== 创建负载（输出） ====================

// CreationPayload 提交给商品创建接口的最小负载
// 只含创建必需字段，绝不回传只读/派生字段（id、created_at、options、
// sales_channel_properties 等），否则会被校验器拒绝
type CreationPayload struct {
	BlueprintID     int                `json:"blueprint_id"`
	PrintProviderID int                `json:"print_provider_id"`
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	Tags            []string           `json:"tags"`
	Variants        []PayloadVariant   `json:"variants"`
	PrintAreas      []PayloadPrintArea `json:"print_areas"`
}

// PayloadVariant 瘦身后的变体
type PayloadVariant struct {
	ID        int  `json:"id"`
	Price     int  `json:"price"`
	IsEnabled bool `json:"is_enabled"`
	IsDefault bool `json:"is_default,omitempty"`
}

// PayloadPrintArea 瘦身后的印刷区
type PayloadPrintArea struct {
	VariantIDs   []int                `json:"variant_ids"`
	Placeholders []PayloadPlaceholder `json:"placeholders"`
	Background   string               `json:"background,omitempty"`
}

// PayloadPlaceholder 瘦身后的印刷位
type PayloadPlaceholder struct {
	Position         string         `json:"position"`
	Images           []PayloadImage `json:"images"`
	DecorationMethod string         `json:"decoration_method,omitempty"`
}

// PayloadImage 重传后的图片引用
type PayloadImage struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
	Angle int     `json:"angle"`
}

// ProductPatch 商品更新负载（PUT），零值字段不下发
type ProductPatch struct {
	Title       string             `json:"title,omitempty"`
	Description string             `json:"description,omitempty"`
	Variants    []PayloadVariant   `json:"variants,omitempty"`
	PrintAreas  []PayloadPrintArea `json:"print_areas,omitempty"`
}

// ==================== 列表 / 目录 ====================

// ProductList 商品列表响应
// 不同 API 版本外层键不一样：{"data": [...]} 或 {"products": [...]}
type ProductList struct {
	Data        []ListedProduct `json:"data"`
	Products    []ListedProduct `json:"products"`
	CurrentPage FlexInt         `json:"current_page"`
	LastPage    FlexInt         `json:"last_page"`
}

// Items 取本页条目，兼容两种外层键
func (l *ProductList) Items() []ListedProduct {
	if len(l.Data) > 0 {
		return l.Data
	}
	return l.Products
}

// ListedProduct 列表里的商品摘要
type ListedProduct struct {
	ID            FlexString      `json:"id"`
	AltID         FlexString      `json:"_id"`
	Title         string          `json:"title"`
	Name          string          `json:"name"`
	Images        []ImageRef      `json:"images"`
	Preview       ImageRef        `json:"preview"`
	External      ExternalRef     `json:"external"`
	Tags          []string        `json:"tags"`
	CreatedAt     string          `json:"created_at"`
	UpdatedAt     string          `json:"updated_at"`
	SalesChannels json.RawMessage `json:"sales_channel_properties"`
}

// Key 商品主键，兼容 id / _id
func (p ListedProduct) Key() string {
	if id := p.ID.String(); id != "" {
		return id
	}
	return p.AltID.String()
}

// DisplayTitle 标题，兼容 title / name
func (p ListedProduct) DisplayTitle() string {
	if p.Title != "" {
		return p.Title
	}
	return p.Name
}

// PrimaryImage 首图地址：第一张图优先，退化到 preview
func (p ListedProduct) PrimaryImage() string {
	if len(p.Images) > 0 && p.Images[0].Src != "" {
		return p.Images[0].Src
	}
	return p.Preview.Src
}

// BlueprintVariants 蓝图×生产商的变体目录
// v1 接口可能直接返回数组，也可能返回 {"variants": [...]} 对象
type BlueprintVariants struct {
	Variants []CatalogVariant
}

func (b *BlueprintVariants) UnmarshalJSON(data []byte) error {
	b.Variants = nil

	var asList []CatalogVariant
	if err := json.Unmarshal(data, &asList); err == nil {
		b.Variants = asList
		return nil
	}

	var asObj struct {
		Variants []CatalogVariant `json:"variants"`
	}
	if err := json.Unmarshal(data, &asObj); err != nil {
		return err
	}
	b.Variants = asObj.Variants
	return nil
}

// CatalogVariant 目录里的变体条目
type CatalogVariant struct {
	ID      FlexInt      `json:"id"`
	Title   string       `json:"title"`
	Options OptionAssign `json:"options"`
}

// PrintProvider 生产商条目
type PrintProvider struct {
	ID    FlexInt `json:"id"`
	Title string  `json:"title"`
}

// Upload 媒体库上传结果
type Upload struct {
	ID         string `json:"id"`
	FileName   string `json:"file_name"`
	PreviewURL string `json:"preview_url"`
}

// PublishDetails 发布到店面时同步哪些字段
type PublishDetails struct {
	Title       bool `json:"title"`
	Description bool `json:"description"`
	Images      bool `json:"images"`
	Variants    bool `json:"variants"`
	Tags        bool `json:"tags"`
}
