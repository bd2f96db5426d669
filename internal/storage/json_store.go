package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// ==========================================
// JSON 文件存储
// 设计稿、人设这类低频小数据不值得进数据库，
// 一个集合一个文件（map id→记录），整文件读写，后写覆盖
// ==========================================

// Record 集合里的一条记录，形状由调用方约定
type Record = map[string]interface{}

// JSONStore 目录级 JSON 集合存储
type JSONStore struct {
	dir string
	mu  sync.Mutex
}

// NewJSONStore 创建存储，目录不存在则建出来
func NewJSONStore(dir string) (*JSONStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建数据目录失败: %w", err)
	}
	return &JSONStore{dir: dir}, nil
}

func (s *JSONStore) path(collection string) string {
	return filepath.Join(s.dir, collection+".json")
}

// load 读整个集合；文件不存在视为空集合
func (s *JSONStore) load(collection string) (map[string]Record, error) {
	data, err := os.ReadFile(s.path(collection))
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Record{}, nil
		}
		return nil, fmt.Errorf("读取集合 %s 失败: %w", collection, err)
	}

	out := map[string]Record{}
	if len(data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("解析集合 %s 失败: %w", collection, err)
	}
	return out, nil
}

// save 整文件写回：先写临时文件再改名，避免写一半断电留下坏文件
func (s *JSONStore) save(collection string, records map[string]Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化集合 %s 失败: %w", collection, err)
	}

	tmp := s.path(collection) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("写入集合 %s 失败: %w", collection, err)
	}
	if err := os.Rename(tmp, s.path(collection)); err != nil {
		return fmt.Errorf("落盘集合 %s 失败: %w", collection, err)
	}
	return nil
}

// List 列出集合全部记录，按 ID 排序保证输出稳定
func (s *JSONStore) List(collection string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(collection)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]Record, 0, len(records))
	for _, id := range ids {
		out = append(out, records[id])
	}
	return out, nil
}

// Get 按 ID 取单条，不存在返回 (nil, nil)
func (s *JSONStore) Get(collection, id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(collection)
	if err != nil {
		return nil, err
	}
	return records[id], nil
}

// Upsert 写入或覆盖一条记录
func (s *JSONStore) Upsert(collection, id string, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(collection)
	if err != nil {
		return err
	}
	records[id] = record
	return s.save(collection, records)
}

// Delete 删除记录，不存在时返回 false
func (s *JSONStore) Delete(collection, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(collection)
	if err != nil {
		return false, err
	}
	if _, ok := records[id]; !ok {
		return false, nil
	}
	delete(records, id)
	return true, s.save(collection, records)
}

// ReplaceCollection 整集合替换，缓存刷新用
func (s *JSONStore) ReplaceCollection(collection string, records map[string]Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if records == nil {
		records = map[string]Record{}
	}
	return s.save(collection, records)
}
