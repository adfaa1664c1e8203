// Package seed 从本地文件或对象存储中的 YAML 文档加载知识库种子数据
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/types"
	"github.com/lk2023060901/school-assistant-backend/internal/knowledge/biz"
)

// Document 种子文件结构
type Document struct {
	Entries []Entry `yaml:"entries"`
}

// Entry 种子问答条目
type Entry struct {
	Question string   `yaml:"question"`
	Keywords []string `yaml:"keywords"`
	Answer   string   `yaml:"answer"`
	Category string   `yaml:"category"`
}

// Parse 解析种子文档
// 拒绝未知字段，手工编辑时的拼写错误可以尽早暴露
func Parse(r io.Reader) ([]biz.CreateEntryRequest, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, biz.ErrEmptySeed
		}
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	if len(doc.Entries) == 0 {
		return nil, biz.ErrEmptySeed
	}

	out := make([]biz.CreateEntryRequest, len(doc.Entries))
	for i, e := range doc.Entries {
		out[i] = biz.CreateEntryRequest{
			Question: e.Question,
			Keywords: e.Keywords,
			Answer:   e.Answer,
			Category: types.Category(e.Category),
		}
	}
	return out, nil
}

// Source 种子数据来源
type Source interface {
	Load(ctx context.Context) ([]biz.CreateEntryRequest, error)
	String() string
}

// FileSource 从本地文件读取种子
type FileSource struct {
	Path string
}

func (s FileSource) Load(context.Context) ([]biz.CreateEntryRequest, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

func (s FileSource) String() string { return "file:" + s.Path }

// ObjectReader 读取完整对象
type ObjectReader interface {
	ReadObject(ctx context.Context, bucket, key string) ([]byte, error)
}

// ObjectSource 从对象存储读取种子
type ObjectSource struct {
	Reader ObjectReader
	Bucket string
	Key    string
}

func (s ObjectSource) Load(ctx context.Context) ([]biz.CreateEntryRequest, error) {
	data, err := s.Reader.ReadObject(ctx, s.Bucket, s.Key)
	if err != nil {
		return nil, fmt.Errorf("read seed object: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

func (s ObjectSource) String() string { return "object:" + s.Bucket + "/" + s.Key }
