package seed

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lk2023060901/school-assistant-backend/internal/knowledge/biz"
	"github.com/lk2023060901/school-assistant-backend/internal/pkg/logger"
)

// Importer 种子导入器
type Importer struct {
	source Source
	uc     *biz.KnowledgeUseCase
	logger *logger.Logger
}

// NewImporter 创建种子导入器
func NewImporter(source Source, uc *biz.KnowledgeUseCase, lgr *logger.Logger) *Importer {
	if lgr == nil {
		lgr = logger.L()
	}
	return &Importer{source: source, uc: uc, logger: lgr}
}

// Import 读取种子并逐条 upsert
func (i *Importer) Import(ctx context.Context) (*biz.ImportResult, error) {
	entries, err := i.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", i.source, err)
	}
	res, err := i.uc.ImportSeed(ctx, entries)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", i.source, err)
	}
	i.logger.Info("knowledge seed imported",
		zap.Stringer("source", i.source),
		zap.Int("entries", len(entries)))
	return res, nil
}

// Reload 供 Watcher 调用的 Import（不返回结果）
func (i *Importer) Reload(ctx context.Context) error {
	_, err := i.Import(ctx)
	return err
}
