package record

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// DefaultFetchLimit 是批量取值时的并发上限。
const DefaultFetchLimit = 8

// FetchAll 为每条记录读取给定字段，结果与 recordIDs 一一对应。
// 任一单元格失败即取消其余请求并返回首个错误。
func FetchAll(ctx context.Context, src DataSource, recordIDs []string, fields []Field, limit int) ([]map[string]string, error) {
	if limit <= 0 {
		limit = DefaultFetchLimit
	}
	out := make([][]string, len(recordIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, rid := range recordIDs {
		out[i] = make([]string, len(fields))
		for j, f := range fields {
			g.Go(func() error {
				v, err := src.CellString(gctx, f.ID, rid, f.Type)
				if err != nil {
					return fmt.Errorf("读取记录 %s 字段 %s 失败: %w", rid, f.ID, err)
				}
				out[i][j] = v
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rows := make([]map[string]string, len(recordIDs))
	for i := range recordIDs {
		rows[i] = make(map[string]string, len(fields))
		for j, f := range fields {
			rows[i][f.ID] = out[i][j]
		}
	}
	return rows, nil
}
