package main

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// printStats 从 ManualReader 采集一次指标并按名称排序输出。
func (s *session) printStats(ctx context.Context) error {
	if s.reader == nil {
		s.println("metrics disabled")
		return nil
	}
	var rm metricdata.ResourceMetrics
	if err := s.reader.Collect(ctx, &rm); err != nil {
		return fmt.Errorf("collect metrics: %w", err)
	}

	var lines []string
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				lines = append(lines, fmt.Sprintf("%s{%s} %d", m.Name, formatAttrs(dp.Attributes), dp.Value))
			}
		}
	}
	slices.Sort(lines)
	for _, l := range lines {
		s.println(l)
	}
	return nil
}

func formatAttrs(set attribute.Set) string {
	kvs := make([]string, 0, set.Len())
	for _, kv := range set.ToSlice() {
		if kv.Key == "component" {
			continue
		}
		kvs = append(kvs, string(kv.Key)+"="+kv.Value.Emit())
	}
	return strings.Join(kvs, ",")
}
