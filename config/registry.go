package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rushteam/basketkit/core"
	"github.com/rushteam/basketkit/filter"
	"github.com/rushteam/basketkit/pkg/conv"
)

// FilterBuilder 根据配置构建一个过滤器。
// store 来自 Config.Build 的调用方，仅存储型过滤器使用。
type FilterBuilder func(cfg map[string]any, store core.Store) (filter.Filter, error)

var (
	defaultBuilders   = make(map[string]FilterBuilder)
	defaultBuildersMu sync.RWMutex
)

// Register 注册一种过滤器的构建逻辑，自定义过滤器在 init 中调用即可被配置驱动。
func Register(typeName string, builder FilterBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	defaultBuildersMu.Lock()
	defer defaultBuildersMu.Unlock()
	defaultBuilders[typeName] = builder
}

// SupportedTypes 返回当前已注册的过滤器类型列表（排序），用于错误提示与校验。
func SupportedTypes() []string {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	types := make([]string, 0, len(defaultBuilders))
	for t := range defaultBuilders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func buildFilter(fc FilterConfig, store core.Store) (filter.Filter, error) {
	defaultBuildersMu.RLock()
	builder, ok := defaultBuilders[fc.Type]
	defaultBuildersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported filter type %q (supported: %v)", fc.Type, SupportedTypes())
	}
	return builder(fc.Config, store)
}

// 内置过滤器注册
func init() {
	Register("blacklist", func(cfg map[string]any, store core.Store) (filter.Filter, error) {
		ids := conv.SliceAnyToString(cfg["product_ids"])
		key := conv.ConfigGet[string](cfg, "key", "")
		return filter.NewBlacklistFilter(ids, store, key), nil
	})

	Register("purchased", func(cfg map[string]any, store core.Store) (filter.Filter, error) {
		keyPrefix := conv.ConfigGet[string](cfg, "key_prefix", "")
		return filter.NewPurchasedFilter(store, keyPrefix), nil
	})

	Register("cel", func(cfg map[string]any, _ core.Store) (filter.Filter, error) {
		expr := conv.ConfigGet[string](cfg, "expr", "")
		return filter.NewCELFilter(expr)
	})
}
