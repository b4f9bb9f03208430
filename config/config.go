package config

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/basketkit/core"
	"github.com/rushteam/basketkit/engine"
)

// Config 是推荐引擎的配置结构（支持 YAML/JSON）。
//
// 示例：
//
//	engine:
//	  min_support: 0.01
//	  min_confidence: 0.1
//	  top_n_recommendations: 5
//	  item_weight: 0.6
//	  basket_weight: 0.4
//	filters:
//	  - type: blacklist
//	    config:
//	      product_ids: ["PROD099"]
//	  - type: cel
//	    config:
//	      expr: 'product.score < 0.05'
type Config struct {
	Engine  EngineSection  `yaml:"engine" json:"engine"`
	Filters []FilterConfig `yaml:"filters" json:"filters"`
}

// EngineSection 是引擎参数段，零值项使用 core 默认值。
type EngineSection struct {
	MinSupport    float64 `yaml:"min_support" json:"min_support"`
	MinConfidence float64 `yaml:"min_confidence" json:"min_confidence"`
	TopN          int     `yaml:"top_n_recommendations" json:"top_n_recommendations"`
	ItemWeight    float64 `yaml:"item_weight" json:"item_weight"`
	BasketWeight  float64 `yaml:"basket_weight" json:"basket_weight"`
	Workers       int     `yaml:"workers" json:"workers"`
}

// FilterConfig 是单个过滤器的配置。
type FilterConfig struct {
	Type   string         `yaml:"type" json:"type"`     // blacklist / purchased / cel
	Config map[string]any `yaml:"config" json:"config"` // 过滤器特定配置
}

// LoadFromYAML 从 YAML 文件加载配置。
func LoadFromYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return &cfg, nil
}

// LoadFromJSON 从 JSON 文件加载配置。
func LoadFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return &cfg, nil
}

// EngineConfig 转换为 core.EngineConfig。
func (c *Config) EngineConfig() core.EngineConfig {
	return core.EngineConfig{
		MinSupport:    c.Engine.MinSupport,
		MinConfidence: c.Engine.MinConfidence,
		TopN:          c.Engine.TopN,
		ItemWeight:    c.Engine.ItemWeight,
		BasketWeight:  c.Engine.BasketWeight,
		Workers:       c.Engine.Workers,
	}
}

// Build 根据配置组装推荐服务（含过滤链）。
// store 用于黑名单/已购等依赖存储的过滤器，不需要时传 nil。
func (c *Config) Build(store core.Store) (*engine.Service, error) {
	svc := engine.NewService(c.EngineConfig())

	for _, fc := range c.Filters {
		f, err := buildFilter(fc, store)
		if err != nil {
			return nil, fmt.Errorf("build filter %s: %w", fc.Type, err)
		}
		svc.Filters = append(svc.Filters, f)
	}
	return svc, nil
}
