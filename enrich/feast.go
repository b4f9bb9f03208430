package enrich

import (
	"context"
	"fmt"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	feasttypes "github.com/feast-dev/feast/sdk/go/protos/feast/types"
)

// FeastClient 是基于官方 Feast Go SDK 的 FeatureClient 实现（gRPC）。
//
// 商品特征（类目/价格/品牌等）通常由数仓离线计算后物化到 Feast 在线存储，
// 推荐侧只读消费。实体 key 为 product_id。
//
// 工程特征：
//   - 实时性：优秀（gRPC 低延迟、连接复用）
//   - 可替换性：实现领域接口 FeatureClient，可换自建特征服务
type FeastClient struct {
	client *feastsdk.GrpcClient

	// Project 是 Feast 项目名称
	Project string

	// EntityKey 是商品实体的 key，默认 "product_id"
	EntityKey string
}

// NewFeastClient 创建 Feast gRPC 客户端。
// token 非空时使用静态 Token 认证。
func NewFeastClient(host string, port int, project string, token string) (*FeastClient, error) {
	if port == 0 {
		port = 6565 // Feast Serving 默认 gRPC 端口
	}

	var (
		client *feastsdk.GrpcClient
		err    error
	)
	if token != "" {
		security := feastsdk.SecurityConfig{
			EnableTLS:  false,
			Credential: feastsdk.NewStaticCredential(token),
		}
		client, err = feastsdk.NewSecureGrpcClient(host, port, security)
	} else {
		client, err = feastsdk.NewGrpcClient(host, port)
	}
	if err != nil {
		return nil, fmt.Errorf("feast grpc client: %w", err)
	}

	return &FeastClient{
		client:    client,
		Project:   project,
		EntityKey: "product_id",
	}, nil
}

// GetProductFeatures 实现 FeatureClient 接口。
func (c *FeastClient) GetProductFeatures(ctx context.Context, productIDs []string, features []string) (map[string]map[string]any, error) {
	if len(productIDs) == 0 || len(features) == 0 {
		return map[string]map[string]any{}, nil
	}

	entityKey := c.EntityKey
	if entityKey == "" {
		entityKey = "product_id"
	}

	entities := make([]feastsdk.Row, len(productIDs))
	for i, id := range productIDs {
		entities[i] = feastsdk.Row{entityKey: feastsdk.StrVal(id)}
	}

	resp, err := c.client.GetOnlineFeatures(ctx, &feastsdk.OnlineFeaturesRequest{
		Features: features,
		Entities: entities,
		Project:  c.Project,
	})
	if err != nil {
		return nil, fmt.Errorf("feast get online features: %w", err)
	}

	rows := resp.Rows()
	if len(rows) != len(productIDs) {
		return nil, fmt.Errorf("feast response row count mismatch: expected %d, got %d", len(productIDs), len(rows))
	}

	out := make(map[string]map[string]any, len(productIDs))
	for i, row := range rows {
		values := make(map[string]any, len(features))
		for _, name := range features {
			if val, ok := row[name]; ok {
				if converted := fromFeastValue(val); converted != nil {
					values[name] = converted
				}
			}
		}
		if len(values) > 0 {
			out[productIDs[i]] = values
		}
	}
	return out, nil
}

// Close 实现 FeatureClient 接口。
// SDK 的 gRPC 连接由库自身管理，这里只断开引用。
func (c *FeastClient) Close() error {
	c.client = nil
	return nil
}

var _ FeatureClient = (*FeastClient)(nil)

// fromFeastValue 把 Feast 的 protobuf Value 转为普通 Go 值；空值返回 nil。
func fromFeastValue(v *feasttypes.Value) any {
	if v == nil {
		return nil
	}
	switch val := v.Val.(type) {
	case *feasttypes.Value_StringVal:
		return val.StringVal
	case *feasttypes.Value_Int32Val:
		return float64(val.Int32Val)
	case *feasttypes.Value_Int64Val:
		return float64(val.Int64Val)
	case *feasttypes.Value_FloatVal:
		return float64(val.FloatVal)
	case *feasttypes.Value_DoubleVal:
		return val.DoubleVal
	case *feasttypes.Value_BoolVal:
		return val.BoolVal
	case *feasttypes.Value_BytesVal:
		return string(val.BytesVal)
	default:
		return nil
	}
}
