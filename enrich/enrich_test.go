package enrich

import (
	"context"
	"errors"
	"testing"

	"github.com/rushteam/basketkit/core"
)

// stubClient 是测试用的特征客户端桩。
type stubClient struct {
	features map[string]map[string]any
	err      error
	gotIDs   []string
}

func (s *stubClient) GetProductFeatures(_ context.Context, productIDs, _ []string) (map[string]map[string]any, error) {
	s.gotIDs = productIDs
	if s.err != nil {
		return nil, s.err
	}
	return s.features, nil
}

func (s *stubClient) Close() error { return nil }

func sampleResult() *core.RecommendationResult {
	return &core.RecommendationResult{
		CustomerID: "CUST001",
		RecommendedProducts: []core.RecommendedProduct{
			{ProductID: "PROD001", Score: 0.9, Reason: "hybrid"},
			{ProductID: "PROD002", Score: 0.5, Reason: "hybrid"},
		},
		RecommendationType: core.ModeHybrid,
	}
}

func TestMetaEnricher_EnrichResult(t *testing.T) {
	client := &stubClient{
		features: map[string]map[string]any{
			"PROD001": {"category": "electronics", "price": 199.0},
		},
	}
	e := NewMetaEnricher(client, []string{"product_stats:category", "product_stats:price"})

	result := sampleResult()
	if err := e.EnrichResult(context.Background(), result); err != nil {
		t.Fatal(err)
	}

	if len(client.gotIDs) != 2 {
		t.Errorf("client should be asked for both products, got %v", client.gotIDs)
	}
	if got := result.RecommendedProducts[0].Meta["category"]; got != "electronics" {
		t.Errorf("PROD001 meta category = %v", got)
	}
	// 特征存储里没有的商品保持 Meta 为空
	if result.RecommendedProducts[1].Meta != nil {
		t.Errorf("PROD002 should stay without meta, got %v", result.RecommendedProducts[1].Meta)
	}
}

func TestMetaEnricher_ClientError(t *testing.T) {
	client := &stubClient{err: errors.New("connection refused")}
	e := NewMetaEnricher(client, []string{"product_stats:category"})

	err := e.EnrichResult(context.Background(), sampleResult())
	if err == nil {
		t.Fatal("client errors must propagate")
	}
	de := core.GetDomainError(err)
	if de == nil || de.Module != core.ModuleEnrich || de.Code != core.ErrorCodeInternalError {
		t.Errorf("expected enrich INTERNAL_ERROR, got %v", err)
	}
}

func TestMetaEnricher_NoopCases(t *testing.T) {
	client := &stubClient{}

	// 空结果 / nil 结果 / 未配置特征：都是安静的 no-op
	e := NewMetaEnricher(client, []string{"f"})
	if err := e.EnrichResult(context.Background(), nil); err != nil {
		t.Errorf("nil result: %v", err)
	}
	if err := e.EnrichResult(context.Background(), &core.RecommendationResult{}); err != nil {
		t.Errorf("empty result: %v", err)
	}

	noFeatures := NewMetaEnricher(client, nil)
	if err := noFeatures.EnrichResult(context.Background(), sampleResult()); err != nil {
		t.Errorf("no features configured: %v", err)
	}
	if client.gotIDs != nil {
		t.Error("no-op cases must not hit the feature store")
	}
}
