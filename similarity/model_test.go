package similarity

import (
	"math"
	"testing"
	"time"

	"github.com/rushteam/basketkit/core"
)

func tx(txn, cust, prod string, qty int) core.Transaction {
	return core.Transaction{
		TransactionID: txn,
		CustomerID:    cust,
		ProductID:     prod,
		Quantity:      qty,
		Timestamp:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestModel_BuildValidation(t *testing.T) {
	m := &Model{}

	if err := m.Build(nil); err == nil || !core.IsDataValidation(err) {
		t.Fatalf("empty input should fail validation, got %v", err)
	}
	if m.Trained() {
		t.Error("failed build must not publish a model")
	}

	bad := []core.Transaction{tx("TXN001", "CUST001", "PROD001", 0)}
	if err := m.Build(bad); err == nil || !core.IsDataValidation(err) {
		t.Fatalf("bad quantity should fail validation, got %v", err)
	}
}

func TestModel_CosineScores(t *testing.T) {
	// 向量：PROD001={CUST001:1, CUST002:1}，PROD002={CUST001:1}
	// cos(PROD001, PROD002) = 1 / (sqrt(2)*1)
	transactions := []core.Transaction{
		tx("TXN001", "CUST001", "PROD001", 1),
		tx("TXN002", "CUST001", "PROD002", 1),
		tx("TXN003", "CUST002", "PROD001", 1),
	}

	m := &Model{}
	if err := m.Build(transactions); err != nil {
		t.Fatal(err)
	}
	if !m.Trained() {
		t.Fatal("model should be trained")
	}

	got := m.GetSimilar("PROD001", 5)
	if len(got) != 1 {
		t.Fatalf("expected 1 neighbor, got %d", len(got))
	}
	want := 1 / math.Sqrt(2)
	if got[0].ProductID != "PROD002" || !approxEqual(got[0].Score, want) {
		t.Errorf("GetSimilar(PROD001) = %+v, want PROD002 score %v", got[0], want)
	}
}

func TestModel_Symmetry(t *testing.T) {
	transactions := []core.Transaction{
		tx("TXN001", "CUST001", "PROD001", 2),
		tx("TXN002", "CUST001", "PROD002", 1),
		tx("TXN003", "CUST002", "PROD001", 1),
		tx("TXN004", "CUST002", "PROD002", 3),
	}

	m := &Model{}
	if err := m.Build(transactions); err != nil {
		t.Fatal(err)
	}

	a := m.GetSimilar("PROD001", 1)
	b := m.GetSimilar("PROD002", 1)
	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("expected one neighbor each, got %d/%d", len(a), len(b))
	}
	if !approxEqual(a[0].Score, b[0].Score) {
		t.Errorf("similarity must be symmetric: %v vs %v", a[0].Score, b[0].Score)
	}
}

func TestModel_ScoreRangeAndSelfExclusion(t *testing.T) {
	// 同一客户等比例购买 → 余弦为 1，浮点误差也不得越界
	transactions := []core.Transaction{
		tx("TXN001", "CUST001", "PROD001", 1),
		tx("TXN002", "CUST001", "PROD002", 2),
		tx("TXN003", "CUST002", "PROD001", 3),
		tx("TXN004", "CUST002", "PROD002", 6),
		tx("TXN005", "CUST003", "PROD003", 1),
	}

	m := &Model{}
	if err := m.Build(transactions); err != nil {
		t.Fatal(err)
	}

	for _, pid := range []string{"PROD001", "PROD002", "PROD003"} {
		for _, sp := range m.GetSimilar(pid, 0) {
			if sp.ProductID == pid {
				t.Errorf("product %s must not be similar to itself", pid)
			}
			if sp.Score <= 0 || sp.Score > 1 {
				t.Errorf("score out of (0,1]: %s -> %+v", pid, sp)
			}
		}
	}

	got := m.GetSimilar("PROD001", 1)
	if len(got) != 1 || !approxEqual(got[0].Score, 1.0) {
		t.Errorf("proportional vectors should have similarity 1.0, got %+v", got)
	}

	// PROD003 与其他商品没有共同客户 → 没有邻居
	if got := m.GetSimilar("PROD003", 5); len(got) != 0 {
		t.Errorf("disjoint product should have no neighbors, got %+v", got)
	}
}

func TestModel_UnknownAndUntrained(t *testing.T) {
	m := &Model{}
	if got := m.GetSimilar("PROD001", 5); got != nil {
		t.Errorf("untrained model should return nil, got %+v", got)
	}

	if err := m.Build([]core.Transaction{
		tx("TXN001", "CUST001", "PROD001", 1),
		tx("TXN001", "CUST001", "PROD002", 1),
	}); err != nil {
		t.Fatal(err)
	}
	if got := m.GetSimilar("PROD999", 5); len(got) != 0 {
		t.Errorf("unknown product should return empty, got %+v", got)
	}
}

func TestModel_OrderingAndTruncation(t *testing.T) {
	// PROD002 和 PROD003 与 PROD001 的相似度相同 → 按 ID 升序
	transactions := []core.Transaction{
		tx("TXN001", "CUST001", "PROD001", 1),
		tx("TXN002", "CUST001", "PROD002", 1),
		tx("TXN003", "CUST001", "PROD003", 1),
	}

	m := &Model{}
	if err := m.Build(transactions); err != nil {
		t.Fatal(err)
	}

	got := m.GetSimilar("PROD001", 0)
	if len(got) != 2 {
		t.Fatalf("expected 2 neighbors, got %d", len(got))
	}
	if !approxEqual(got[0].Score, got[1].Score) {
		t.Fatalf("expected equal scores, got %+v", got)
	}
	if got[0].ProductID != "PROD002" || got[1].ProductID != "PROD003" {
		t.Errorf("equal scores must sort by product id asc: %+v", got)
	}

	if got := m.GetSimilar("PROD001", 1); len(got) != 1 || got[0].ProductID != "PROD002" {
		t.Errorf("truncation to 1 should keep PROD002, got %+v", got)
	}
}

func TestModel_Determinism(t *testing.T) {
	transactions := []core.Transaction{
		tx("TXN001", "CUST001", "PROD003", 2),
		tx("TXN001", "CUST001", "PROD001", 1),
		tx("TXN002", "CUST002", "PROD002", 1),
		tx("TXN002", "CUST002", "PROD003", 1),
		tx("TXN003", "CUST003", "PROD001", 4),
		tx("TXN003", "CUST003", "PROD002", 1),
	}

	m1, m2 := &Model{}, &Model{}
	if err := m1.Build(transactions); err != nil {
		t.Fatal(err)
	}
	if err := m2.Build(transactions); err != nil {
		t.Fatal(err)
	}

	for _, pid := range []string{"PROD001", "PROD002", "PROD003"} {
		a, b := m1.GetSimilar(pid, 0), m2.GetSimilar(pid, 0)
		if len(a) != len(b) {
			t.Fatalf("row length mismatch for %s: %d vs %d", pid, len(a), len(b))
		}
		for i := range a {
			if a[i] != b[i] {
				t.Errorf("non-deterministic row for %s at %d: %+v vs %+v", pid, i, a[i], b[i])
			}
		}
	}
}

func TestModel_RowsRestoreRoundTrip(t *testing.T) {
	transactions := []core.Transaction{
		tx("TXN001", "CUST001", "PROD001", 1),
		tx("TXN001", "CUST001", "PROD002", 1),
		tx("TXN002", "CUST002", "PROD001", 1),
	}

	m := &Model{}
	if err := m.Build(transactions); err != nil {
		t.Fatal(err)
	}

	restored := &Model{}
	if restored.Rows() != nil {
		t.Error("untrained model should export nil rows")
	}
	restored.Restore(m.Rows())

	if !restored.Trained() {
		t.Fatal("restored model should be trained")
	}
	want := m.GetSimilar("PROD001", 0)
	got := restored.GetSimilar("PROD001", 0)
	if len(want) != len(got) {
		t.Fatalf("row length mismatch: %d vs %d", len(want), len(got))
	}
	for i := range want {
		if want[i] != got[i] {
			t.Errorf("restored row differs at %d: %+v vs %+v", i, want[i], got[i])
		}
	}
}

func TestModel_ResultCopyIsolation(t *testing.T) {
	transactions := []core.Transaction{
		tx("TXN001", "CUST001", "PROD001", 1),
		tx("TXN001", "CUST001", "PROD002", 1),
	}

	m := &Model{}
	if err := m.Build(transactions); err != nil {
		t.Fatal(err)
	}

	got := m.GetSimilar("PROD001", 0)
	got[0].Score = -42 // 调用方篡改不能影响已发布快照

	again := m.GetSimilar("PROD001", 0)
	if again[0].Score == -42 {
		t.Error("published snapshot must be isolated from caller mutation")
	}
}
