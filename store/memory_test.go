package store

import (
	"context"
	"testing"

	"github.com/rushteam/basketkit/core"
)

func TestMemoryStore_GetSetDelete(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	if ms.Name() != "memory" {
		t.Errorf("Name() = %q", ms.Name())
	}

	if _, err := ms.Get(ctx, "missing"); !core.IsStoreNotFound(err) {
		t.Errorf("missing key should return NOT_FOUND, got %v", err)
	}

	if err := ms.Set(ctx, "k1", []byte("v1")); err != nil {
		t.Fatal(err)
	}
	got, err := ms.Get(ctx, "k1")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "v1" {
		t.Errorf("Get(k1) = %q, want v1", got)
	}

	if err := ms.Delete(ctx, "k1"); err != nil {
		t.Fatal(err)
	}
	if _, err := ms.Get(ctx, "k1"); !core.IsStoreNotFound(err) {
		t.Errorf("deleted key should return NOT_FOUND, got %v", err)
	}
}

func TestMemoryStore_Batch(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	kvs := map[string][]byte{
		"a": []byte("1"),
		"b": []byte("2"),
	}
	if err := ms.BatchSet(ctx, kvs); err != nil {
		t.Fatal(err)
	}

	got, err := ms.BatchGet(ctx, []string{"a", "b", "missing"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("BatchGet returned %d entries, want 2", len(got))
	}
	if string(got["a"]) != "1" || string(got["b"]) != "2" {
		t.Errorf("BatchGet = %v", got)
	}
}

func TestMemoryStore_SortedSet(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	// 同分成员按 member 升序
	for _, m := range []struct {
		member string
		score  float64
	}{
		{"low", 1.0},
		{"b-mid", 2.0},
		{"a-mid", 2.0},
		{"high", 3.0},
	} {
		if err := ms.ZAdd(ctx, "board", m.score, m.member); err != nil {
			t.Fatal(err)
		}
	}

	got, err := ms.ZRange(ctx, "board", 0, -1)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"high", "a-mid", "b-mid", "low"}
	if len(got) != len(want) {
		t.Fatalf("ZRange = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ZRange[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	top, err := ms.ZRange(ctx, "board", 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 2 || top[0] != "high" || top[1] != "a-mid" {
		t.Errorf("ZRange(0,1) = %v", top)
	}

	score, err := ms.ZScore(ctx, "board", "high")
	if err != nil {
		t.Fatal(err)
	}
	if score != 3.0 {
		t.Errorf("ZScore(high) = %v, want 3.0", score)
	}
	if _, err := ms.ZScore(ctx, "board", "missing"); !core.IsStoreNotFound(err) {
		t.Errorf("missing member should return NOT_FOUND, got %v", err)
	}
}

func TestMemoryStore_Hash(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	if err := ms.HSet(ctx, "product:PROD001", "category", []byte("electronics")); err != nil {
		t.Fatal(err)
	}
	if err := ms.HSet(ctx, "product:PROD001", "brand", []byte("acme")); err != nil {
		t.Fatal(err)
	}

	got, err := ms.HGet(ctx, "product:PROD001", "category")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "electronics" {
		t.Errorf("HGet = %q", got)
	}
	if _, err := ms.HGet(ctx, "product:PROD001", "missing"); !core.IsStoreNotFound(err) {
		t.Errorf("missing field should return NOT_FOUND, got %v", err)
	}

	all, err := ms.HGetAll(ctx, "product:PROD001")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("HGetAll returned %d fields, want 2", len(all))
	}
}
