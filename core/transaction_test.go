package core

import (
	"testing"
	"time"
)

func tx(txn, cust, prod string, qty int) Transaction {
	return Transaction{
		TransactionID: txn,
		CustomerID:    cust,
		ProductID:     prod,
		Quantity:      qty,
		Timestamp:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestValidateTransactions(t *testing.T) {
	tests := []struct {
		name         string
		transactions []Transaction
		wantErr      bool
	}{
		{
			name:         "empty collection",
			transactions: nil,
			wantErr:      true,
		},
		{
			name: "valid records",
			transactions: []Transaction{
				tx("TXN001", "CUST001", "PROD001", 1),
				tx("TXN001", "CUST001", "PROD002", 3),
			},
			wantErr: false,
		},
		{
			name: "missing transaction id",
			transactions: []Transaction{
				tx("", "CUST001", "PROD001", 1),
			},
			wantErr: true,
		},
		{
			name: "missing customer id",
			transactions: []Transaction{
				tx("TXN001", "", "PROD001", 1),
			},
			wantErr: true,
		},
		{
			name: "missing product id",
			transactions: []Transaction{
				tx("TXN001", "CUST001", "", 1),
			},
			wantErr: true,
		},
		{
			name: "zero quantity",
			transactions: []Transaction{
				tx("TXN001", "CUST001", "PROD001", 0),
			},
			wantErr: true,
		},
		{
			name: "negative quantity",
			transactions: []Transaction{
				tx("TXN001", "CUST001", "PROD001", -2),
			},
			wantErr: true,
		},
		{
			name: "one bad record fails the whole batch",
			transactions: []Transaction{
				tx("TXN001", "CUST001", "PROD001", 1),
				tx("TXN002", "CUST002", "PROD002", 0),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTransactions(tt.transactions)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateTransactions() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !IsDataValidation(err) {
				t.Errorf("expected VALIDATION error, got %v", err)
			}
		})
	}
}

func TestGroupBaskets(t *testing.T) {
	transactions := []Transaction{
		tx("TXN002", "CUST001", "PROD001", 1),
		tx("TXN001", "CUST001", "PROD001", 2),
		tx("TXN001", "CUST001", "PROD002", 1),
		tx("TXN001", "CUST001", "PROD001", 3), // same product, quantities merge
	}

	baskets := GroupBaskets(transactions)
	if len(baskets) != 2 {
		t.Fatalf("expected 2 baskets, got %d", len(baskets))
	}

	// 按 TransactionID 升序
	if baskets[0].TransactionID != "TXN001" || baskets[1].TransactionID != "TXN002" {
		t.Errorf("baskets not sorted by transaction id: %v, %v",
			baskets[0].TransactionID, baskets[1].TransactionID)
	}

	if got := baskets[0].Products["PROD001"]; got != 5 {
		t.Errorf("expected merged quantity 5 for PROD001, got %d", got)
	}
	if got := baskets[0].Products["PROD002"]; got != 1 {
		t.Errorf("expected quantity 1 for PROD002, got %d", got)
	}
	if !baskets[0].Contains("PROD002") {
		t.Error("basket should contain PROD002")
	}
	if baskets[1].Contains("PROD002") {
		t.Error("TXN002 basket should not contain PROD002")
	}
}

func TestDomainErrorChecks(t *testing.T) {
	valErr := NewDomainError(ModuleLedger, ErrorCodeValidation, "bad input")
	trainErr := NewDomainError(ModuleSimilarity, ErrorCodeNotTrained, "not trained")

	if !IsDataValidation(valErr) {
		t.Error("IsDataValidation should match VALIDATION errors")
	}
	if IsDataValidation(trainErr) {
		t.Error("IsDataValidation should not match NOT_TRAINED errors")
	}
	if !IsModelNotTrained(trainErr) {
		t.Error("IsModelNotTrained should match NOT_TRAINED errors")
	}
	if IsModelNotTrained(nil) {
		t.Error("nil error should not match")
	}
	if got := GetDomainError(valErr); got == nil || got.Module != ModuleLedger {
		t.Errorf("GetDomainError() = %v", got)
	}
}

func TestEngineConfigNormalized(t *testing.T) {
	cfg := EngineConfig{}.Normalized()
	if cfg.MinSupport != DefaultMinSupport {
		t.Errorf("MinSupport = %v, want %v", cfg.MinSupport, DefaultMinSupport)
	}
	if cfg.MinConfidence != DefaultMinConfidence {
		t.Errorf("MinConfidence = %v, want %v", cfg.MinConfidence, DefaultMinConfidence)
	}
	if cfg.TopN != DefaultTopN {
		t.Errorf("TopN = %v, want %v", cfg.TopN, DefaultTopN)
	}
	if cfg.ItemWeight != DefaultItemWeight || cfg.BasketWeight != DefaultBasketWeight {
		t.Errorf("weights = %v/%v, want %v/%v",
			cfg.ItemWeight, cfg.BasketWeight, DefaultItemWeight, DefaultBasketWeight)
	}

	custom := EngineConfig{MinSupport: 0.2, TopN: 3}.Normalized()
	if custom.MinSupport != 0.2 || custom.TopN != 3 {
		t.Errorf("explicit values must be kept: %+v", custom)
	}
}
