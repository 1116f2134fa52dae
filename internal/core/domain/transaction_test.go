package domain_test

import (
	"testing"

	"github.com/SajmustafaKe/trustledger/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransaction_SignedDelta(t *testing.T) {
	tests := []struct {
		name string
		txn  domain.Transaction
		want decimal.Decimal
	}{
		{
			name: "deposit adds its amount",
			txn:  domain.Transaction{TransactionType: domain.Deposit, Amount: decimal.NewFromInt(100)},
			want: decimal.NewFromInt(100),
		},
		{
			name: "withdrawal subtracts its amount",
			txn:  domain.Transaction{TransactionType: domain.Withdrawal, Amount: decimal.NewFromInt(40)},
			want: decimal.NewFromInt(-40),
		},
		{
			name: "payment subtracts its amount",
			txn:  domain.Transaction{TransactionType: domain.Payment, Amount: decimal.NewFromInt(25)},
			want: decimal.NewFromInt(-25),
		},
		{
			name: "positive adjustment passes through",
			txn:  domain.Transaction{TransactionType: domain.Adjustment, Amount: decimal.NewFromInt(10)},
			want: decimal.NewFromInt(10),
		},
		{
			name: "negative adjustment passes through",
			txn:  domain.Transaction{TransactionType: domain.Adjustment, Amount: decimal.NewFromInt(-10)},
			want: decimal.NewFromInt(-10),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.txn.SignedDelta().Equal(tt.want))
		})
	}
}

func TestValidTransactionType(t *testing.T) {
	for _, valid := range []domain.TransactionType{domain.Deposit, domain.Withdrawal, domain.Payment, domain.Adjustment} {
		assert.True(t, domain.ValidTransactionType(valid))
	}
	assert.False(t, domain.ValidTransactionType("TRANSFER"))
	assert.False(t, domain.ValidTransactionType(""))
	assert.False(t, domain.ValidTransactionType("deposit"), "types are case sensitive")
}
