package generate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/datasynth/entity"
	"github.com/c360/datasynth/store"
)

func TestGenerator_Deterministic(t *testing.T) {
	a := New(42)
	b := New(42)

	ca := a.Customer()
	cb := b.Customer()
	assert.Equal(t, ca.CustomerID, cb.CustomerID)
	assert.Equal(t, ca.Name, cb.Name)
	assert.Equal(t, ca.CPF, cb.CPF)

	c := New(43)
	assert.NotEqual(t, ca.CustomerID, c.Customer().CustomerID)
}

func TestGenerator_StreamsAreIndependent(t *testing.T) {
	a := NewStream(42, 1)
	b := NewStream(42, 2)
	assert.NotEqual(t, a.Customer().CustomerID, b.Customer().CustomerID)
}

func TestGenerator_CustomerFields(t *testing.T) {
	g := New(1)
	c := g.Customer()

	assert.NotEmpty(t, c.CustomerID)
	assert.Len(t, c.CPF, 11)
	assert.Contains(t, c.Email, "@example.com.br")
	assert.GreaterOrEqual(t, c.CreditScore, 300)
	assert.LessOrEqual(t, c.CreditScore, 850)
	assert.Positive(t, c.MonthlyIncomeCents)
	assert.Equal(t, "BR", c.Address.Country)
}

func TestGenerator_CPFCheckDigits(t *testing.T) {
	g := New(7)
	for i := 0; i < 20; i++ {
		cpf := g.cpf()
		require.Len(t, cpf, 11)

		digits := make([]int, 11)
		for j, r := range cpf {
			digits[j] = int(r - '0')
		}

		sum := 0
		for j := 0; j < 9; j++ {
			sum += digits[j] * (10 - j)
		}
		assert.Equal(t, (sum*10%11)%10, digits[9])

		sum = 0
		for j := 0; j < 10; j++ {
			sum += digits[j] * (11 - j)
		}
		assert.Equal(t, (sum*10%11)%10, digits[10])
	}
}

func TestGenerator_MasterDataRegisters(t *testing.T) {
	g := New(3)
	s := store.New()

	customer := g.Customer()
	require.NoError(t, s.Register(customer))
	require.NoError(t, s.Register(g.Account(customer.CustomerID, entity.AccountInvestment)))
	require.NoError(t, s.Register(g.CreditCard(customer.CustomerID)))

	property := g.Property()
	require.NoError(t, s.Register(property))
	require.NoError(t, s.Register(g.Loan(customer.CustomerID, "HOUSING", property.PropertyID)))

	for _, stock := range g.Stocks() {
		require.NoError(t, s.Register(stock))
	}
	assert.Equal(t, len(stockListings), s.Count(entity.TypeStock))
}

func TestGenerator_InstallmentSchedule(t *testing.T) {
	g := New(5)
	loan := g.Loan("cust-1", "PERSONAL", "")

	schedule := g.Installments(loan)
	require.Len(t, schedule, loan.TermMonths)

	var principal int64
	for i, inst := range schedule {
		assert.Equal(t, i+1, inst.InstallmentNumber)
		assert.Equal(t, loan.LoanID, inst.LoanID)
		assert.Equal(t, inst.PrincipalCents+inst.InterestCents, inst.TotalCents)
		principal += inst.PrincipalCents
	}
	// The schedule amortizes the full principal
	assert.Equal(t, loan.PrincipalCents, principal)
}

func TestGenerator_TradeConsistency(t *testing.T) {
	g := New(9)
	stock := g.Stocks()[0]

	for i := 0; i < 50; i++ {
		trade := g.Trade("acc-1", stock)
		assert.Equal(t, trade.PricePerShareCents*int64(trade.Quantity), trade.TotalAmountCents)
		assert.Equal(t, 0, trade.Quantity%stock.LotSize)
		if trade.TradeType == "BUY" {
			assert.Equal(t, trade.TotalAmountCents+trade.FeesCents, trade.NetAmountCents)
		} else {
			assert.Equal(t, trade.TotalAmountCents-trade.FeesCents, trade.NetAmountCents)
		}
		assert.Equal(t, trade.ExecutedAt.AddDate(0, 0, 2), trade.SettlementDate)
	}
}

func TestGenerator_PixTransactionFields(t *testing.T) {
	g := New(11)

	sawPix := false
	for i := 0; i < 100 && !sawPix; i++ {
		txn := g.Transaction("acc-1")
		if txn.TransactionType == "PIX" {
			sawPix = true
			assert.NotEmpty(t, txn.PixE2EID)
			assert.NotEmpty(t, txn.PixKeyType)
			assert.NotEmpty(t, txn.CounterpartyKey)
		}
	}
	assert.True(t, sawPix)
}
