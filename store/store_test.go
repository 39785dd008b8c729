package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/datasynth/entity"
)

func newCustomer(id string) *entity.Customer {
	return &entity.Customer{CustomerID: id, Name: "Customer " + id}
}

func newAccount(id, customerID, accountType string) *entity.Account {
	return &entity.Account{AccountID: id, CustomerID: customerID, AccountType: accountType}
}

func TestStore_RegisterAndGet(t *testing.T) {
	s := New()

	require.NoError(t, s.Register(newCustomer("cust-1")))

	got, ok := s.Get(entity.TypeCustomer, "cust-1")
	require.True(t, ok)
	assert.Equal(t, "cust-1", got.EntityID())

	_, ok = s.Get(entity.TypeCustomer, "cust-2")
	assert.False(t, ok)
}

func TestStore_RejectsDuplicate(t *testing.T) {
	s := New()
	require.NoError(t, s.Register(newCustomer("cust-1")))

	err := s.Register(newCustomer("cust-1"))
	var dup *DuplicateEntityError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, entity.TypeCustomer, dup.EntityType)
	assert.Equal(t, "cust-1", dup.EntityID)
}

func TestStore_RejectsDanglingReference(t *testing.T) {
	s := New()

	err := s.Register(newAccount("acc-1", "cust-missing", entity.AccountChecking))
	var dangling *DanglingReferenceError
	require.ErrorAs(t, err, &dangling)
	assert.Equal(t, "customer_id", dangling.Field)
	assert.Equal(t, entity.TypeCustomer, dangling.RefType)
	assert.Equal(t, "cust-missing", dangling.RefID)

	// Failed registration must leave no trace
	assert.Equal(t, 0, s.Count(entity.TypeAccount))
}

func TestStore_TransactionRequiresAccount(t *testing.T) {
	s := New()

	err := s.Register(&entity.Transaction{TransactionID: "txn-1", AccountID: "X"})
	var dangling *DanglingReferenceError
	require.ErrorAs(t, err, &dangling)
	assert.Equal(t, "account_id", dangling.Field)
	assert.Equal(t, entity.TypeAccount, dangling.RefType)
	assert.Equal(t, "X", dangling.RefID)

	// The rejected event must leave no trace
	assert.Equal(t, 0, s.Count(entity.TypeTransaction))

	// The same event registers once its account exists
	require.NoError(t, s.Register(newCustomer("cust-1")))
	require.NoError(t, s.Register(newAccount("X", "cust-1", entity.AccountChecking)))
	require.NoError(t, s.Register(&entity.Transaction{TransactionID: "txn-1", AccountID: "X"}))
	assert.Equal(t, 1, s.Count(entity.TypeTransaction))
}

func TestStore_TradeRequiresInvestmentAccount(t *testing.T) {
	s := New()
	require.NoError(t, s.Register(newCustomer("cust-1")))
	require.NoError(t, s.Register(newAccount("acc-checking", "cust-1", entity.AccountChecking)))
	require.NoError(t, s.Register(newAccount("acc-invest", "cust-1", entity.AccountInvestment)))
	require.NoError(t, s.Register(&entity.Stock{StockID: "stock-1", Ticker: "PETR4"}))

	err := s.Register(&entity.Trade{
		TradeID:   "trade-1",
		AccountID: "acc-checking",
		StockID:   "stock-1",
	})
	var mismatch *SubtypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, entity.AccountInvestment, mismatch.Expected)
	assert.Equal(t, entity.AccountChecking, mismatch.Actual)

	require.NoError(t, s.Register(&entity.Trade{
		TradeID:   "trade-2",
		AccountID: "acc-invest",
		StockID:   "stock-1",
	}))
}

func TestStore_RegisterAll_Atomic(t *testing.T) {
	s := New()
	require.NoError(t, s.Register(newCustomer("cust-1")))

	// Second account dangles, so the first must not be registered either
	err := s.RegisterAll(
		newAccount("acc-1", "cust-1", entity.AccountChecking),
		newAccount("acc-2", "cust-missing", entity.AccountChecking),
	)
	require.Error(t, err)
	assert.Equal(t, 0, s.Count(entity.TypeAccount))
}

func TestStore_RegisterAll_IntraBatchReferences(t *testing.T) {
	s := New()

	// The account references a customer registered in the same batch
	require.NoError(t, s.RegisterAll(
		newAccount("acc-1", "cust-1", entity.AccountSavings),
		newCustomer("cust-1"),
	))
	assert.Equal(t, 1, s.Count(entity.TypeCustomer))
	assert.Equal(t, 1, s.Count(entity.TypeAccount))
}

func TestStore_ChildrenOf(t *testing.T) {
	s := New()
	require.NoError(t, s.RegisterAll(
		newCustomer("cust-1"),
		newAccount("acc-1", "cust-1", entity.AccountChecking),
		newAccount("acc-2", "cust-1", entity.AccountInvestment),
		&entity.CreditCard{CardID: "card-1", CustomerID: "cust-1"},
	))

	accounts := s.ChildrenOf(entity.TypeCustomer, "cust-1", "customer_id")
	assert.Len(t, accounts, 3) // two accounts plus the card reference the customer

	all := s.ChildrenOf(entity.TypeCustomer, "cust-1", "")
	assert.Len(t, all, 3)

	none := s.ChildrenOf(entity.TypeCustomer, "cust-2", "")
	assert.Empty(t, none)
}

func TestStore_LoanPropertyTraversal(t *testing.T) {
	s := New()
	require.NoError(t, s.RegisterAll(
		newCustomer("cust-1"),
		&entity.Property{PropertyID: "prop-1", PropertyType: "APARTMENT"},
		&entity.Loan{LoanID: "loan-1", CustomerID: "cust-1", LoanType: "HOUSING", PropertyID: "prop-1"},
		&entity.Loan{LoanID: "loan-2", CustomerID: "cust-1", LoanType: "PERSONAL"},
	))

	backed := s.ChildrenOf(entity.TypeProperty, "prop-1", "property_id")
	require.Len(t, backed, 1)
	assert.Equal(t, "loan-1", backed[0].EntityID())
}

func TestStore_CountsAndIDs(t *testing.T) {
	s := New()
	require.NoError(t, s.RegisterAll(
		newCustomer("cust-1"),
		newCustomer("cust-2"),
		newAccount("acc-1", "cust-1", entity.AccountChecking),
	))

	counts := s.Counts()
	assert.Equal(t, 2, counts[entity.TypeCustomer])
	assert.Equal(t, 1, counts[entity.TypeAccount])

	ids := s.IDs(entity.TypeCustomer)
	assert.ElementsMatch(t, []string{"cust-1", "cust-2"}, ids)

	assert.Len(t, s.All(entity.TypeCustomer), 2)
}

func TestStore_ConcurrentRegistration(t *testing.T) {
	s := New()
	require.NoError(t, s.Register(newCustomer("cust-1")))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				id := fmt.Sprintf("acc-%d-%d", worker, j)
				_ = s.Register(newAccount(id, "cust-1", entity.AccountChecking))
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 400, s.Count(entity.TypeAccount))
}
