package entity

import "time"

// Account subtypes (Brazilian account types)
const (
	AccountChecking   = "CONTA_CORRENTE"
	AccountSavings    = "POUPANCA"
	AccountInvestment = "INVESTIMENTOS"
)

// Monetary amounts are carried as int64 minor units (centavos).

// Address is a Brazilian postal address.
type Address struct {
	Street       string `json:"street"`
	Number       string `json:"number"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`       // 2-letter code (SP, RJ, ...)
	PostalCode   string `json:"postal_code"` // CEP format XXXXX-XXX
	Complement   string `json:"complement,omitempty"`
	Country      string `json:"country"`
}

// Customer is a bank customer.
type Customer struct {
	CustomerID         string    `json:"customer_id"`
	CPF                string    `json:"cpf"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Phone              string    `json:"phone"`
	Address            Address   `json:"address"`
	MonthlyIncomeCents int64     `json:"monthly_income_cents"`
	EmploymentStatus   string    `json:"employment_status"` // EMPLOYED, SELF_EMPLOYED, RETIRED, UNEMPLOYED
	CreditScore        int       `json:"credit_score"`      // 300-850
	CreatedAt          time.Time `json:"created_at"`
}

func (c *Customer) EntityType() Type          { return TypeCustomer }
func (c *Customer) EntityID() string          { return c.CustomerID }
func (c *Customer) ForeignKeys() []ForeignKey { return nil }
func (c *Customer) Subtype() string           { return "" }

// Account is a bank account owned by a customer.
type Account struct {
	AccountID     string    `json:"account_id"`
	CustomerID    string    `json:"customer_id"`
	AccountType   string    `json:"account_type"` // CONTA_CORRENTE, POUPANCA, INVESTIMENTOS
	BankCode      string    `json:"bank_code"`
	Branch        string    `json:"branch"`
	AccountNumber string    `json:"account_number"`
	BalanceCents  int64     `json:"balance_cents"`
	Status        string    `json:"status"` // ACTIVE, BLOCKED, CLOSED
	CreatedAt     time.Time `json:"created_at"`
}

func (a *Account) EntityType() Type { return TypeAccount }
func (a *Account) EntityID() string { return a.AccountID }

func (a *Account) ForeignKeys() []ForeignKey {
	return []ForeignKey{
		{Field: "customer_id", RefType: TypeCustomer, RefID: a.CustomerID},
	}
}

// Subtype is the account type; trades constrain on it.
func (a *Account) Subtype() string { return a.AccountType }

// CreditCard is a credit card issued to a customer.
type CreditCard struct {
	CardID              string    `json:"card_id"`
	CustomerID          string    `json:"customer_id"`
	CardNumberMasked    string    `json:"card_number_masked"`
	Brand               string    `json:"brand"` // VISA, MASTERCARD, ELO
	CreditLimitCents    int64     `json:"credit_limit_cents"`
	AvailableLimitCents int64     `json:"available_limit_cents"`
	DueDay              int       `json:"due_day"` // 1-28
	Status              string    `json:"status"`  // ACTIVE, BLOCKED, CANCELLED
	CreatedAt           time.Time `json:"created_at"`
}

func (c *CreditCard) EntityType() Type { return TypeCreditCard }
func (c *CreditCard) EntityID() string { return c.CardID }

func (c *CreditCard) ForeignKeys() []ForeignKey {
	return []ForeignKey{
		{Field: "customer_id", RefType: TypeCustomer, RefID: c.CustomerID},
	}
}

func (c *CreditCard) Subtype() string { return "" }

// Property is a real estate asset backing housing finance.
type Property struct {
	PropertyID          string    `json:"property_id"`
	PropertyType        string    `json:"property_type"` // APARTMENT, HOUSE, LAND
	Address             Address   `json:"address"`
	AppraisedValueCents int64     `json:"appraised_value_cents"`
	AreaSqm             float64   `json:"area_sqm"`
	RegistrationNumber  string    `json:"registration_number"`
	CreatedAt           time.Time `json:"created_at"`
}

func (p *Property) EntityType() Type          { return TypeProperty }
func (p *Property) EntityID() string          { return p.PropertyID }
func (p *Property) ForeignKeys() []ForeignKey { return nil }
func (p *Property) Subtype() string           { return "" }

// Loan is a loan contract. PropertyID is set for housing finance only.
type Loan struct {
	LoanID             string    `json:"loan_id"`
	CustomerID         string    `json:"customer_id"`
	LoanType           string    `json:"loan_type"` // PERSONAL, HOUSING, VEHICLE
	PrincipalCents     int64     `json:"principal_cents"`
	InterestRate       float64   `json:"interest_rate"` // monthly rate, 0.015 = 1.5%
	TermMonths         int       `json:"term_months"`
	AmortizationSystem string    `json:"amortization_system"` // SAC, PRICE
	Status             string    `json:"status"`
	DisbursementDate   string    `json:"disbursement_date,omitempty"` // ISO date
	PropertyID         string    `json:"property_id,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

func (l *Loan) EntityType() Type { return TypeLoan }
func (l *Loan) EntityID() string { return l.LoanID }

func (l *Loan) ForeignKeys() []ForeignKey {
	fks := []ForeignKey{
		{Field: "customer_id", RefType: TypeCustomer, RefID: l.CustomerID},
	}
	if l.PropertyID != "" {
		fks = append(fks, ForeignKey{Field: "property_id", RefType: TypeProperty, RefID: l.PropertyID})
	}
	return fks
}

func (l *Loan) Subtype() string { return "" }

// Stock is a B3-listed equity.
type Stock struct {
	StockID      string    `json:"stock_id"`
	Ticker       string    `json:"ticker"` // PETR4, VALE3, ITUB4
	CompanyName  string    `json:"company_name"`
	Sector       string    `json:"sector"`
	Segment      string    `json:"segment"`
	PriceCents   int64     `json:"price_cents"`
	Currency     string    `json:"currency"` // BRL
	ISIN         string    `json:"isin"`
	LotSize      int       `json:"lot_size"`
	CreatedAt    time.Time `json:"created_at"`
}

func (s *Stock) EntityType() Type          { return TypeStock }
func (s *Stock) EntityID() string          { return s.StockID }
func (s *Stock) ForeignKeys() []ForeignKey { return nil }
func (s *Stock) Subtype() string           { return "" }

// Transaction is a bank account movement (Pix, TED, withdrawal, ...).
type Transaction struct {
	TransactionID    string    `json:"transaction_id"`
	AccountID        string    `json:"account_id"`
	TransactionType  string    `json:"transaction_type"` // PIX, TED, DOC, WITHDRAW, DEPOSIT, BOLETO
	AmountCents      int64     `json:"amount_cents"`
	Direction        string    `json:"direction"` // CREDIT, DEBIT
	CounterpartyKey  string    `json:"counterparty_key,omitempty"`
	CounterpartyName string    `json:"counterparty_name,omitempty"`
	Description      string    `json:"description"`
	Timestamp        time.Time `json:"timestamp"`
	Status           string    `json:"status"` // PENDING, COMPLETED, FAILED

	// Pix-specific fields
	PixE2EID   string `json:"pix_e2e_id,omitempty"`
	PixKeyType string `json:"pix_key_type,omitempty"` // CPF, CNPJ, EMAIL, PHONE, EVP

	// Location for fraud detection
	LocationLat float64 `json:"location_lat,omitempty"`
	LocationLon float64 `json:"location_lon,omitempty"`
}

func (t *Transaction) EntityType() Type { return TypeTransaction }
func (t *Transaction) EntityID() string { return t.TransactionID }

func (t *Transaction) ForeignKeys() []ForeignKey {
	return []ForeignKey{
		{Field: "account_id", RefType: TypeAccount, RefID: t.AccountID},
	}
}

func (t *Transaction) Subtype() string { return "" }

// PartitionKey groups transactions by account.
func (t *Transaction) PartitionKey() string { return t.AccountID }

// CardTransaction is a credit card purchase.
type CardTransaction struct {
	TransactionID    string    `json:"transaction_id"`
	CardID           string    `json:"card_id"`
	MerchantName     string    `json:"merchant_name"`
	MerchantCategory string    `json:"merchant_category"`
	MCCCode          string    `json:"mcc_code"`
	AmountCents      int64     `json:"amount_cents"`
	Installments     int       `json:"installments"`
	Timestamp        time.Time `json:"timestamp"`
	Status           string    `json:"status"` // PENDING, APPROVED, DECLINED
	LocationCity     string    `json:"location_city,omitempty"`
	LocationCountry  string    `json:"location_country"`
}

func (t *CardTransaction) EntityType() Type { return TypeCardTransaction }
func (t *CardTransaction) EntityID() string { return t.TransactionID }

func (t *CardTransaction) ForeignKeys() []ForeignKey {
	return []ForeignKey{
		{Field: "card_id", RefType: TypeCreditCard, RefID: t.CardID},
	}
}

func (t *CardTransaction) Subtype() string { return "" }

// PartitionKey groups card transactions by card.
func (t *CardTransaction) PartitionKey() string { return t.CardID }

// Trade is a buy or sell order executed on B3. The referenced account must
// be an investment account.
type Trade struct {
	TradeID            string    `json:"trade_id"`
	AccountID          string    `json:"account_id"`
	StockID            string    `json:"stock_id"`
	Ticker             string    `json:"ticker"`
	TradeType          string    `json:"trade_type"` // BUY, SELL
	Quantity           int       `json:"quantity"`
	PricePerShareCents int64     `json:"price_per_share_cents"`
	TotalAmountCents   int64     `json:"total_amount_cents"`
	FeesCents          int64     `json:"fees_cents"`
	NetAmountCents     int64     `json:"net_amount_cents"`
	OrderType          string    `json:"order_type"` // MARKET, LIMIT, STOP
	Status             string    `json:"status"`     // PENDING, EXECUTED, CANCELLED, PARTIALLY_FILLED
	ExecutedAt         time.Time `json:"executed_at"`
	SettlementDate     time.Time `json:"settlement_date"` // T+2
}

func (t *Trade) EntityType() Type { return TypeTrade }
func (t *Trade) EntityID() string { return t.TradeID }

func (t *Trade) ForeignKeys() []ForeignKey {
	return []ForeignKey{
		{Field: "account_id", RefType: TypeAccount, RefID: t.AccountID, RequireSubtype: AccountInvestment},
		{Field: "stock_id", RefType: TypeStock, RefID: t.StockID},
	}
}

func (t *Trade) Subtype() string { return "" }

// PartitionKey groups trades by investment account.
func (t *Trade) PartitionKey() string { return t.AccountID }

// Installment is one parcela of a loan.
type Installment struct {
	InstallmentID     string `json:"installment_id"`
	LoanID            string `json:"loan_id"`
	InstallmentNumber int    `json:"installment_number"`
	DueDate           string `json:"due_date"` // ISO date
	PrincipalCents    int64  `json:"principal_cents"`
	InterestCents     int64  `json:"interest_cents"`
	TotalCents        int64  `json:"total_cents"`
	PaidDate          string `json:"paid_date,omitempty"` // ISO date
	PaidCents         int64  `json:"paid_cents,omitempty"`
	Status            string `json:"status"` // PENDING, PAID, LATE, DEFAULT
}

func (i *Installment) EntityType() Type { return TypeInstallment }
func (i *Installment) EntityID() string { return i.InstallmentID }

func (i *Installment) ForeignKeys() []ForeignKey {
	return []ForeignKey{
		{Field: "loan_id", RefType: TypeLoan, RefID: i.LoanID},
	}
}

func (i *Installment) Subtype() string { return "" }

// PartitionKey groups installments by loan.
func (i *Installment) PartitionKey() string { return i.LoanID }
