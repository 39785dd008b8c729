package generate

import (
	"fmt"
	"time"

	"github.com/c360/datasynth/entity"
)

// Customer builds one synthetic customer.
func (g *Generator) Customer() *entity.Customer {
	first := g.pick(firstNames)
	last := g.pick(lastNames)
	return &entity.Customer{
		CustomerID:         g.id(),
		CPF:                g.cpf(),
		Name:               first + " " + last,
		Email:              fmt.Sprintf("%s.%s%d@example.com.br", lower(first), lower(last), g.rng.IntN(1000)),
		Phone:              fmt.Sprintf("+55%02d9%08d", 11+g.rng.IntN(80), g.rng.IntN(100000000)),
		Address:            g.address(),
		MonthlyIncomeCents: g.cents(1500_00, 45000_00),
		EmploymentStatus:   g.pick(employmentStatuses),
		CreditScore:        300 + g.rng.IntN(551),
		CreatedAt:          g.pastTime(5 * 365 * 24 * time.Hour),
	}
}

// Account builds one account for a customer with the given type.
func (g *Generator) Account(customerID, accountType string) *entity.Account {
	return &entity.Account{
		AccountID:     g.id(),
		CustomerID:    customerID,
		AccountType:   accountType,
		BankCode:      g.pick(bankCodes),
		Branch:        fmt.Sprintf("%04d", 1+g.rng.IntN(9999)),
		AccountNumber: fmt.Sprintf("%08d-%d", g.rng.IntN(100000000), g.rng.IntN(10)),
		BalanceCents:  g.cents(0, 500000_00),
		Status:        "ACTIVE",
		CreatedAt:     g.pastTime(3 * 365 * 24 * time.Hour),
	}
}

// AccountTypes picks one to three account types for a customer. Roughly a
// third of customers get an investment account, which is what makes trades
// generatable.
func (g *Generator) AccountTypes() []string {
	types := []string{entity.AccountChecking}
	if g.rng.IntN(2) == 0 {
		types = append(types, entity.AccountSavings)
	}
	if g.rng.IntN(3) == 0 {
		types = append(types, entity.AccountInvestment)
	}
	return types
}

// CreditCard builds one card for a customer.
func (g *Generator) CreditCard(customerID string) *entity.CreditCard {
	limit := g.cents(500_00, 50000_00)
	return &entity.CreditCard{
		CardID:              g.id(),
		CustomerID:          customerID,
		CardNumberMasked:    fmt.Sprintf("%04d********%04d", 4000+g.rng.IntN(2000), g.rng.IntN(10000)),
		Brand:               g.pick(cardBrands),
		CreditLimitCents:    limit,
		AvailableLimitCents: g.cents(0, limit),
		DueDay:              1 + g.rng.IntN(28),
		Status:              "ACTIVE",
		CreatedAt:           g.pastTime(2 * 365 * 24 * time.Hour),
	}
}

// Property builds one real estate asset.
func (g *Generator) Property() *entity.Property {
	return &entity.Property{
		PropertyID:          g.id(),
		PropertyType:        g.pick(propertyTypes),
		Address:             g.address(),
		AppraisedValueCents: g.cents(150000_00, 2500000_00),
		AreaSqm:             30 + float64(g.rng.IntN(470)),
		RegistrationNumber:  fmt.Sprintf("M-%07d", g.rng.IntN(10000000)),
		CreatedAt:           g.pastTime(10 * 365 * 24 * time.Hour),
	}
}

// Loan builds one loan for a customer. Housing loans reference the given
// property; pass "" for other types.
func (g *Generator) Loan(customerID, loanType, propertyID string) *entity.Loan {
	principal := g.cents(5000_00, 100000_00)
	if loanType == "HOUSING" {
		principal = g.cents(100000_00, 1500000_00)
	}

	amortization := "PRICE"
	if g.rng.IntN(2) == 0 {
		amortization = "SAC"
	}

	term := 12 * (1 + g.rng.IntN(5))
	if loanType == "HOUSING" {
		term = 12 * (10 + g.rng.IntN(21))
	}

	return &entity.Loan{
		LoanID:             g.id(),
		CustomerID:         customerID,
		LoanType:           loanType,
		PrincipalCents:     principal,
		InterestRate:       0.008 + g.rng.Float64()*0.025,
		TermMonths:         term,
		AmortizationSystem: amortization,
		Status:             "ACTIVE",
		DisbursementDate:   g.pastTime(365 * 24 * time.Hour).Format("2006-01-02"),
		PropertyID:         propertyID,
		CreatedAt:          g.pastTime(365 * 24 * time.Hour),
	}
}

// LoanType picks a loan type.
func (g *Generator) LoanType() string {
	return g.pick(loanTypes)
}

// Installments amortizes a loan into its schedule. SAC holds principal
// constant per parcel; PRICE holds the total constant.
func (g *Generator) Installments(loan *entity.Loan) []*entity.Installment {
	n := loan.TermMonths
	if n <= 0 {
		return nil
	}

	start, _ := time.Parse("2006-01-02", loan.DisbursementDate)
	rate := loan.InterestRate
	outstanding := loan.PrincipalCents

	installments := make([]*entity.Installment, 0, n)
	for i := 1; i <= n; i++ {
		var principal, interest int64
		interest = int64(float64(outstanding) * rate)

		if loan.AmortizationSystem == "SAC" {
			principal = loan.PrincipalCents / int64(n)
		} else {
			// PRICE: fixed total, principal is the remainder
			factor := rate / (1 - pow(1+rate, -n))
			total := int64(float64(loan.PrincipalCents) * factor)
			principal = total - interest
		}
		if i == n || principal > outstanding {
			principal = outstanding
		}
		outstanding -= principal

		dueDate := start.AddDate(0, i, 0)
		inst := &entity.Installment{
			InstallmentID:     g.id(),
			LoanID:            loan.LoanID,
			InstallmentNumber: i,
			DueDate:           dueDate.Format("2006-01-02"),
			PrincipalCents:    principal,
			InterestCents:     interest,
			TotalCents:        principal + interest,
			Status:            "PENDING",
		}
		if dueDate.Before(g.now) {
			inst.Status = "PAID"
			inst.PaidDate = dueDate.Format("2006-01-02")
			inst.PaidCents = inst.TotalCents
		}
		installments = append(installments, inst)
	}
	return installments
}

// Stocks returns the full synthetic listing set with randomized prices.
func (g *Generator) Stocks() []*entity.Stock {
	stocks := make([]*entity.Stock, 0, len(stockListings))
	for _, listing := range stockListings {
		stocks = append(stocks, &entity.Stock{
			StockID:     g.id(),
			Ticker:      listing.ticker,
			CompanyName: listing.company,
			Sector:      listing.sector,
			Segment:     listing.segment,
			PriceCents:  g.cents(5_00, 120_00),
			Currency:    "BRL",
			ISIN:        fmt.Sprintf("BR%s%s", listing.ticker[:4], "ACNOR6"),
			LotSize:     100,
			CreatedAt:   g.pastTime(10 * 365 * 24 * time.Hour),
		})
	}
	return stocks
}

func lower(s string) string {
	out := []byte(s)
	for i := range out {
		if out[i] >= 'A' && out[i] <= 'Z' {
			out[i] += 'a' - 'A'
		}
	}
	return string(out)
}

// pow is a small integer-exponent power for amortization factors.
func pow(base float64, exp int) float64 {
	result := 1.0
	if exp < 0 {
		base = 1 / base
		exp = -exp
	}
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}
