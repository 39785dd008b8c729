package generate

import (
	"fmt"
	"time"

	"github.com/c360/datasynth/entity"
)

// Transaction builds one account movement for the given account.
func (g *Generator) Transaction(accountID string) *entity.Transaction {
	txnType := g.pick(transactionTypes)
	direction := "DEBIT"
	if g.rng.IntN(3) == 0 {
		direction = "CREDIT"
	}

	txn := &entity.Transaction{
		TransactionID:   g.id(),
		AccountID:       accountID,
		TransactionType: txnType,
		AmountCents:     g.cents(1_00, 15000_00),
		Direction:       direction,
		Description:     fmt.Sprintf("%s %s", txnType, direction),
		Timestamp:       g.pastTime(30 * 24 * time.Hour),
		Status:          "COMPLETED",
	}

	if txnType == "PIX" {
		txn.PixE2EID = fmt.Sprintf("E%08d%s%07d",
			g.rng.IntN(100000000),
			txn.Timestamp.Format("200601021504"),
			g.rng.IntN(10000000))
		txn.PixKeyType = g.pick(pixKeyTypes)
		txn.CounterpartyKey = g.cpf()
		txn.CounterpartyName = g.pick(firstNames) + " " + g.pick(lastNames)
	}

	if g.rng.IntN(4) == 0 {
		txn.LocationLat = -33 + g.rng.Float64()*28
		txn.LocationLon = -73 + g.rng.Float64()*38
	}
	return txn
}

// CardTransaction builds one purchase for the given card.
func (g *Generator) CardTransaction(cardID string) *entity.CardTransaction {
	merchant := merchants[g.rng.IntN(len(merchants))]
	city := cities[g.rng.IntN(len(cities))]

	installments := 1
	if g.rng.IntN(4) == 0 {
		installments = 2 + g.rng.IntN(11)
	}

	return &entity.CardTransaction{
		TransactionID:    g.id(),
		CardID:           cardID,
		MerchantName:     merchant.name,
		MerchantCategory: merchant.category,
		MCCCode:          merchant.mcc,
		AmountCents:      g.cents(5_00, 8000_00),
		Installments:     installments,
		Timestamp:        g.pastTime(30 * 24 * time.Hour),
		Status:           "APPROVED",
		LocationCity:     city.name,
		LocationCountry:  "BR",
	}
}

// Trade builds one executed order for an investment account and a stock.
func (g *Generator) Trade(accountID string, stock *entity.Stock) *entity.Trade {
	tradeType := "BUY"
	if g.rng.IntN(2) == 0 {
		tradeType = "SELL"
	}

	quantity := stock.LotSize * (1 + g.rng.IntN(50))
	price := stock.PriceCents + g.cents(-2_00, 2_00)
	if price < 1 {
		price = 1
	}
	total := price * int64(quantity)
	fees := total / 200 // 0.5% brokerage plus exchange fees
	net := total + fees
	if tradeType == "SELL" {
		net = total - fees
	}

	orderType := "MARKET"
	if g.rng.IntN(3) == 0 {
		orderType = "LIMIT"
	}

	executed := g.pastTime(30 * 24 * time.Hour)
	return &entity.Trade{
		TradeID:            g.id(),
		AccountID:          accountID,
		StockID:            stock.StockID,
		Ticker:             stock.Ticker,
		TradeType:          tradeType,
		Quantity:           quantity,
		PricePerShareCents: price,
		TotalAmountCents:   total,
		FeesCents:          fees,
		NetAmountCents:     net,
		OrderType:          orderType,
		Status:             "EXECUTED",
		ExecutedAt:         executed,
		SettlementDate:     executed.AddDate(0, 0, 2),
	}
}
