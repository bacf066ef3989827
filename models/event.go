package models

import (
	"github.com/shopspring/decimal"
)

type Event struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

type TicketType struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}
