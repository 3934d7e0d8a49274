// Package payment выпускает ссылки на оплату для одобренных записей.
package payment

import (
	"context"
	"errors"
	"fmt"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
)

// Order - данные для выставления счёта по записи
type Order struct {
	RegistrationID int64
	ScheduleTitle  string
	Amount         int64
	CustomerName   string
	CustomerEmail  string
	CustomerPhone  string
}

// OrderID - идентификатор заказа у платёжного провайдера
func (o Order) OrderID() string {
	return fmt.Sprintf("registration-%d", o.RegistrationID)
}

// LinkGenerator создаёт ссылку на оплату
type LinkGenerator interface {
	PaymentLink(ctx context.Context, order Order) (string, error)
}

var ErrFreeOrder = errors.New("order amount must be positive")

// MidtransGenerator выпускает ссылки через Midtrans Snap
type MidtransGenerator struct {
	client snap.Client
}

func NewMidtransGenerator(serverKey string, production bool) *MidtransGenerator {
	g := &MidtransGenerator{}
	if production {
		g.client.New(serverKey, midtrans.Production)
	} else {
		g.client.New(serverKey, midtrans.Sandbox)
	}
	return g
}

func (g *MidtransGenerator) PaymentLink(_ context.Context, order Order) (string, error) {
	if order.Amount <= 0 {
		return "", ErrFreeOrder
	}

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  order.OrderID(),
			GrossAmt: order.Amount,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: order.CustomerName,
			Email: order.CustomerEmail,
			Phone: order.CustomerPhone,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    order.OrderID(),
				Price: order.Amount,
				Qty:   1,
				Name:  truncate(order.ScheduleTitle, 50),
			},
		},
	}

	resp, mErr := g.client.CreateTransaction(req)
	if mErr != nil {
		return "", fmt.Errorf("create snap transaction: %s", mErr.GetMessage())
	}
	return resp.RedirectURL, nil
}

// truncate - Midtrans ограничивает длину названия позиции
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
