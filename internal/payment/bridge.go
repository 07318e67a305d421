package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/storefront-labs/fulfillment/internal/clients"
	"github.com/storefront-labs/fulfillment/internal/logging"
)

// ErrChargeDeclined means the wallet answered but refused the charge,
// typically for insufficient funds.
var ErrChargeDeclined = errors.New("wallet charge declined")

type WalletAPI interface {
	Pay(ctx context.Context, userID, orderID uint, amount float64) (clients.PayResult, error)
	Credit(ctx context.Context, userID, orderID uint, amount float64, reason, source string) (float64, error)
}

// Bridge is the single seam between the order lifecycle and the wallet
// service. Calls are synchronous and single-attempt.
type Bridge struct {
	Wallet WalletAPI
}

func (b *Bridge) Charge(ctx context.Context, userID, orderID uint, amount float64) error {
	res, err := b.Wallet.Pay(ctx, userID, orderID, amount)
	if err != nil {
		return fmt.Errorf("wallet pay: %w", err)
	}
	if !res.Success {
		return ErrChargeDeclined
	}
	return nil
}

// Refund credits the wallet. A non-positive amount or missing user is
// skipped silently, not an error.
func (b *Bridge) Refund(ctx context.Context, userID, orderID uint, amount float64, reason, source string) error {
	if amount <= 0 || userID == 0 {
		logging.FromContext(ctx).Info("refund_skipped", "order_id", orderID, "amount", amount)
		return nil
	}
	if _, err := b.Wallet.Credit(ctx, userID, orderID, amount, reason, source); err != nil {
		return fmt.Errorf("wallet credit: %w", err)
	}
	return nil
}
