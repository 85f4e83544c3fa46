// payments.go

package main

import (
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
)

// PaymentGateway creates a provider-side payment intent for a price and
// returns the client secret the frontend needs to confirm it.
type PaymentGateway interface {
	CreateIntent(price float64) (string, error)
}

type stripeGateway struct{}

func NewStripeGateway(secretKey string) PaymentGateway {
	stripe.Key = secretKey
	return &stripeGateway{}
}

func (g *stripeGateway) CreateIntent(price float64) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(toMinorUnits(price)),
		Currency:           stripe.String(string(stripe.CurrencyUSD)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	pi, err := paymentintent.New(params)
	if err != nil {
		return "", err
	}
	return pi.ClientSecret, nil
}

// toMinorUnits converts a dollar price to cents, truncating fractional
// cents the same way the frontend rounds them off.
func toMinorUnits(price float64) int64 {
	return int64(price * 100)
}
