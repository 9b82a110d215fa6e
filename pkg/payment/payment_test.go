package payment

import (
	"context"
	"testing"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/campushub-api/pkg/config"
)

type snapStub struct {
	captured *snap.Request
	err      *midtrans.Error
}

func (s *snapStub) CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error) {
	s.captured = req
	if s.err != nil {
		return nil, s.err
	}
	return &snap.Response{Token: "tok", RedirectURL: "https://pay.example/tok"}, nil
}

func TestCheckoutBuildsSnapRequest(t *testing.T) {
	stub := &snapStub{}
	gw := &Midtrans{client: stub, serverKey: "server", finishURL: "https://app.example/done"}

	res, err := gw.Checkout(context.Background(), CheckoutRequest{OrderID: "pay-1", Amount: 150000, ItemName: "PRO plan", CustomerEmail: "admin@school.test"})
	require.NoError(t, err)
	assert.Equal(t, "tok", res.Token)
	assert.Equal(t, int64(150000), stub.captured.TransactionDetails.GrossAmt)
	assert.Equal(t, "pay-1", stub.captured.TransactionDetails.OrderID)
	require.NotNil(t, stub.captured.Callbacks)
	assert.Equal(t, "https://app.example/done", stub.captured.Callbacks.Finish)
}

func TestCheckoutPropagatesGatewayError(t *testing.T) {
	gw := &Midtrans{client: &snapStub{err: &midtrans.Error{Message: "unauthorized", StatusCode: 401}}}
	_, err := gw.Checkout(context.Background(), CheckoutRequest{OrderID: "pay-1", Amount: 1})
	assert.Error(t, err)

	_, err = gw.Checkout(context.Background(), CheckoutRequest{OrderID: "pay-1"})
	assert.Error(t, err)
}

func TestVerifySignature(t *testing.T) {
	gw := &Midtrans{serverKey: "server"}
	n := Notification{OrderID: "pay-1", StatusCode: "200", GrossAmount: "150000.00", TransactionStatus: "settlement"}
	n.SignatureKey = Signature(n.OrderID, n.StatusCode, n.GrossAmount, "server")

	require.NoError(t, gw.Verify(n))
	n.GrossAmount = "1.00"
	assert.ErrorIs(t, gw.Verify(n), ErrInvalidSignature)
}

func TestMapStatus(t *testing.T) {
	cases := map[string]Notification{
		StatusPaid:    {TransactionStatus: "settlement"},
		StatusPending: {TransactionStatus: "capture", FraudStatus: "challenge"},
		StatusFailed:  {TransactionStatus: "expire"},
	}
	for want, n := range cases {
		assert.Equal(t, want, MapStatus(n))
	}
	assert.Equal(t, StatusPaid, MapStatus(Notification{TransactionStatus: "capture", FraudStatus: "accept"}))
	assert.Equal(t, StatusPending, MapStatus(Notification{TransactionStatus: "pending"}))
}

func TestNewDisabled(t *testing.T) {
	gw := New(config.PaymentsConfig{})
	_, err := gw.Checkout(context.Background(), CheckoutRequest{})
	assert.ErrorIs(t, err, ErrDisabled)
}
