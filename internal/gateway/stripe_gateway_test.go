package gateway

import "testing"

func TestAmountToMinorUnits(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		want   int64
	}{
		{"whole amount", 200.00, 20000},
		{"simple cents", 19.99, 1999},
		{"three seats at 19.99", 3 * 19.99, 5997},
		{"seven seats at 10.10", 7 * 10.10, 7070},
		{"zero", 0, 0},
		{"sub-cent rounds to nearest", 0.005, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := amountToMinorUnits(tt.amount); got != tt.want {
				t.Errorf("amountToMinorUnits(%v) = %d, want %d", tt.amount, got, tt.want)
			}
		})
	}
}

func TestNewStripeGateway_Validation(t *testing.T) {
	if _, err := NewStripeGateway(nil); err == nil {
		t.Error("NewStripeGateway(nil) expected error")
	}
	if _, err := NewStripeGateway(&StripeGatewayConfig{}); err == nil {
		t.Error("NewStripeGateway without secret key expected error")
	}

	gw, err := NewStripeGateway(&StripeGatewayConfig{SecretKey: "sk_test_x"})
	if err != nil {
		t.Fatalf("NewStripeGateway() error = %v", err)
	}
	if gw.config.Currency != "usd" {
		t.Errorf("default currency = %s, want usd", gw.config.Currency)
	}
}
