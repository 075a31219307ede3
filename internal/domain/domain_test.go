package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCartRecalculate(t *testing.T) {
	c := &Cart{Lines: []CartLine{
		{ProductID: "a", Quantity: 3, Price: decimal.RequireFromString("0.333")},
		{ProductID: "b", Quantity: 2, Price: decimal.RequireFromString("10")},
	}}
	c.Recalculate()
	if !c.Total.Equal(decimal.RequireFromString("21")) {
		t.Fatalf("expected 21.00, got %s", c.Total)
	}
	if c.Line("b") != 1 || c.Line("missing") != -1 {
		t.Fatalf("unexpected line lookup")
	}
}

func TestEmptyCartSerializesItemsAsArray(t *testing.T) {
	b, err := json.Marshal(EmptyCart("u1"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got := string(b); got != `{"user":"u1","items":[],"total":0,"createdAt":"0001-01-01T00:00:00Z","updatedAt":"0001-01-01T00:00:00Z"}` {
		t.Fatalf("unexpected json %s", got)
	}
	var nilCart *Cart
	if !nilCart.IsEmpty() {
		t.Fatalf("nil cart should be empty")
	}
}

func TestBusinessErrorMessages(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&ProductUnavailableError{ProductID: "p1", Name: "Mug"}, "Product Mug is no longer available"},
		{&ProductUnavailableError{ProductID: "p1"}, "Product p1 is no longer available"},
		{&InsufficientStockError{ProductID: "p1", Name: "Mug", Requested: 2, Available: 1}, "Insufficient stock for Mug"},
		{NewValidationError("%s is required", "city"), "city is required"},
	}
	for _, tc := range cases {
		if tc.err.Error() != tc.want {
			t.Fatalf("got %q, want %q", tc.err.Error(), tc.want)
		}
	}
}

func TestValidateQuantity(t *testing.T) {
	for _, q := range []int{1, MaxLineQuantity} {
		if err := ValidateQuantity(q); err != nil {
			t.Fatalf("quantity %d: unexpected error %v", q, err)
		}
	}
	for _, q := range []int{0, -2, MaxLineQuantity + 1} {
		if _, ok := ValidateQuantity(q).(*ValidationError); !ok {
			t.Fatalf("quantity %d: expected validation error", q)
		}
	}
}

func TestOrderOwnership(t *testing.T) {
	o := Order{UserID: "u1"}
	if !o.OwnedBy("u1") || o.OwnedBy("u2") || (Order{}).OwnedBy("") {
		t.Fatalf("unexpected ownership result")
	}
	var nobody *User
	if nobody.IsAdmin() || !(&User{Role: RoleAdmin}).IsAdmin() {
		t.Fatalf("unexpected admin check")
	}
}
