package validate

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "receiptstudio/infrastructure/errors"
)

type lineInput struct {
	Description string          `json:"description" validate:"required"`
	Quantity    int64           `json:"quantity" validate:"gte=0"`
	Price       decimal.Decimal `json:"price" validate:"gte=0"`
}

type receiptInput struct {
	Email string          `json:"customer_email" validate:"omitempty,email"`
	Rate  decimal.Decimal `json:"tax_rate" validate:"gte=0,lte=100"`
	Items []lineInput     `json:"items" validate:"required,min=1,dive"`
}

func TestStructAcceptsValidInput(t *testing.T) {
	err := Struct(receiptInput{
		Rate:  decimal.RequireFromString("8.5"),
		Items: []lineInput{{Description: "Tea", Quantity: 1, Price: decimal.NewFromInt(3)}},
	})
	assert.NoError(t, err)
}

func TestStructReportsFieldDetails(t *testing.T) {
	err := Struct(receiptInput{
		Email: "not-an-email",
		Rate:  decimal.NewFromInt(101),
		Items: []lineInput{{Description: "", Quantity: -1, Price: decimal.RequireFromString("-0.01")}},
	})
	require.Error(t, err)

	typed := apperrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, apperrors.CodeValidation, typed.Code())

	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be a valid email", details["customer_email"])
	assert.Equal(t, "must be less than or equal to 100", details["tax_rate"])
	assert.Equal(t, "is required", details["items[0].description"])
	assert.Equal(t, "must be greater than or equal to 0", details["items[0].quantity"])
	assert.Equal(t, "must be greater than or equal to 0", details["items[0].price"])
}

func TestStructRequiresItems(t *testing.T) {
	err := Struct(receiptInput{})
	require.Error(t, err)
	assert.Equal(t, "items is required", FirstMessage(err))
}
