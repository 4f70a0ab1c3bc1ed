package validation

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWalletID(t *testing.T) {
	valid := uuid.NewString()

	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "canonical", raw: valid},
		{name: "surrounding spaces", raw: "  " + valid + " "},
		{name: "empty", raw: "", wantErr: true},
		{name: "garbage", raw: "not-a-uuid", wantErr: true},
		{name: "nil uuid", raw: uuid.Nil.String(), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ParseWalletID(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidParameter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, valid, id.String())
		})
	}
}

func TestParseOperationType(t *testing.T) {
	tests := []struct {
		raw     string
		want    OperationType
		wantErr bool
	}{
		{raw: "DEPOSIT", want: Deposit},
		{raw: "withdraw", want: Withdraw},
		{raw: " Deposit ", want: Deposit},
		{raw: "TRANSFER", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseOperationType(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidParameter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "integer", raw: "100", want: "100.00"},
		{name: "two places", raw: "0.01", want: "0.01"},
		{name: "trailing zeros beyond scale", raw: "1.500", want: "1.50"},
		{name: "large exact", raw: "12345678901234567.89", want: "12345678901234567.89"},
		{name: "not float rounded", raw: "0.10", want: "0.10"},
		{name: "three places", raw: "1.005", wantErr: true},
		{name: "zero", raw: "0", wantErr: true},
		{name: "negative", raw: "-5", wantErr: true},
		{name: "exponent", raw: "1e9", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
		{name: "letters", raw: "ten", wantErr: true},
		{name: "too long", raw: "1234567890123456789012345678901234", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidParameter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.StringFixed(AmountScale))
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)))
		})
	}
}

func TestParseAmountRepeatedAdditionIsExact(t *testing.T) {
	step, err := ParseAmount("0.10")
	require.NoError(t, err)

	sum := decimal.Zero
	for i := 0; i < 1000; i++ {
		sum = sum.Add(step)
	}
	assert.True(t, sum.Equal(decimal.NewFromInt(100)), "got %s", sum)
}

func TestParseOwnerName(t *testing.T) {
	name, err := ParseOwnerName("ownerFirstName", "  Moritz ")
	require.NoError(t, err)
	assert.Equal(t, "Moritz", name)

	_, err = ParseOwnerName("ownerFirstName", " ")
	require.ErrorIs(t, err, ErrInvalidParameter)

	long := make([]rune, 51)
	for i := range long {
		long[i] = 'a'
	}
	_, err = ParseOwnerName("ownerLastName", string(long))
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestParseBalance(t *testing.T) {
	zero, err := ParseBalance("0")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	_, err = ParseBalance("-0.01")
	require.ErrorIs(t, err, ErrInvalidParameter)

	_, err = ParseBalance("10.001")
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestTextAcceptsStringsAndNumbers(t *testing.T) {
	var body struct {
		Amount Text `json:"amount"`
		Type   Text `json:"operationType"`
		Absent Text `json:"absent"`
	}
	err := json.Unmarshal([]byte(`{"amount": 1000.10, "operationType": "DEPOSIT", "absent": null}`), &body)
	require.NoError(t, err)
	assert.Equal(t, "1000.10", body.Amount.String())
	assert.Equal(t, "DEPOSIT", body.Type.String())
	assert.Empty(t, body.Absent.String())

	err = json.Unmarshal([]byte(`{"amount": true}`), &body)
	require.Error(t, err)
}
