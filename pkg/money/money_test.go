package money_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"ecommerce/pkg/money"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want money.Cents
	}{
		{"0", 0},
		{"20", 2000},
		{"20.0", 2000},
		{"20.5", 2050},
		{"99.99", 9999},
		{"0.01", 1},
		{"0.005", 1},
		{"0.004", 0},
		{"-13.37", -1337},
		{"+5", 500},
		{"1e2", 10000},
	}
	for _, tc := range cases {
		got, err := money.Parse(tc.in)
		assert.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseInvalid(t *testing.T) {
	for _, in := range []string{"", "abc", "12.x", "--5"} {
		_, err := money.Parse(in)
		assert.Error(t, err, in)
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "20.00", money.Cents(2000).String())
	assert.Equal(t, "99.99", money.Cents(9999).String())
	assert.Equal(t, "0.05", money.Cents(5).String())
	assert.Equal(t, "-13.37", money.Cents(-1337).String())
}

func TestJSONRoundTrip(t *testing.T) {
	type payload struct {
		Amount money.Cents `json:"amount"`
	}

	var p payload
	err := json.Unmarshal([]byte(`{"amount": 99.99}`), &p)
	assert.NoError(t, err)
	assert.Equal(t, money.Cents(9999), p.Amount)

	out, err := json.Marshal(p)
	assert.NoError(t, err)
	assert.JSONEq(t, `{"amount": 99.99}`, string(out))
}

// Summing many line totals in cents must be exact; the classic 0.1+0.2
// float drift must not appear.
func TestSumExactness(t *testing.T) {
	price, err := money.Parse("0.10")
	assert.NoError(t, err)

	var total money.Cents
	for i := 0; i < 1000; i++ {
		total += price.Mul(3)
	}
	assert.Equal(t, money.Cents(30000), total)
	assert.Equal(t, "300.00", total.String())
}

func TestFromFloat(t *testing.T) {
	assert.Equal(t, money.Cents(1000), money.FromFloat(10.0))
	assert.Equal(t, money.Cents(9999), money.FromFloat(99.99))
	assert.Equal(t, money.Cents(-250), money.FromFloat(-2.5))
}
