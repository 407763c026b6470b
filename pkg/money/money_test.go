package money

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_BasicValues(t *testing.T) {
	a, err := Parse("10.00")
	require.NoError(t, err)
	assert.Equal(t, "10.0000", a.String())

	b, err := Parse("-0.5")
	require.NoError(t, err)
	assert.Equal(t, "-0.5000", b.String())

	c, err := Parse("0")
	require.NoError(t, err)
	assert.True(t, c.IsZero())
}

func TestParse_BankersRounding(t *testing.T) {
	cases := map[string]string{
		"1.00005": "1.0000", // halfway, kept digit (0) is even -> stays
		"1.00015": "1.0002", // halfway, kept digit (1) is odd -> rounds up
		"1.00025": "1.0002", // halfway, kept digit (2) is even -> stays
		"1.00035": "1.0004", // halfway, kept digit (3) is odd -> rounds up
		"1.00009": "1.0001", // not halfway, rounds up
		"1.00001": "1.0000", // not halfway, rounds down
		"-1.00005": "-1.0000",
	}
	for in, want := range cases {
		got, err := Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got.String(), "input %s", in)
	}
}

func TestSum_BalancedPostings(t *testing.T) {
	postings := []Amount{MustParse("100.0000"), MustParse("-60.0000"), MustParse("-40.0000")}
	assert.True(t, Sum(postings).IsZero())
}

func TestRatio_HalfEven(t *testing.T) {
	r, err := Ratio(MustParse("1"), MustParse("4"))
	require.NoError(t, err)
	assert.Equal(t, "0.2500", r.String())

	_, err = Ratio(MustParse("1"), Zero)
	require.Error(t, err)
}

func TestMulPercent(t *testing.T) {
	// 1000 at 5% APR => 50.0000
	got := MulPercent(MustParse("1000"), MustParse("5"))
	assert.Equal(t, "50.0000", got.String())
}

func TestMarshalUnmarshalJSON(t *testing.T) {
	a := MustParse("-12.3")
	data, err := a.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"-12.3000"`, string(data))

	var b Amount
	require.NoError(t, b.UnmarshalJSON(data))
	assert.Equal(t, a, b)
}

// TestParseStringRoundTrip is a property test: parsing a rendered
// Amount string must reproduce the same Amount (idempotence law).
func TestParseStringRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("parse(string(a)) == a", prop.ForAll(
		func(scaled int64) bool {
			a := FromScaled(scaled)
			parsed, err := Parse(a.String())
			if err != nil {
				return false
			}
			return parsed == a
		},
		gen.Int64Range(-1_000_000_000, 1_000_000_000),
	))

	properties.TestingRun(t)
}
