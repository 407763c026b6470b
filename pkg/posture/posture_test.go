package posture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisPatten/capital-os/pkg/money"
)

func TestCompute_RiskBandBoundaries(t *testing.T) {
	cases := []struct {
		name      string
		liquidity string
		target    string
		want      RiskBand
	}{
		{"zero ratio is critical", "0.0000", "1000.0000", RiskCritical},
		{"just under half is critical", "499.9999", "1000.0000", RiskCritical},
		{"exactly half is elevated", "500.0000", "1000.0000", RiskElevated},
		{"exactly one is guarded", "1000.0000", "1000.0000", RiskGuarded},
		{"exactly one and a half is stable", "1500.0000", "1000.0000", RiskStable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			metrics := Compute(Inputs{
				Liquidity:      money.MustParse(tc.liquidity),
				MinimumReserve: money.MustParse(tc.target),
			})
			assert.Equal(t, tc.want, metrics.RiskBand)
		})
	}
}

func TestCompute_ZeroReserveTargetYieldsZeroRatioNotError(t *testing.T) {
	metrics := Compute(Inputs{Liquidity: money.MustParse("500.0000")})
	assert.True(t, metrics.ReserveTarget.IsZero())
	assert.True(t, metrics.ReserveRatio.IsZero())
	assert.Equal(t, RiskCritical, metrics.RiskBand)
}

func TestConsolidate_TransfersNetToZeroAcrossEntities(t *testing.T) {
	entities := map[string]Inputs{
		"acme": {Liquidity: money.MustParse("1000.0000"), MinimumReserve: money.MustParse("200.0000")},
		"beta": {Liquidity: money.MustParse("500.0000"), MinimumReserve: money.MustParse("100.0000")},
	}
	transfers := []TransferLeg{
		{TransferID: "t1", EntityID: "acme", CounterpartyEntityID: "beta", Direction: "out", Amount: money.MustParse("50.0000")},
		{TransferID: "t1", EntityID: "beta", CounterpartyEntityID: "acme", Direction: "in", Amount: money.MustParse("50.0000")},
	}

	result, err := Consolidate([]string{"acme", "beta"}, entities, transfers)
	require.NoError(t, err)

	require.Len(t, result.TransferPairs, 1)
	assert.Equal(t, "acme", result.TransferPairs[0].EntityAID)
	assert.Equal(t, "beta", result.TransferPairs[0].EntityBID)

	assert.Equal(t, "1500.0000", money.Add(result.Entities[0].Liquidity, result.Entities[1].Liquidity).String())
	assert.Equal(t, "1500.0000", result.Consolidated.Liquidity.String())
}

func TestConsolidate_UnknownTransferEntityIsRejected(t *testing.T) {
	entities := map[string]Inputs{"acme": {Liquidity: money.MustParse("1000.0000")}}
	transfers := []TransferLeg{
		{TransferID: "t1", EntityID: "ghost", CounterpartyEntityID: "acme", Direction: "out", Amount: money.MustParse("10.0000")},
	}
	_, err := Consolidate([]string{"acme"}, entities, transfers)
	assert.Error(t, err)
}
