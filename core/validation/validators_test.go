package validation

import (
	"testing"
	"time"

	"github.com/golang-sql/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paystream/sdk-go/core/types"
	"github.com/paystream/sdk-go/core/util"
)

const (
	daiAddress      = "0x6b175474e89094c44da98b954eedeac495271d0f"
	accountAddress  = "0xf17f52151ebef6c7334fad080c5704d77216b732"
	contractAddress = "0xa4fc358455febe425536fd1878be67ffdbdec6b6"
	otherAddress    = "0xc5fdf4076b8f3a5357c5e395ab970b5b54098fef"
)

func testContext() *Context {
	ctx := NewContext([]string{"DAI", "USDC"}, contractAddress)
	ctx.Account = accountAddress
	return ctx
}

func validDraft() *types.StreamDraft {
	start := civil.DateTimeOf(time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))
	stop := civil.DateTimeOf(time.Date(2026, 2, 15, 9, 0, 0, 0, time.UTC))
	return &types.StreamDraft{
		TokenAddress:    daiAddress,
		TokenSymbol:     "DAI",
		Payment:         util.MustDecimal("70"),
		PaymentLabel:    "70 DAI",
		Interval:        types.IntervalWeek,
		StartTime:       &start,
		StopTime:        &stop,
		DurationMinutes: 20160,
		Deposit:         util.MustDecimal("140"),
		Recipient:       otherAddress,
	}
}

func TestValidateToken(t *testing.T) {
	ctx := testContext()

	d := validDraft()
	assert.Nil(t, ValidateToken(d, ctx))

	d.TokenSymbol = "SHADY"
	rej := ValidateToken(d, ctx)
	require.NotNil(t, rej)
	assert.Equal(t, types.ReasonTokenNotAccepted, rej.Code)
}

func TestValidatePayment_Literal(t *testing.T) {
	ctx := testContext()

	tests := []struct {
		name    string
		label   string
		payment string
		want    types.ReasonCode
	}{
		{"plain integer accepted", "70 DAI", "70", ""},
		{"three decimals accepted", "0.125 DAI", "0.125", ""},
		{"0.05 is not zero", "0.05 DAI", "0.05", ""},
		{"four decimals rejected", "1.2345 DAI", "1.2345", types.ReasonPaymentDecimalsTooLong},
		{"sub-resolution rejected as zero", "0.0001 DAI", "0.0001", types.ReasonPaymentZero},
		{"literal zero rejected", "0.0 DAI", "0.0", types.ReasonPaymentZero},
		{"negative integer rejected as zero", "-5 DAI", "-5", types.ReasonPaymentZero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			d.PaymentLabel = tt.label
			d.Payment = util.MustDecimal(tt.payment)

			rej := ValidatePayment(d, ctx)
			if tt.want == "" {
				assert.Nil(t, rej)
			} else {
				require.NotNil(t, rej)
				assert.Equal(t, tt.want, rej.Code)
			}
		})
	}
}

func TestValidatePayment_Balance(t *testing.T) {
	t.Run("deposit above balance rejected with displayable balance", func(t *testing.T) {
		ctx := testContext()
		// 100 tokens at 18 decimals, deposit of 150
		ctx.SetBalance(daiAddress, accountAddress, types.TokenBalance{
			Decimals: 18,
			Value:    util.MustDecimal("100000000000000000000"),
		})

		d := validDraft()
		d.Deposit = util.MustDecimal("150")

		rej := ValidatePayment(d, ctx)
		require.NotNil(t, rej)
		assert.Equal(t, types.ReasonPaymentInsufficientBalance, rej.Code)
		assert.Equal(t, "100.00", rej.Balance)
		assert.Equal(t, "DAI", rej.TokenSymbol)
	})

	t.Run("unknown balance is not yet validated", func(t *testing.T) {
		ctx := testContext()
		d := validDraft()
		d.Deposit = util.MustDecimal("150000000")
		assert.Nil(t, ValidatePayment(d, ctx))
	})

	t.Run("sufficient balance passes", func(t *testing.T) {
		ctx := testContext()
		ctx.SetBalance(daiAddress, accountAddress, types.TokenBalance{
			Decimals: 18,
			Value:    util.MustDecimal("1000000000000000000000"),
		})
		assert.Nil(t, ValidatePayment(validDraft(), ctx))
	})
}

func TestValidatePayment_RequiredOnceSubmitted(t *testing.T) {
	ctx := testContext()

	d := validDraft()
	d.Payment = nil
	d.PaymentLabel = ""
	assert.Nil(t, ValidatePayment(d, ctx), "untouched draft soft-passes")

	d.Submitted = true
	rej := ValidatePayment(d, ctx)
	require.NotNil(t, rej)
	assert.Equal(t, types.ReasonRequiredFieldMissing, rej.Code)
}

func TestValidateInterval(t *testing.T) {
	ctx := testContext()

	d := validDraft()
	d.Interval = ""
	assert.Nil(t, ValidateInterval(d, ctx), "untouched empty interval soft-passes")

	d.Submitted = true
	rej := ValidateInterval(d, ctx)
	require.NotNil(t, rej)
	assert.Equal(t, types.ReasonIntervalInvalid, rej.Code)

	d.Interval = types.IntervalDay
	assert.Nil(t, ValidateInterval(d, ctx))
}

func TestValidateTimes(t *testing.T) {
	ctx := testContext()

	t.Run("stop missing after submit", func(t *testing.T) {
		d := validDraft()
		d.StopTime = nil
		d.Submitted = true
		rej := ValidateTimes(d, ctx)
		require.NotNil(t, rej)
		assert.Equal(t, types.ReasonRequiredFieldMissing, rej.Code)
	})

	t.Run("stop before start", func(t *testing.T) {
		d := validDraft()
		earlier := civil.DateTimeOf(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
		d.StopTime = &earlier
		rej := ValidateTimes(d, ctx)
		require.NotNil(t, rej)
		assert.Equal(t, types.ReasonStopBeforeStart, rej.Code)
	})

	t.Run("duration below one interval", func(t *testing.T) {
		d := validDraft()
		d.DurationMinutes = 5000 // under a week
		rej := ValidateTimes(d, ctx)
		require.NotNil(t, rej)
		assert.Equal(t, types.ReasonDurationShorterThanInterval, rej.Code)
	})

	t.Run("valid range passes", func(t *testing.T) {
		assert.Nil(t, ValidateTimes(validDraft(), ctx))
	})
}

func TestValidateRecipient(t *testing.T) {
	ctx := testContext()

	t.Run("untouched empty recipient soft-passes", func(t *testing.T) {
		d := validDraft()
		d.Recipient = ""
		assert.Nil(t, ValidateRecipient(d, ctx))
	})

	t.Run("missing after submit rejected", func(t *testing.T) {
		d := validDraft()
		d.Recipient = ""
		d.Submitted = true
		rej := ValidateRecipient(d, ctx)
		require.NotNil(t, rej)
		assert.Equal(t, types.ReasonRecipientInvalid, rej.Code)
	})

	t.Run("malformed address rejected", func(t *testing.T) {
		d := validDraft()
		d.Recipient = "0x1234"
		rej := ValidateRecipient(d, ctx)
		require.NotNil(t, rej)
		assert.Equal(t, types.ReasonRecipientInvalid, rej.Code)
	})

	t.Run("self payment rejected regardless of case", func(t *testing.T) {
		d := validDraft()
		d.Recipient = "0xF17F52151EbEF6C7334FAD080c5704D77216b732"
		d.Submitted = true
		rej := ValidateRecipient(d, ctx)
		require.NotNil(t, rej)
		assert.Equal(t, types.ReasonRecipientIsSelf, rej.Code)
	})
}

func TestEvaluateAllAndSubmittable(t *testing.T) {
	ctx := testContext()

	t.Run("valid draft is clean and submittable", func(t *testing.T) {
		d := validDraft()
		assert.True(t, EvaluateAll(d, ctx).Clean())
		assert.True(t, IsSubmittable(d, ctx))
	})

	t.Run("zero deposit blocks submission without a field error", func(t *testing.T) {
		d := validDraft()
		d.Deposit = util.MustDecimal("0")
		assert.True(t, EvaluateAll(d, ctx).Clean())
		assert.False(t, IsSubmittable(d, ctx))
	})

	t.Run("multiple rejections reported independently", func(t *testing.T) {
		d := validDraft()
		d.TokenSymbol = "SHADY"
		d.Recipient = "junk"
		d.Submitted = true
		m := EvaluateAll(d, ctx)
		assert.Len(t, m, 2)
		assert.NotNil(t, m[types.FieldToken])
		assert.NotNil(t, m[types.FieldRecipient])
	})
}

func TestNeedsApproval(t *testing.T) {
	t.Run("native token never needs approval", func(t *testing.T) {
		ctx := testContext()
		d := validDraft()
		d.TokenAddress = types.NativeToken
		assert.False(t, NeedsApproval(d, ctx))
	})

	t.Run("unknown allowance needs approval", func(t *testing.T) {
		assert.True(t, NeedsApproval(validDraft(), testContext()))
	})

	t.Run("allowance below deposit needs approval", func(t *testing.T) {
		ctx := testContext()
		ctx.SetAllowance(contractAddress, daiAddress, accountAddress, types.TokenBalance{
			Decimals: 0,
			Value:    util.MustDecimal("50"),
		})
		d := validDraft()
		d.Deposit = util.MustDecimal("200")
		assert.True(t, NeedsApproval(d, ctx))
	})

	t.Run("allowance equal to deposit still needs approval", func(t *testing.T) {
		ctx := testContext()
		ctx.SetAllowance(contractAddress, daiAddress, accountAddress, types.TokenBalance{
			Decimals: 0,
			Value:    util.MustDecimal("140"),
		})
		assert.True(t, NeedsApproval(validDraft(), ctx))
	})

	t.Run("allowance above deposit passes", func(t *testing.T) {
		ctx := testContext()
		ctx.SetAllowance(contractAddress, daiAddress, accountAddress, types.TokenBalance{
			Decimals: 0,
			Value:    util.MustDecimal("141"),
		})
		assert.False(t, NeedsApproval(validDraft(), ctx))
	})
}
