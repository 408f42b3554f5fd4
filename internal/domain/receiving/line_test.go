package receiving

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/id"
	"stockroom/internal/core/types"
)

var testToday = types.MustDate("2025-06-15")

func validInput() ReceivingLineInput {
	return ReceivingLineInput{
		ItemRef:           "SKU-001",
		BuyingPrice:       types.MustMoney("100"),
		Units:             10,
		ItemsPerUnit:      12,
		FreeUnits:         5,
		RejectedUnits:     3,
		BilledUnpaidUnits: 20,
		SellingPrice:      types.MustMoney("150"),
		BatchNumber:       "B-2025-06",
		ManufactureDate:   types.MustDate("2025-05-01"),
		ExpiryDate:        types.MustDate("2027-05-01"),
		ReceivedDate:      types.MustDate("2025-06-15"),
	}
}

func TestRecompute_ValidLine(t *testing.T) {
	fig := Recompute(validInput(), testToday, DefaultPolicy())

	assert.False(t, fig.Validation.Blocking())
	assert.Empty(t, fig.Validation.Warnings)
	assert.Nil(t, fig.Wholesale)
	assert.Nil(t, fig.StockSufficient)
	assert.Equal(t, int64(102), fig.Quantities.PaidQuantity)
	assert.Equal(t, "12000", fig.Cost.TotalCost.String())
}

func TestRecompute_FieldErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *ReceivingLineInput)
		field  string
	}{
		{"missing item", func(in *ReceivingLineInput) { in.ItemRef = "" }, FieldItemRef},
		{"zero buying price", func(in *ReceivingLineInput) { in.BuyingPrice = types.Zero() }, FieldBuyingPrice},
		{"negative selling price", func(in *ReceivingLineInput) { in.SellingPrice = types.MustMoney("-1") }, FieldSellingPrice},
		{"negative units", func(in *ReceivingLineInput) { in.Units = -1 }, FieldUnits},
		{"negative free units", func(in *ReceivingLineInput) { in.FreeUnits = -2 }, FieldFreeUnits},
		{"blank batch", func(in *ReceivingLineInput) { in.BatchNumber = "   " }, FieldBatchNumber},
		{"missing manufacture date", func(in *ReceivingLineInput) { in.ManufactureDate = types.Date{} }, FieldManufactureDate},
		{"future manufacture date", func(in *ReceivingLineInput) { in.ManufactureDate = types.MustDate("2025-06-16") }, FieldManufactureDate},
		{"expiry before manufacture", func(in *ReceivingLineInput) { in.ExpiryDate = types.MustDate("2025-04-01") }, FieldExpiryDate},
		{"received after expiry", func(in *ReceivingLineInput) {
			in.ExpiryDate = types.MustDate("2025-06-01")
		}, FieldReceivedDate},
		{"wholesale without min qty", func(in *ReceivingLineInput) {
			in.Wholesale = Wholesale{Enabled: true, TotalPrice: types.MustMoney("1000")}
		}, FieldWholesaleMinQty},
		{"wholesale without price", func(in *ReceivingLineInput) {
			in.Wholesale = Wholesale{Enabled: true, MinQty: 10}
		}, FieldWholesaleTotalPrice},
		{"units times pack size overflows", func(in *ReceivingLineInput) {
			in.Units = 1<<32 + 1
			in.ItemsPerUnit = 1 << 32
		}, FieldUnits},
		{"pack size side of overflow", func(in *ReceivingLineInput) {
			in.Units = 1<<32 + 1
			in.ItemsPerUnit = 1 << 32
		}, FieldItemsPerUnit},
		{"free units push total past range", func(in *ReceivingLineInput) {
			in.Units = 1
			in.ItemsPerUnit = math.MaxInt64
			in.FreeUnits = 1
		}, FieldFreeUnits},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			fig := Recompute(in, testToday, DefaultPolicy())
			assert.True(t, fig.Validation.Blocking())
			assert.True(t, fig.Validation.HasField(tt.field), "fields: %v", fig.Validation.FieldNames())
		})
	}
}

func TestRecompute_BusinessErrors(t *testing.T) {
	t.Run("rejected exceeds received", func(t *testing.T) {
		in := validInput()
		in.RejectedUnits = 126

		fig := Recompute(in, testToday, DefaultPolicy())
		assert.True(t, fig.Validation.HasIssue(IssueRejectedExceedsReceived))
		assert.False(t, fig.Validation.HasIssue(IssueBilledExceedsAvailable))
		assert.Equal(t, int64(0), fig.Quantities.PaidQuantity)
	})

	t.Run("billed exceeds available", func(t *testing.T) {
		in := validInput()
		in.BilledUnpaidUnits = 123

		fig := Recompute(in, testToday, DefaultPolicy())
		assert.True(t, fig.Validation.HasIssue(IssueBilledExceedsAvailable))
		assert.Equal(t, int64(0), fig.Quantities.PaidQuantity)
		assert.Empty(t, fig.Validation.Fields)
	})

	t.Run("nothing to receive", func(t *testing.T) {
		in := validInput()
		in.Units, in.FreeUnits, in.RejectedUnits, in.BilledUnpaidUnits = 0, 0, 0, 0

		fig := Recompute(in, testToday, DefaultPolicy())
		assert.True(t, fig.Validation.HasIssue(IssueNothingToReceive))
	})

	t.Run("billed only is receivable", func(t *testing.T) {
		in := validInput()
		in.Units, in.ItemsPerUnit, in.FreeUnits, in.RejectedUnits, in.BilledUnpaidUnits = 1, 10, 0, 0, 10

		fig := Recompute(in, testToday, DefaultPolicy())
		assert.Equal(t, int64(0), fig.Quantities.PaidQuantity)
		assert.False(t, fig.Validation.Blocking())
	})
}

func TestRecompute_WholesaleWarnings(t *testing.T) {
	t.Run("premium", func(t *testing.T) {
		in := validInput()
		in.Wholesale = Wholesale{Enabled: true, MinQty: 10, TotalPrice: types.MustMoney("2000")}

		fig := Recompute(in, testToday, DefaultPolicy())
		require.NotNil(t, fig.Wholesale)
		assert.True(t, fig.Wholesale.IsPremium)
		assert.True(t, fig.Validation.HasIssue(IssueWholesalePremium))
		assert.False(t, fig.Validation.Blocking())
	})

	t.Run("unpriced", func(t *testing.T) {
		in := validInput()
		in.SellingPrice = types.Zero()
		in.Wholesale = Wholesale{Enabled: true, MinQty: 10, TotalPrice: types.MustMoney("1000")}

		fig := Recompute(in, testToday, DefaultPolicy())
		assert.Nil(t, fig.Wholesale)
		assert.True(t, fig.Validation.HasIssue(IssueWholesaleUnpriced))
	})
}

// paidQuantity=15 with minQty=20: sufficiency fails but the line still assembles.
func scenarioDInput() ReceivingLineInput {
	in := validInput()
	in.Units, in.ItemsPerUnit, in.FreeUnits, in.RejectedUnits, in.BilledUnpaidUnits = 2, 10, 0, 5, 0
	in.SellingPrice = types.MustMoney("1000")
	in.Wholesale = Wholesale{Enabled: true, MinQty: 20, TotalPrice: types.MustMoney("15000")}
	return in
}

func TestAssemble_ScenarioD(t *testing.T) {
	in := scenarioDInput()
	fig := Recompute(in, testToday, DefaultPolicy())

	require.Equal(t, int64(15), fig.Quantities.PaidQuantity)
	require.NotNil(t, fig.StockSufficient)
	assert.False(t, *fig.StockSufficient)
	assert.True(t, fig.Validation.HasIssue(IssueWholesaleMinimumNotMet))

	line, err := Assemble(in, fig, ItemSnapshot{ItemRef: in.ItemRef}, id.NewSequence("L", 0))
	require.NoError(t, err)
	assert.Equal(t, "L-0001", line.LineID)
	require.NotNil(t, line.StockSufficient)
	assert.False(t, *line.StockSufficient)
	assert.NotEmpty(t, line.Warnings)
}

func TestAssemble_StrictWholesaleMinimum(t *testing.T) {
	in := scenarioDInput()
	fig := Recompute(in, testToday, Policy{StrictWholesaleMinimum: true})

	assert.True(t, fig.Validation.HasIssue(IssueWholesaleMinimumExceeded))

	_, err := Assemble(in, fig, ItemSnapshot{}, nil)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeLineRejected))
}

func TestAssemble_ScenarioC(t *testing.T) {
	in := validInput()
	in.ManufactureDate = types.MustDate("2025-06-10")
	in.ExpiryDate = types.MustDate("2025-06-01")

	fig := Recompute(in, testToday, DefaultPolicy())
	assert.False(t, fig.Dates.ExpiryDateValid)

	_, err := Assemble(in, fig, ItemSnapshot{}, nil)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeLineRejected, appErr.Code)

	fields, ok := appErr.Details["fields"].(map[string]string)
	require.True(t, ok)
	assert.Contains(t, fields, FieldExpiryDate)
}

func TestAssemble_OverflowingCountsRejected(t *testing.T) {
	in := validInput()
	in.Units = 1<<32 + 1
	in.ItemsPerUnit = 1 << 32

	fig := Recompute(in, testToday, DefaultPolicy())
	assert.Equal(t, int64(math.MaxInt64), fig.Quantities.TotalItemsReceived)
	assert.Equal(t, int64(math.MaxInt64), fig.Cost.PurchasedUnits)

	_, err := Assemble(in, fig, ItemSnapshot{}, id.UUIDGenerator{})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeLineRejected))
}

func TestAssemble_UniqueIDs(t *testing.T) {
	in := validInput()
	fig := Recompute(in, testToday, DefaultPolicy())

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		line, err := Assemble(in, fig, ItemSnapshot{}, id.UUIDGenerator{})
		require.NoError(t, err)
		require.False(t, seen[line.LineID], "duplicate id %s", line.LineID)
		seen[line.LineID] = true
	}
}

func TestReceivingLine_CloneIsDeep(t *testing.T) {
	in := scenarioDInput()
	fig := Recompute(in, testToday, DefaultPolicy())

	line, err := Assemble(in, fig, ItemSnapshot{}, nil)
	require.NoError(t, err)
	require.NotNil(t, line.Wholesale)

	cp := line.Clone()
	cp.Wholesale.IsPremium = true
	*cp.StockSufficient = true
	cp.Warnings[0].Code = "changed"

	assert.False(t, line.Wholesale.IsPremium)
	assert.False(t, *line.StockSufficient)
	assert.Equal(t, IssueWholesaleMinimumNotMet, line.Warnings[0].Code)

	// The assembled line shares nothing with the figures it was built from.
	fig.Wholesale.IsPremium = true
	assert.False(t, line.Wholesale.IsPremium)
}
