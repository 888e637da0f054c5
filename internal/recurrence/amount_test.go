package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akazakov/cashflow-service/internal/models"
)

func fixedTemplate(model models.AmountModel, base float64) *models.ObligationTemplate {
	return &models.ObligationTemplate{
		ID:          1,
		Name:        "rent",
		Kind:        models.KindExpense,
		AmountModel: model,
		BaseAmount:  base,
		Currency:    "EUR",
	}
}

func TestEvaluateFixedIsIdempotent(t *testing.T) {
	eval := NewEvaluator(0)
	tpl := fixedTemplate(models.AmountModelFixed, -1200)
	for i := 0; i < 5; i++ {
		amount, err := eval.Evaluate(tpl, date(2025, time.March, 1), i)
		require.NoError(t, err)
		assert.Equal(t, -1200.0, amount)
	}
}

func TestEvaluateVariableReturnsMidpoint(t *testing.T) {
	eval := NewEvaluator(0)
	tpl := fixedTemplate(models.AmountModelVariable, -100)
	min, max := -150.0, -50.0
	tpl.MinAmount = &min
	tpl.MaxAmount = &max

	amount, err := eval.Evaluate(tpl, date(2025, time.March, 1), 0)
	require.NoError(t, err)
	assert.Equal(t, -100.0, amount)
}

func TestEvaluateVariableFallsBackToBase(t *testing.T) {
	eval := NewEvaluator(0)
	tpl := fixedTemplate(models.AmountModelVariable, -80)

	amount, err := eval.Evaluate(tpl, date(2025, time.March, 1), 0)
	require.NoError(t, err)
	assert.Equal(t, -80.0, amount)
}

func TestEvaluateProgressiveGrowsWithIndex(t *testing.T) {
	eval := NewEvaluator(0.02)
	tpl := fixedTemplate(models.AmountModelProgressive, 1000)
	tpl.Kind = models.KindIncome

	first, err := eval.Evaluate(tpl, date(2025, time.March, 1), 0)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, first, "index zero pays the base amount")

	prev := first
	for i := 1; i <= 12; i++ {
		amount, err := eval.Evaluate(tpl, date(2025, time.March, 1), i)
		require.NoError(t, err)
		assert.Greater(t, amount, prev, "progressive amounts must strictly increase with index")
		prev = amount
	}

	year, err := eval.Evaluate(tpl, date(2025, time.March, 1), 12)
	require.NoError(t, err)
	assert.InDelta(t, 1268.24, year, 0.01)
}

func TestEvaluateSeasonalAppliesMonthlyFactor(t *testing.T) {
	eval := NewEvaluator(0)
	tpl := fixedTemplate(models.AmountModelSeasonal, 100)
	tpl.Kind = models.KindIncome

	winter, err := eval.Evaluate(tpl, date(2025, time.January, 15), 0)
	require.NoError(t, err)
	assert.Greater(t, winter, 100.0, "winter factor runs above the base")

	summer, err := eval.Evaluate(tpl, date(2025, time.July, 15), 0)
	require.NoError(t, err)
	assert.Less(t, summer, 100.0, "summer factor runs below the base")
}

func TestEvaluateSeasonalPreservesSign(t *testing.T) {
	eval := NewEvaluator(0)
	tpl := fixedTemplate(models.AmountModelSeasonal, -100)

	amount, err := eval.Evaluate(tpl, date(2025, time.January, 15), 0)
	require.NoError(t, err)
	assert.Less(t, amount, -100.0, "a winter-heavy expense gets more negative")
}

func TestEvaluateFormula(t *testing.T) {
	eval := NewEvaluator(0)
	tpl := fixedTemplate(models.AmountModelFormula, 100)
	tpl.Kind = models.KindIncome
	tpl.Formula = "base * 2 + month"

	amount, err := eval.Evaluate(tpl, date(2025, time.March, 1), 0)
	require.NoError(t, err)
	assert.Equal(t, 203.0, amount)
}

func TestEvaluateFormulaRejectionReturnsBase(t *testing.T) {
	eval := NewEvaluator(0)
	tpl := fixedTemplate(models.AmountModelFormula, 100)
	tpl.Kind = models.KindIncome
	tpl.Formula = "base ** exp(2)"

	amount, err := eval.Evaluate(tpl, date(2025, time.March, 1), 0)
	assert.Error(t, err)
	assert.Equal(t, 100.0, amount, "rejected formulas degrade to the base amount")
}

func TestEvaluateUnknownModel(t *testing.T) {
	eval := NewEvaluator(0)
	tpl := fixedTemplate(models.AmountModel("lunar"), 100)

	amount, err := eval.Evaluate(tpl, date(2025, time.March, 1), 0)
	assert.Error(t, err)
	assert.Equal(t, 100.0, amount)
}
