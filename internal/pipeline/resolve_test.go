package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"woldo/internal"
)

func TestResolve(t *testing.T) {
	a := internal.Candidate{Score: 3, RowIndex: 0, Row: internal.CatalogRow{RowIndex: 0, ProductName: "사과"}}
	b := internal.Candidate{Score: 3, RowIndex: 1, Row: internal.CatalogRow{RowIndex: 1, ProductName: "사과"}}

	t.Run("none", func(t *testing.T) {
		d := Resolve(nil)
		require.Equal(t, internal.DecisionNone, d.Kind)
		require.Nil(t, d.Row)
		require.Empty(t, d.Candidates)
	})

	t.Run("auto", func(t *testing.T) {
		d := Resolve([]internal.Candidate{a})
		require.Equal(t, internal.DecisionAuto, d.Kind)
		require.NotNil(t, d.Row)
		require.Equal(t, a.Row, *d.Row)
	})

	t.Run("pending keeps ranking", func(t *testing.T) {
		d := Resolve([]internal.Candidate{a, b})
		require.Equal(t, internal.DecisionPending, d.Kind)
		require.Nil(t, d.Row)
		require.Equal(t, []internal.Candidate{a, b}, d.Candidates)
	})
}

func TestPropose(t *testing.T) {
	p := Propose(orderRows(), catalogRows())

	require.Equal(t, 4, p.Orders)
	require.Equal(t, []int{0, 1}, p.AutoRows)
	require.Equal(t, "5kg 박스", p.Auto[0].OptionName)
	require.Equal(t, "3kg 박스", p.Auto[1].OptionName)
	require.Len(t, p.Pending, 1)
	require.Equal(t, 2, p.Pending[0].OrderRow)
	require.Equal(t, "사과: 박스", p.Pending[0].OptionInfo)
	require.Equal(t, []string{"사과 세트 / 5kg 박스 (점수:2)", "사과 세트 / 10kg 박스 (점수:2)"}, p.Pending[0].Labels())
	require.Equal(t, []int{3}, p.Unmatched)
}

func TestProposeEmptyInputs(t *testing.T) {
	p := Propose(nil, catalogRows())
	require.Zero(t, p.Orders)
	require.Empty(t, p.AutoRows)
	require.Empty(t, p.Pending)

	p = Propose(orderRows(), nil)
	require.Empty(t, p.AutoRows)
	require.Equal(t, []int{0, 1, 2, 3}, p.Unmatched)
}
