package pipeline

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"woldo/internal"
)

var testSender = internal.Sender{Name: internal.DefaultSenderName, Phone: internal.DefaultSenderPhone}

func twoPendingSession() *Session {
	rows := catalogOf(
		[2]string{"사과 A", "박스"},
		[2]string{"사과 B", "박스"},
		[2]string{"배 A", "박스"},
		[2]string{"배 B", "박스"},
	)
	orders := []internal.OrderRecord{
		{RowIndex: 0, OptionInfo: "사과: 박스"},
		{RowIndex: 1, OptionInfo: "배: 박스"},
	}
	return NewSession("s1", Propose(orders, rows))
}

func TestSessionFinalizeEndToEnd(t *testing.T) {
	orders := orderRows()
	sess := NewSession("s1", Propose(orders, catalogRows()))
	require.Equal(t, []int{2}, sess.Unresolved())

	_, err := sess.Finalize(testSender, true)
	require.True(t, errors.Is(err, internal.ErrPendingUnresolved))

	require.NoError(t, sess.Select(2, 1))
	require.Empty(t, sess.Unresolved())

	out, err := sess.Finalize(testSender, true)
	require.NoError(t, err)
	require.Len(t, out, 3)

	require.Equal(t, "5kg 박스", out[0].OptionName)
	require.Equal(t, "3kg 박스", out[1].OptionName)
	require.Equal(t, "10kg 박스", out[2].OptionName)

	first := out[0]
	require.Equal(t, "1", first.Seq)
	require.Equal(t, "1001", first.ProductNo)
	require.Equal(t, "사과 세트", first.ProductName)
	require.Equal(t, "11", first.OptionNo)
	require.Equal(t, "무료", first.ShippingTerms)
	require.Equal(t, "30000", first.SalePrice)
	require.Equal(t, "2", first.Quantity)
	require.Equal(t, internal.DefaultSenderName, first.SenderName)
	require.Equal(t, internal.DefaultSenderPhone, first.SenderPhone)
	require.Equal(t, "홍길동", first.RecipientName)
	require.Equal(t, "010-1111-2222", first.RecipientPhone)
	require.Equal(t, "서울시 강남구", first.Address)
	require.Equal(t, "문 앞", first.Message)
	require.Empty(t, first.SellerOrderNo)
	require.Empty(t, first.SellerOptionNo)

	require.Equal(t, "1", out[1].Quantity)
}

func TestSessionSelectOutOfOrder(t *testing.T) {
	sess := twoPendingSession()

	require.NoError(t, sess.Select(1, 0))
	require.Equal(t, []int{0}, sess.Unresolved())
	require.NoError(t, sess.Select(0, 1))
	require.NoError(t, sess.Select(0, 0))

	out, err := sess.Finalize(testSender, true)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, "사과 A", out[0].ProductName)
	require.Equal(t, "배 A", out[1].ProductName)
}

func TestSessionPartialFinalize(t *testing.T) {
	sess := twoPendingSession()
	require.NoError(t, sess.Select(1, 1))

	_, err := sess.Finalize(testSender, true)
	require.True(t, errors.Is(err, internal.ErrPendingUnresolved))
	require.Contains(t, errors.FlattenDetails(err), "[0]")

	out, err := sess.Finalize(testSender, false)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "배 B", out[0].ProductName)
}

func TestSessionSelectErrors(t *testing.T) {
	sess := twoPendingSession()

	cases := []struct {
		name   string
		row    int
		choice int
	}{
		{name: "row not pending", row: 7, choice: 0},
		{name: "choice past end", row: 0, choice: 2},
		{name: "negative choice", row: 0, choice: -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := sess.Select(tc.row, tc.choice)
			require.True(t, errors.Is(err, internal.ErrUnknownSelection))
		})
	}
	require.Equal(t, []int{0, 1}, sess.Unresolved())
}

func TestSessionSelectLabel(t *testing.T) {
	sess := twoPendingSession()

	require.NoError(t, sess.SelectLabel(0, "사과 B / 박스 (점수:2)"))
	choice, ok := sess.Selection(0)
	require.True(t, ok)
	require.Equal(t, 1, choice)

	err := sess.SelectLabel(0, "없는 상품 / 박스 (점수:2)")
	require.True(t, errors.Is(err, internal.ErrUnknownSelection))
}

func TestSessionFinalizeUsesBoundOrders(t *testing.T) {
	orders := orderRows()
	sess := NewSession("s1", Propose(orders, catalogRows()))
	require.NoError(t, sess.Select(2, 1))

	// later edits to the caller's slice do not reach the session
	orders[0].RecipientName = "다른 사람"
	orders[0], orders[1] = orders[1], orders[0]

	out, err := sess.Finalize(testSender, true)
	require.NoError(t, err)
	require.Len(t, out, 3)
	require.Equal(t, "홍길동", out[0].RecipientName)
	require.Equal(t, "사과 세트", out[0].ProductName)
	require.Equal(t, "김철수", out[1].RecipientName)
}

func TestSessionRestore(t *testing.T) {
	orders := orderRows()
	sess := NewSession("s1", Propose(orders, catalogRows()))
	require.NoError(t, sess.Select(2, 0))

	rows := sess.Rows()
	for _, r := range rows {
		require.Equal(t, r.OrderRow, r.Order.RowIndex)
	}
	restored := RestoreSession("s1", rows)
	require.Equal(t, sess.Resolved(), restored.Resolved())
	require.Empty(t, restored.Unresolved())

	want, err := sess.Finalize(testSender, true)
	require.NoError(t, err)
	got, err := restored.Finalize(testSender, true)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestSessionRestoreIgnoresStaleSelection(t *testing.T) {
	stale := 5
	restored := RestoreSession("s1", []internal.SessionRow{{
		OrderRow:   0,
		Kind:       internal.DecisionPending,
		Candidates: []internal.Candidate{{RowIndex: 0}, {RowIndex: 1}},
		Selected:   &stale,
	}})
	require.Equal(t, []int{0}, restored.Unresolved())
}
