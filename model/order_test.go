package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateOrderTransition(t *testing.T) {
	require.NoError(t, ValidateOrderTransition(OrderPending, OrderCompleted))
	require.NoError(t, ValidateOrderTransition(OrderCompleted, OrderCancelled))
	require.NoError(t, ValidateOrderTransition(OrderCancelled, OrderPending))
}

func TestValidateOrderTransition_SameStatus(t *testing.T) {
	err := ValidateOrderTransition(OrderPending, OrderPending)
	require.ErrorIs(t, err, ErrSameStatus)
}

func TestValidateOrderTransition_UnknownStatus(t *testing.T) {
	require.Error(t, ValidateOrderTransition("shipped", OrderPending))
	require.Error(t, ValidateOrderTransition(OrderPending, "shipped"))
}

func TestLedgerEffect(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		want     Effect
	}{
		{OrderPending, OrderCompleted, EffectNone},
		{OrderCompleted, OrderProcessing, EffectNone},
		{OrderPending, OrderCancelled, EffectCredit},
		{OrderCompleted, OrderCancelled, EffectCredit},
		{OrderCancelled, OrderPending, EffectDebit},
		{OrderCancelled, OrderCompleted, EffectDebit},
	}
	for _, c := range cases {
		require.Equal(t, c.want, LedgerEffect(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func TestValidatePackageTransition(t *testing.T) {
	require.NoError(t, ValidatePackageTransition(PackagePending, PackagePaid))
	require.NoError(t, ValidatePackageTransition(PackagePending, PackageCancelled))
	require.NoError(t, ValidatePackageTransition(PackagePaid, PackageCompleted))
	require.NoError(t, ValidatePackageTransition(PackagePaid, PackageCancelled))
}

func TestValidatePackageTransition_Rejected(t *testing.T) {
	// completed and cancelled are terminal, and there is no skipping paid.
	require.Error(t, ValidatePackageTransition(PackageCompleted, PackageCancelled))
	require.Error(t, ValidatePackageTransition(PackageCancelled, PackagePending))
	require.Error(t, ValidatePackageTransition(PackagePending, PackageCompleted))
	require.ErrorIs(t, ValidatePackageTransition(PackagePaid, PackagePaid), ErrSameStatus)
}
