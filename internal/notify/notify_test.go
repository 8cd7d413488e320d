package notify

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogNotifierWritesSortedAttributes(test *testing.T) {
	test.Parallel()
	core, observed := observer.New(zap.InfoLevel)
	notifier := NewLogNotifier(zap.New(core))

	err := notifier.Notify(context.Background(), Event{
		Kind:       KindFine,
		Subject:    "speeding",
		Amount:     decimal.NewFromInt(40),
		Attributes: map[string]string{"plate": "10-AA-100", "customer": "Aysel Mammadova"},
	})
	require.NoError(test, err)

	entries := observed.All()
	require.Len(test, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(test, KindFine, fields["kind"])
	require.Equal(test, "40", fields["amount"])
	require.Equal(test, "10-AA-100", fields["plate"])
	require.Equal(test, "Aysel Mammadova", fields["customer"])
}
