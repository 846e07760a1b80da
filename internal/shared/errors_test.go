package shared

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestTypedErrorsMatchSentinels(t *testing.T) {
	require.ErrorIs(t, Invalid("lines", "required"), ErrValidation)
	require.EqualError(t, Invalid("lines", "required"), "validation: lines: required")

	id := uuid.New()
	err := NotFound("product", id)
	require.ErrorIs(t, err, ErrNotFound)
	require.EqualError(t, err, "product "+id.String()+" not found")
	require.EqualError(t, NotFound("invoice", nil), "invoice not found")

	cause := errors.New("boom")
	delivery := &NotificationDeliveryError{Type: "PAYMENT_REVIEW", Err: cause}
	require.ErrorIs(t, delivery, ErrNotificationDelivery)
	require.ErrorIs(t, delivery, cause)
}

func TestPersistenceKeepsClassifiedErrors(t *testing.T) {
	require.NoError(t, Persistence("insert invoice", nil))

	notFound := NotFound("supplier", uuid.New())
	require.Same(t, notFound, Persistence("find supplier", notFound))

	err := Persistence("insert invoice", context.DeadlineExceeded)
	require.ErrorIs(t, err, ErrPersistence)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, "insert invoice", pe.Op)
}
