package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistrationFlow(t *testing.T) {
	ctx := context.Background()

	// startRegistration runs the address step and returns the pending ticket.
	start := func(t *testing.T, e *env, address string) string {
		t.Helper()
		err := e.registration.StartRegistration(ctx, address)
		var mfaErr *MFARequiredError
		require.ErrorAs(t, err, &mfaErr)
		return mfaErr.PendingTicket
	}

	t.Run("end to end: address to durable account", func(t *testing.T) {
		e := newEnv(t)

		ticket := start(t, e, "new@example.com")
		code := e.mailer.lastCode("new@example.com")
		require.NotEmpty(t, code)

		accepted, err := e.login.SubmitMFA(ctx, ticket, code)
		require.NoError(t, err)

		view, err := e.registration.CreateAccount(ctx, accepted, "New Person", "hunter2-but-better")
		require.NoError(t, err)
		require.Equal(t, "new@example.com", view.Address)
		require.Equal(t, "New Person", view.Name)
		require.False(t, view.ID.IsZero())

		// The new credentials work for login.
		e.startLogin(t, "new@example.com", "hunter2-but-better")
	})

	t.Run("taken address is rejected up front", func(t *testing.T) {
		e := newEnv(t)
		e.seedAccount(t, "person@example.com", "correct-horse")

		err := e.registration.StartRegistration(ctx, "person@example.com")
		require.ErrorIs(t, err, ErrAddressTaken)
	})

	t.Run("accepted ticket is consumed by account creation", func(t *testing.T) {
		e := newEnv(t)

		ticket := start(t, e, "new@example.com")
		accepted, err := e.login.SubmitMFA(ctx, ticket, e.mailer.lastCode("new@example.com"))
		require.NoError(t, err)

		_, err = e.registration.CreateAccount(ctx, accepted, "New Person", "a-strong-password")
		require.NoError(t, err)

		_, err = e.registration.CreateAccount(ctx, accepted, "New Person", "a-strong-password")
		require.ErrorIs(t, err, ErrAcceptedTicketNotFound)
	})

	t.Run("accepted ticket without a registration record", func(t *testing.T) {
		e := newEnv(t)

		// A login-path accepted ticket has no registration behind it.
		accepted, _ := e.acceptedTicket(t)

		_, err := e.registration.CreateAccount(ctx, accepted, "Name", "password-123")
		require.ErrorIs(t, err, ErrRegistrationNotFound)
	})

	t.Run("missing fields", func(t *testing.T) {
		e := newEnv(t)

		require.ErrorIs(t, e.registration.StartRegistration(ctx, "  "), ErrInvalidRequest)

		_, err := e.registration.CreateAccount(ctx, "ticket", "", "pw")
		require.ErrorIs(t, err, ErrInvalidRequest)
		_, err = e.registration.CreateAccount(ctx, "", "Name", "pw")
		require.ErrorIs(t, err, ErrInvalidRequest)
	})
}
