package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/pipeline-dashboard/internal/entity"
	"github.com/xavierca1/pipeline-dashboard/internal/logger"
)

func TestTransactionRollsBackInReverse(t *testing.T) {
	var undone []string
	boom := errors.New("boom")

	tx := NewTransaction(logger.Nop())
	tx.AddOperation("first", func(context.Context) error { return nil })
	tx.AddCompensation("undo first", func(context.Context) error {
		undone = append(undone, "first")
		return nil
	})
	tx.AddOperation("second", func(context.Context) error { return nil })
	tx.AddOperation("third", func(context.Context) error { return nil })
	tx.AddCompensation("undo third", func(context.Context) error {
		undone = append(undone, "third")
		return errors.New("still logged, rollback continues")
	})
	tx.AddOperation("fourth", func(context.Context) error { return boom })
	tx.AddCompensation("undo fourth", func(context.Context) error {
		undone = append(undone, "fourth")
		return nil
	})

	err := tx.Execute(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "operation 'fourth' failed")
	assert.Equal(t, []string{"third", "first"}, undone)
}

func TestTransactionCompensatesWithCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var compensated bool

	tx := NewTransaction(logger.Nop())
	tx.AddOperation("write", func(context.Context) error { return nil })
	tx.AddCompensation("delete", func(c context.Context) error {
		compensated = c.Err() == nil
		return nil
	})
	tx.AddOperation("fail", func(context.Context) error {
		cancel()
		return context.Canceled
	})

	require.Error(t, tx.Execute(ctx))
	assert.True(t, compensated)
}

func TestTransactionSuccess(t *testing.T) {
	calls := 0
	tx := NewTransaction(logger.Nop())
	tx.AddCompensation("ignored without operation", func(context.Context) error { return nil })
	tx.AddOperation("a", func(context.Context) error { calls++; return nil })
	tx.AddOperation("b", func(context.Context) error { calls++; return nil })

	require.NoError(t, tx.Execute(context.Background()))
	assert.Equal(t, 2, calls)
}

func TestValidateStructMessages(t *testing.T) {
	err := ValidateStruct(RegisterInput{Email: "kein-mail", Password: "kurz"})

	var verrs entity.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.True(t, verrs.Has("email"))
	assert.True(t, verrs.Has("password"))
	assert.True(t, verrs.Has("firstName"))
	assert.Contains(t, verrs.Error(), "email ist keine gültige E-Mail-Adresse")
	assert.Contains(t, verrs.Error(), "password muss mindestens 8 Zeichen lang sein")
	assert.Contains(t, verrs.Error(), "firstName ist erforderlich")

	assert.NoError(t, ValidateStruct(LoginInput{Email: "a@b.de", Password: "x"}))
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"0171 1234567", "+491711234567"},
		{"+43 660 1234567", "+436601234567"},
		{"  ", ""},
		{"Durchwahl 12", "Durchwahl 12"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePhone(tt.in), tt.in)
	}
}
