package verify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/dyadt/internal/model"
)

func TestRegistryRegisterAndResolve(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterFunc("db_migrated", func(params map[string]string) (model.Finding, error) {
		return model.Confirmed("version %s", params["version"]), nil
	}))

	checker, err := r.Resolve("db_migrated")
	require.NoError(t, err)

	f, err := checker.Check(map[string]string{"version": "42"})
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeConfirmed, f.Outcome)
	assert.Equal(t, "version 42", f.Detail)
}

func TestRegistryLastWriteWins(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterFunc("x", func(map[string]string) (model.Finding, error) {
		return model.Refuted("first"), nil
	}))
	require.NoError(t, r.RegisterFunc("x", func(map[string]string) (model.Finding, error) {
		return model.Confirmed("second"), nil
	}))

	assert.Equal(t, 1, r.Len())

	checker, err := r.Resolve("x")
	require.NoError(t, err)
	f, err := checker.Check(nil)
	require.NoError(t, err)
	assert.Equal(t, "second", f.Detail)
}

func TestRegistryResolveUnknown(t *testing.T) {
	_, err := NewRegistry().Resolve("missing")
	assert.True(t, errors.Is(err, ErrCheckerNotFound))
}

func TestRegistryRejectsInvalidRegistrations(t *testing.T) {
	r := NewRegistry()
	ok := func(map[string]string) (model.Finding, error) { return model.Confirmed(""), nil }

	assert.Error(t, r.RegisterFunc("", ok))
	assert.Error(t, r.Register("nil-checker", nil))
	assert.Error(t, r.RegisterFunc("nil-func", nil))
	assert.Zero(t, r.Len())
}

func TestRegistryNamesSorted(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, r.RegisterFunc(name, func(map[string]string) (model.Finding, error) {
			return model.Confirmed(""), nil
		}))
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, r.Names())
}
