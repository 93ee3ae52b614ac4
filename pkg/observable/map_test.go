package observable_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tether/pkg/domain"
	"github.com/aretw0/tether/pkg/observable"
)

func TestSetAndGet_Nested(t *testing.T) {
	m := observable.New()

	require.NoError(t, m.Set("user.name", "ada"))
	require.NoError(t, m.Set("user.address.city", "london"))

	v, err := m.Get("user.name")
	require.NoError(t, err)
	assert.Equal(t, "ada", v)

	v, err = m.Get("user.address.city")
	require.NoError(t, err)
	assert.Equal(t, "london", v)
}

func TestGet_UnsetLeafIsValidNil(t *testing.T) {
	m := observable.New()

	v, err := m.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, v)

	// Missing intermediates are unset, not invalid.
	v, err = m.Get("deep.missing.leaf")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestInvalidPaths(t *testing.T) {
	m := observable.New()
	require.NoError(t, m.Set("scalar", 42))

	cases := map[string]string{
		"empty":      "",
		"dotted":     "a..b",
		"trailing":   "a.",
		"obstructed": "scalar.inner",
	}
	for name, path := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := m.Get(path)
			assert.ErrorIs(t, err, domain.ErrInvalidTarget)
		})
	}

	err := m.Set("scalar.inner", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidTarget)
}

func TestOnChange_NotifiesExactPath(t *testing.T) {
	m := observable.New()

	var got []any
	cancel, err := m.OnChange("user.name", func(v any) {
		got = append(got, v)
	})
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, m.Set("user.name", "ada"))
	require.NoError(t, m.Set("user.email", "ada@example.com")) // different path
	require.NoError(t, m.Set("user.name", "grace"))

	assert.Equal(t, []any{"ada", "grace"}, got)
}

func TestOnChange_CancelStopsNotifications(t *testing.T) {
	m := observable.New()

	calls := 0
	cancel, err := m.OnChange("v", func(any) { calls++ })
	require.NoError(t, err)

	require.NoError(t, m.Set("v", 1))
	cancel()
	cancel() // idempotent
	require.NoError(t, m.Set("v", 2))

	assert.Equal(t, 1, calls)
}

func TestOnChange_InvalidPathRejected(t *testing.T) {
	m := observable.New()
	require.NoError(t, m.Set("a", 1))

	_, err := m.OnChange("a.b", func(any) {})
	assert.ErrorIs(t, err, domain.ErrInvalidTarget)
}

func TestOnChange_CallbackMayReenter(t *testing.T) {
	m := observable.New()

	var seen any
	cancel, err := m.OnChange("v", func(any) {
		// Watchers run outside the lock, so reading back is fine.
		seen, _ = m.Get("v")
	})
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, m.Set("v", 9))
	assert.Equal(t, 9, seen)
}

func TestSnapshot_Copies(t *testing.T) {
	m := observable.NewFrom(map[string]any{"a": 1})

	snap := m.Snapshot()
	snap["a"] = 2
	snap["b"] = 3

	v, err := m.Get("a")
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = m.Get("b")
	require.NoError(t, err)
	assert.Nil(t, v)
}
