package spawn

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_SetAndGet(t *testing.T) {
	r := NewRegistry()

	r.Set(&Entry{Marker: "m1"})

	e, ok := r.Get("m1")
	require.True(t, ok, "expected to find m1")
	assert.Equal(t, "m1", e.Marker)

	_, ok = r.Get("m2")
	assert.False(t, ok)
}

func TestRegistry_Delete(t *testing.T) {
	r := NewRegistry()
	r.Set(&Entry{Marker: "m1"})
	r.Set(&Entry{Marker: "m2"})

	r.Delete("m1")
	r.Delete("missing")

	_, ok := r.Get("m1")
	assert.False(t, ok)
	assert.Equal(t, []string{"m2"}, r.Names())
}

func TestRegistry_NamesSortedAndReset(t *testing.T) {
	r := NewRegistry()
	r.Set(&Entry{Marker: "b"})
	r.Set(&Entry{Marker: "a"})

	assert.Equal(t, []string{"a", "b"}, r.Names())
	assert.Equal(t, 2, r.Len())

	r.Reset()
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Names())
}

func TestRegistry_ConcurrentReads(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Set(&Entry{Marker: "m"})
		}()
		go func() {
			defer wg.Done()
			_ = r.Names()
			_, _ = r.Get("m")
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, r.Len())
}

func TestParseCleanupPolicy(t *testing.T) {
	tests := []struct {
		in   string
		want CleanupPolicy
	}{
		{"", Retain},
		{"retain", Retain},
		{"Deactivate", Deactivate},
		{" destroy ", Destroy},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCleanupPolicy(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			roundTrip, err := ParseCleanupPolicy(got.String())
			require.NoError(t, err)
			assert.Equal(t, got, roundTrip)
		})
	}

	_, err := ParseCleanupPolicy("explode")
	assert.Error(t, err)
}
