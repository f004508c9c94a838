package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_Register(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		spec    string
		wantErr bool
	}{
		{name: "six field spec", spec: "0 5 8 * * *"},
		{name: "descriptor", spec: "@every 1h"},
		{name: "five field spec is rejected", spec: "5 8 * * *", wantErr: true},
		{name: "garbage", spec: "not a spec", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := NewScheduler(context.Background())
			err := s.Register("purge", tt.spec, func(ctx context.Context) error { return nil })
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, 0, s.Len())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, s.Len())
		})
	}
}

func TestScheduler_WrapPassesContext(t *testing.T) {
	t.Parallel()

	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")
	s := NewScheduler(ctx)

	var got any
	calls := 0
	s.wrap("probe", func(ctx context.Context) error {
		calls++
		got = ctx.Value(key{})
		return nil
	})()

	assert.Equal(t, 1, calls)
	assert.Equal(t, "v", got)
}

func TestScheduler_WrapToleratesError(t *testing.T) {
	t.Parallel()

	s := NewScheduler(context.Background())
	calls := 0
	run := s.wrap("failing", func(ctx context.Context) error {
		calls++
		return errors.New("boom")
	})

	assert.NotPanics(t, run)
	assert.NotPanics(t, run)
	assert.Equal(t, 2, calls)
}

func TestScheduler_StartStop(t *testing.T) {
	t.Parallel()

	s := NewScheduler(context.Background())
	require.NoError(t, s.Register("noop", "@every 1h", func(ctx context.Context) error { return nil }))

	s.Start()
	s.Stop()
}
