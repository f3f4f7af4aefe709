package state

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreNotifiesSubscribers(t *testing.T) {
	st := NewStore(Reducer{})
	var kinds []string
	unsubscribe := st.Subscribe(func(c Change) {
		kinds = append(kinds, c.Transition.Kind())
	})

	_, err := st.Dispatch(InitHistory{Snapshot: snap(0)})
	require.NoError(t, err)
	_, err = st.Dispatch(UpdateSetting{Key: KeyRotationOrder, Value: 4})
	require.NoError(t, err)

	_, err = st.Dispatch(Undo{})
	assert.ErrorIs(t, err, ErrNoTransition)

	unsubscribe()
	_, err = st.Dispatch(UpdateSetting{Key: KeyShowGuides, Value: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"init-history", "update-setting"}, kinds)
	assert.Equal(t, 4, st.State().Settings.RotationOrder)
	assert.True(t, st.State().Settings.ShowGuides)
}

func TestStoreRejectionKeepsState(t *testing.T) {
	st := NewStore(Reducer{DefaultColor: "#abcdef"})
	before := st.State()
	assert.Equal(t, "#abcdef", before.Settings.Color)

	got, err := st.Dispatch(UpdateSetting{Key: KeyRotationOrder, Value: "many"})
	assert.ErrorIs(t, err, ErrInvalidSetting)
	assert.Equal(t, before, got)
	assert.Equal(t, before, st.State())
}

func TestRevisionsIncrease(t *testing.T) {
	st := NewStore(Reducer{})
	var revs []uint64
	st.Subscribe(func(c Change) { revs = append(revs, c.Revision) })
	for i := 0; i < 3; i++ {
		_, err := st.Dispatch(LoadStart{})
		require.NoError(t, err)
	}
	require.Len(t, revs, 3)
	assert.Less(t, revs[0], revs[1])
	assert.Less(t, revs[1], revs[2])
	assert.NotEmpty(t, SessionID())
	assert.NotEqual(t, NewActionID(), NewActionID())
}

func TestRevisionOrderMatchesState(t *testing.T) {
	st := NewStore(Reducer{})
	var (
		mu     sync.Mutex
		latest Change
		seen   = map[uint64]bool{}
	)
	st.Subscribe(func(c Change) {
		mu.Lock()
		defer mu.Unlock()
		seen[c.Revision] = true
		if c.Revision > latest.Revision {
			latest = c
		}
	})

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := st.Dispatch(UpdateSetting{Key: KeyColor, Value: fmt.Sprintf("#0000%02x", i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Len(t, seen, 64)
	assert.Equal(t, uint64(64), latest.Revision)
	assert.Equal(t, st.State().Settings.Color, latest.State.Settings.Color)
}
