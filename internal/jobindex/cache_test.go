package jobindex

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type countingDiscoverer struct {
	calls   atomic.Int32
	entries []Entry
	err     error
}

func (d *countingDiscoverer) Discover(context.Context) ([]Entry, error) {
	d.calls.Add(1)
	return d.entries, d.err
}

func newTestCache(d Discoverer) (*Cache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	return New(d, WithClock(clock.Now), WithTTL(time.Hour)), clock
}

func TestCache_LazyRefreshAndTTL(t *testing.T) {
	d := &countingDiscoverer{entries: sampleEntries()}
	c, clock := newTestCache(d)

	assert.True(t, c.NeedsUpdate())
	entries, err := c.Entries(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, len(sampleEntries()))
	assert.EqualValues(t, 1, d.calls.Load())

	_, err = c.Entries(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, d.calls.Load(), "fresh index must not be rediscovered")

	clock.Advance(2 * time.Hour)
	assert.True(t, c.NeedsUpdate())
	_, err = c.Entries(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, d.calls.Load())
}

func TestCache_FailedRefreshKeepsPreviousIndex(t *testing.T) {
	d := &countingDiscoverer{entries: sampleEntries()}
	c, clock := newTestCache(d)
	require.NoError(t, c.Refresh(context.Background()))

	d.err = errors.New("site down")
	clock.Advance(2 * time.Hour)
	assert.Error(t, c.Refresh(context.Background()))

	entries, err := c.Entries(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, len(sampleEntries()))
}

func TestCache_EmptyDiscoveryKeepsPreviousIndex(t *testing.T) {
	d := &countingDiscoverer{entries: sampleEntries()}
	c, _ := newTestCache(d)
	require.NoError(t, c.Refresh(context.Background()))

	d.entries = nil
	assert.ErrorIs(t, c.Refresh(context.Background()), ErrEmpty)
	assert.Equal(t, len(sampleEntries()), c.Status().Size)
}

func TestCache_EmptyIndex(t *testing.T) {
	c, _ := newTestCache(&countingDiscoverer{})
	_, err := c.Entries(context.Background())
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = c.Lookup(context.Background(), "nurse")
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestCache_Status(t *testing.T) {
	c, clock := newTestCache(&countingDiscoverer{})
	st := c.Status()
	assert.Equal(t, 0, st.Size)
	assert.Nil(t, st.LastRefreshed)
	assert.True(t, st.NeedsUpdate)

	c.Load(sampleEntries())
	st = c.Status()
	assert.Equal(t, len(sampleEntries()), st.Size)
	require.NotNil(t, st.LastRefreshed)
	assert.Equal(t, clock.Now(), *st.LastRefreshed)
	assert.False(t, st.NeedsUpdate)
}

func TestCache_Lookup(t *testing.T) {
	c, _ := newTestCache(&countingDiscoverer{})
	c.Load(sampleEntries())

	res, err := c.Lookup(context.Background(), "Registered Nurses")
	require.NoError(t, err)
	require.True(t, res.Found)
	assert.Equal(t, "Registered Nurses", res.Match.Entry.Title)

	res, err = c.Lookup(context.Background(), "zzqxv")
	require.NoError(t, err)
	assert.False(t, res.Found)
}
