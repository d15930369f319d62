package baseline

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/molforge/qmdelta/internal/chem"
	"github.com/molforge/qmdelta/internal/logging"
	"github.com/molforge/qmdelta/internal/metrics"
)

type fakeKV struct {
	data map[string][]byte
	gets int
	sets int
}

func newFakeKV() *fakeKV { return &fakeKV{data: make(map[string][]byte)} }

func (f *fakeKV) Get(_ context.Context, key string) *redis.StringCmd {
	f.gets++
	if v, ok := f.data[key]; ok {
		return redis.NewStringResult(string(v), nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func (f *fakeKV) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.sets++
	f.data[key] = value.([]byte)
	return redis.NewStatusResult("OK", nil)
}

type countingProvider struct {
	res   Result
	calls int
}

func (p *countingProvider) Compute(_ context.Context, m chem.Molecule, _ bool) (*Result, error) {
	p.calls++
	r := p.res
	r.Charges = make([]float64, m.AtomCount())
	return &r, nil
}

func testMol(t *testing.T) chem.Molecule {
	t.Helper()
	m, err := chem.NewMol(
		[]int{8, 1, 1},
		[][3]float64{{0, 0, 0.12}, {0.96, 0, 0.1}, {-0.24, 0.93, 0.1}},
	)
	require.NoError(t, err)
	return m
}

func TestCachedProvider_RoundTrip(t *testing.T) {
	kv := newFakeKV()
	inner := &countingProvider{res: Result{EForm: -7.5, EGap: 3.2}}
	p := NewCachedProvider(inner, kv, time.Hour, logging.NewNopLogger(), metrics.NewNoopMetrics())

	mol := testMol(t)
	first, err := p.Compute(context.Background(), mol, false)
	require.NoError(t, err)
	second, err := p.Compute(context.Background(), mol, false)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls, "second call must be served from cache")
	assert.Equal(t, first, second)
	assert.Equal(t, 1, kv.sets)
}

func TestCachedProvider_OptimizeFlagSplitsEntries(t *testing.T) {
	kv := newFakeKV()
	inner := &countingProvider{}
	p := NewCachedProvider(inner, kv, time.Hour, logging.NewNopLogger(), metrics.NewNoopMetrics())

	mol := testMol(t)
	_, err := p.Compute(context.Background(), mol, false)
	require.NoError(t, err)
	_, err = p.Compute(context.Background(), mol, true)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedProvider_CorruptEntryRecomputes(t *testing.T) {
	kv := newFakeKV()
	mol := testMol(t)
	kv.data[cacheKey(mol, false)] = []byte("{not json")

	inner := &countingProvider{res: Result{EForm: -1}}
	p := NewCachedProvider(inner, kv, time.Hour, logging.NewNopLogger(), metrics.NewNoopMetrics())

	res, err := p.Compute(context.Background(), mol, false)
	require.NoError(t, err)
	assert.Equal(t, -1.0, res.EForm)
	assert.Equal(t, 1, inner.calls)
}

func TestCacheKey_GeometrySensitive(t *testing.T) {
	a := testMol(t)
	b, err := chem.NewMol(
		[]int{8, 1, 1},
		[][3]float64{{0, 0, 0.13}, {0.96, 0, 0.1}, {-0.24, 0.93, 0.1}},
	)
	require.NoError(t, err)
	assert.NotEqual(t, cacheKey(a, false), cacheKey(b, false))
	assert.Equal(t, cacheKey(a, false), cacheKey(testMol(t), false))
}

func TestCachedProvider_StoredPayloadIsResult(t *testing.T) {
	kv := newFakeKV()
	inner := &countingProvider{res: Result{EHOMO: -0.4}}
	p := NewCachedProvider(inner, kv, time.Hour, logging.NewNopLogger(), metrics.NewNoopMetrics())

	mol := testMol(t)
	_, err := p.Compute(context.Background(), mol, false)
	require.NoError(t, err)

	var stored Result
	require.NoError(t, json.Unmarshal(kv.data[cacheKey(mol, false)], &stored))
	assert.Equal(t, -0.4, stored.EHOMO)
}
