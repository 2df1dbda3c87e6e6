package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBucket struct {
	keys   []string
	result Result
	err    error
}

func (f *fakeBucket) Allow(_ context.Context, key string, _ float64, _ int) (Result, error) {
	f.keys = append(f.keys, key)
	return f.result, f.err
}

func TestNilLimiterAllows(t *testing.T) {
	var l *LoginLimiter

	d, err := l.AllowAttempt(context.Background(), "10.0.0.1")

	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.False(t, l.Enabled())
}

func TestAllowAttemptKeysByClientIP(t *testing.T) {
	bucket := &fakeBucket{result: Result{Allowed: false, RetryAfter: 4 * time.Second}}
	l := NewLoginLimiterWithBucket(bucket, 0.2, 5)

	d, err := l.AllowAttempt(context.Background(), " 10.0.0.1 ")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 4*time.Second, d.RetryAfter)

	_, err = l.AllowAttempt(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"dashboard:login:ip:10.0.0.1", "dashboard:login:ip:unknown"}, bucket.keys)
}

func TestAllowAttemptWrapsBackendFailure(t *testing.T) {
	l := NewLoginLimiterWithBucket(&fakeBucket{err: errors.New("dial tcp: refused")}, 1, 1)

	_, err := l.AllowAttempt(context.Background(), "10.0.0.1")

	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestParseReply(t *testing.T) {
	res, err := parseReply([]interface{}{int64(1), "3.5", int64(1718000000000)}, 0.5, 5)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 3, res.Remaining)
	assert.Equal(t, 5, res.Limit)
	assert.Zero(t, res.RetryAfter)

	res, err = parseReply([]interface{}{int64(0), "0.5", int64(1718000000000)}, 0.5, 5)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, time.Second, res.RetryAfter)

	_, err = parseReply([]interface{}{int64(1)}, 1, 1)
	assert.ErrorIs(t, err, errInvalidScriptReply)

	_, err = parseReply([]interface{}{"yes", "1", int64(0)}, 1, 1)
	assert.ErrorIs(t, err, errInvalidScriptReply)
}

func TestTokenBucketRequiresClient(t *testing.T) {
	var bucket *TokenBucket

	_, err := bucket.Allow(context.Background(), "k", 1, 1)

	assert.ErrorIs(t, err, errBucketNotConfigured)
}

func TestDefaultBucketTTL(t *testing.T) {
	assert.Equal(t, 50*time.Second, defaultBucketTTL(0.2, 5))
	assert.Equal(t, time.Second, defaultBucketTTL(100, 1))
	assert.Equal(t, time.Second, defaultBucketTTL(0, 0))
}
