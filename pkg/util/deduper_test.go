package util

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeduper_NilClientAllows(t *testing.T) {
	d := NewDeduper(nil, time.Hour, nil)
	assert.True(t, d.AcquireOnce(context.Background(), "reply", "msg-1"))
	assert.True(t, d.AcquireOnce(context.Background(), "reply", "msg-1"))
	d.Release(context.Background(), "reply", "msg-1")

	var none *Deduper
	assert.True(t, none.AcquireOnce(context.Background(), "reply", "msg-1"))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "dedup:reply:msg-1", Key("reply", "msg-1"))
}
