package io_test

import (
	"testing"

	fbleio "github.com/malphas-lang/fble/internal/io"
	"github.com/stretchr/testify/assert"
)

func TestChanPortGetEmpty(t *testing.T) {
	p := fbleio.ChanPort{In: make(chan any, 1)}
	_, ok := p.Get()
	assert.False(t, ok)
}

func TestChanPortRoundTrip(t *testing.T) {
	ch := make(chan any, 1)
	get := fbleio.ChanPort{In: ch}
	put := fbleio.ChanPort{Out: ch}

	assert.True(t, put.Put("hello"))
	v, ok := get.Get()
	assert.True(t, ok)
	assert.Equal(t, "hello", v)
}
