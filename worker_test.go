package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkerListReapDropsOnlyDoneEntries(t *testing.T) {
	list := &workerList{}
	w1, w2, w3 := &worker{}, &worker{}, &worker{}
	list.add(w1)
	list.add(w2)
	list.add(w3)

	w2.markDone()
	list.reap()

	assert.Len(t, list.items, 2)
	for _, w := range list.items {
		assert.False(t, w.isDone())
	}
}

func TestWorkerListReapAllDone(t *testing.T) {
	list := &workerList{}
	for i := 0; i < 4; i++ {
		w := &worker{}
		w.markDone()
		list.add(w)
	}
	list.reap()
	assert.Empty(t, list.items)
}

func TestWorkerDoneTransitionsOnce(t *testing.T) {
	w := &worker{}
	assert.False(t, w.isDone())
	w.markDone()
	assert.True(t, w.isDone())
	w.markDone()
	assert.True(t, w.isDone())
}
