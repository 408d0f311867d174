package shmregion

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSlotSize = 16 // mirrors cursor.SlotSize without importing cursor

func TestOpenOrCreate_SharesMapping(t *testing.T) {
	name := fmt.Sprintf("inspector-test-shares-%p", t)
	t.Cleanup(func() { _ = Unlink(name) })

	size := Footprint(4096, 2, 3, testSlotSize)

	r1, err := OpenOrCreate(name, size, 2, 3, testSlotSize)
	require.NoError(t, err)
	defer r1.Close()

	r1.WriteHead().Store(r1.WriteHead().Load().Add(5))

	r2, err := OpenOrCreate(name, size, 2, 3, testSlotSize)
	require.NoError(t, err)
	defer r2.Close()

	assert.Equal(t, uint64(5), r2.WriteHead().Load().Location(), "second open must see the first process's write head")

	assert.Len(t, r1.WriterPoolBytes(), 2*testSlotSize)
	assert.Len(t, r1.ReaderPoolBytes(), 3*testSlotSize)
	assert.Len(t, r1.Buffer(), 4096)
}

func TestOpenOrCreate_TooSmallForLayout(t *testing.T) {
	name := fmt.Sprintf("inspector-test-toosmall-%p", t)
	t.Cleanup(func() { _ = Unlink(name) })

	_, err := OpenOrCreate(name, 4, 100, 100, testSlotSize)
	assert.Error(t, err)
}

func TestUnlink_IsIdempotent(t *testing.T) {
	name := fmt.Sprintf("inspector-test-unlink-%p", t)
	assert.NoError(t, Unlink(name))
	assert.NoError(t, Unlink(name))
}
