package priority_queue_test

import (
	"testing"

	pq "github.com/named-data/ndnrepo/utils/priority_queue"
	"github.com/stretchr/testify/assert"
)

func TestBasics(t *testing.T) {
	q := pq.New[string, int]()
	assert.Equal(t, 0, q.Len())
	q.Push("c", 3)
	b := q.Push("b", 2)
	q.Push("a", 1)
	d := q.Push("d", 4)
	assert.Equal(t, 4, q.Len())
	assert.Equal(t, "a", q.Peek())
	assert.Equal(t, 1, q.PeekPriority())

	q.Update(d, 0)
	assert.Equal(t, "d", q.Pop())
	assert.True(t, q.Remove(b))
	assert.False(t, q.Remove(b))
	assert.Equal(t, "a", q.Pop())
	assert.Equal(t, "c", q.Pop())
	assert.Equal(t, 0, q.Len())
}
