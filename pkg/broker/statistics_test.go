package broker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatisticsTake(t *testing.T) {
	var s Statistics
	s.MessagesSent = 10
	s.MessagesReceived = 7
	s.NumObjects = 3
	s.ObjectsCreated = 5
	s.NumConnections = 2

	res := s.take()
	assert.Equal(t, uint64(10), res.MessagesSent)
	assert.Equal(t, uint64(7), res.MessagesReceived)
	assert.Equal(t, uint64(5), res.ObjectsCreated)
	assert.Equal(t, 3, res.NumObjects)
	assert.False(t, res.End.Before(res.Start))

	// Window counters reset, gauges carry over.
	assert.Equal(t, uint64(0), s.MessagesSent)
	assert.Equal(t, uint64(0), s.ObjectsCreated)
	assert.Equal(t, 3, s.NumObjects)
	assert.Equal(t, 2, s.NumConnections)
	assert.Equal(t, res.End, s.Start)
}
