package broker

import (
	"math"

	"github.com/aldrin-bus/aldrin/pkg/proto"
)

type channelEndState uint8

const (
	endUnclaimed channelEndState = iota
	endClaimed
	endClosed
)

type channelEnd struct {
	state    channelEndState
	owner    connID
	capacity uint32
}

// channel is the registry entry of one unidirectional item stream. Capacity
// is the credit granted by the receiver and consumed one unit per item; it
// is tracked on the channel regardless of which ends are claimed.
type channel struct {
	sender   channelEnd
	receiver channelEnd
}

func channelWithClaimedSender(owner connID) *channel {
	return &channel{
		sender:   channelEnd{state: endClaimed, owner: owner},
		receiver: channelEnd{state: endUnclaimed},
	}
}

func channelWithClaimedReceiver(owner connID, capacity uint32) *channel {
	return &channel{
		sender:   channelEnd{state: endUnclaimed},
		receiver: channelEnd{state: endClaimed, owner: owner, capacity: capacity},
	}
}

func (c *channel) end(e proto.ChannelEnd) *channelEnd {
	if e == proto.Sender {
		return &c.sender
	}
	return &c.receiver
}

// checkClose validates a close request without mutating the channel. claimed
// reports whether the closing client owned the end (as opposed to closing an
// unclaimed end of a channel it created).
func (c *channel) checkClose(id connID, e proto.ChannelEnd) (result proto.CloseChannelEndResult, claimed bool) {
	switch end := c.end(e); end.state {
	case endUnclaimed:
		// The creator still holds the other end; only it may close this one.
		if peer := c.end(e.Other()); peer.state == endClaimed && peer.owner == id {
			return proto.CloseChannelEndOk, false
		}
		return proto.CloseChannelEndForeignChannel, false
	case endClaimed:
		if end.owner == id {
			return proto.CloseChannelEndOk, true
		}
		return proto.CloseChannelEndForeignChannel, true
	default:
		return proto.CloseChannelEndInvalidChannel, false
	}
}

// close closes one end. It returns the owner of the other end when that
// owner must be notified; otherOK is false when the whole channel should be
// deleted instead.
func (c *channel) close(e proto.ChannelEnd) (other connID, otherOK bool) {
	end := c.end(e)
	end.state = endClosed

	peer := c.end(e.Other())
	if peer.state == endClaimed {
		return peer.owner, true
	}
	return 0, false
}

// claimSender claims the sender end, returning the receiver owner and the
// receiver's current capacity.
func (c *channel) claimSender(id connID) (receiver connID, capacity uint32, result proto.ClaimChannelEndResult) {
	switch c.sender.state {
	case endClaimed:
		return 0, 0, proto.ClaimChannelEndAlreadyClaimed
	case endClosed:
		return 0, 0, proto.ClaimChannelEndInvalidChannel
	}

	if c.receiver.state != endClaimed {
		// A channel with both ends unclaimed or the receiver closed
		// never outlives the dispatcher step that got it there.
		return 0, 0, proto.ClaimChannelEndInvalidChannel
	}

	c.sender = channelEnd{state: endClaimed, owner: id}
	return c.receiver.owner, c.receiver.capacity, proto.ClaimChannelEndSenderClaimed
}

// claimReceiver claims the receiver end with an initial capacity, returning
// the sender owner.
func (c *channel) claimReceiver(id connID, capacity uint32) (sender connID, result proto.ClaimChannelEndResult) {
	switch c.receiver.state {
	case endClaimed:
		return 0, proto.ClaimChannelEndAlreadyClaimed
	case endClosed:
		return 0, proto.ClaimChannelEndInvalidChannel
	}

	if c.sender.state != endClaimed {
		return 0, proto.ClaimChannelEndInvalidChannel
	}

	c.receiver = channelEnd{state: endClaimed, owner: id, capacity: capacity}
	return c.sender.owner, proto.ClaimChannelEndReceiverClaimed
}

type sendItemError uint8

const (
	sendItemOk sendItemError = iota
	sendItemInvalidSender
	sendItemReceiverUnclaimed
	sendItemReceiverClosed
	sendItemCapacityExhausted
)

// sendItem consumes one unit of capacity and returns the receiver owner.
func (c *channel) sendItem(id connID) (receiver connID, errKind sendItemError) {
	if c.sender.state != endClaimed || c.sender.owner != id {
		return 0, sendItemInvalidSender
	}

	switch c.receiver.state {
	case endUnclaimed:
		return 0, sendItemReceiverUnclaimed
	case endClosed:
		return 0, sendItemReceiverClosed
	}

	if c.receiver.capacity == 0 {
		return 0, sendItemCapacityExhausted
	}

	c.receiver.capacity--
	return c.receiver.owner, sendItemOk
}

// addCapacity grants more credit. It returns the sender owner when the
// sender must be notified; overflow closes the receiver end at the caller.
func (c *channel) addCapacity(id connID, delta uint32) (sender connID, notify bool, overflow bool) {
	if c.receiver.state != endClaimed || c.receiver.owner != id || delta == 0 {
		return 0, false, false
	}

	if c.receiver.capacity > math.MaxUint32-delta {
		return 0, false, true
	}

	c.receiver.capacity += delta

	if c.sender.state != endClaimed {
		return 0, false, false
	}
	return c.sender.owner, true, false
}
