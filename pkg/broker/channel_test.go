package broker

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldrin-bus/aldrin/pkg/proto"
)

func TestChannelClaimSender(t *testing.T) {
	ch := channelWithClaimedReceiver(1, 4)

	receiver, capacity, result := ch.claimSender(2)
	require.Equal(t, proto.ClaimChannelEndSenderClaimed, result)
	assert.Equal(t, connID(1), receiver)
	assert.Equal(t, uint32(4), capacity)

	_, _, result = ch.claimSender(3)
	assert.Equal(t, proto.ClaimChannelEndAlreadyClaimed, result)
}

func TestChannelClaimReceiver(t *testing.T) {
	ch := channelWithClaimedSender(1)

	sender, result := ch.claimReceiver(2, 16)
	require.Equal(t, proto.ClaimChannelEndReceiverClaimed, result)
	assert.Equal(t, connID(1), sender)

	_, result = ch.claimReceiver(3, 1)
	assert.Equal(t, proto.ClaimChannelEndAlreadyClaimed, result)
}

func TestChannelCheckClose(t *testing.T) {
	ch := channelWithClaimedSender(1)

	result, claimed := ch.checkClose(1, proto.Sender)
	assert.Equal(t, proto.CloseChannelEndOk, result)
	assert.True(t, claimed)

	result, claimed = ch.checkClose(2, proto.Sender)
	assert.Equal(t, proto.CloseChannelEndForeignChannel, result)
	assert.True(t, claimed)

	// Only the creator may close an unclaimed end.
	result, claimed = ch.checkClose(2, proto.Receiver)
	assert.Equal(t, proto.CloseChannelEndForeignChannel, result)
	assert.False(t, claimed)

	ch.close(proto.Sender)
	result, _ = ch.checkClose(1, proto.Sender)
	assert.Equal(t, proto.CloseChannelEndInvalidChannel, result)
}

func TestChannelCloseNotifiesPeer(t *testing.T) {
	ch := channelWithClaimedSender(1)
	_, result := ch.claimReceiver(2, 0)
	require.Equal(t, proto.ClaimChannelEndReceiverClaimed, result)

	other, ok := ch.close(proto.Sender)
	require.True(t, ok)
	assert.Equal(t, connID(2), other)

	// The remaining end closes silently.
	_, ok = ch.close(proto.Receiver)
	assert.False(t, ok)
}

func TestChannelSendItem(t *testing.T) {
	ch := channelWithClaimedSender(1)

	_, errKind := ch.sendItem(2)
	assert.Equal(t, sendItemInvalidSender, errKind)

	_, errKind = ch.sendItem(1)
	assert.Equal(t, sendItemReceiverUnclaimed, errKind)

	_, result := ch.claimReceiver(2, 2)
	require.Equal(t, proto.ClaimChannelEndReceiverClaimed, result)

	receiver, errKind := ch.sendItem(1)
	require.Equal(t, sendItemOk, errKind)
	assert.Equal(t, connID(2), receiver)

	_, errKind = ch.sendItem(1)
	require.Equal(t, sendItemOk, errKind)

	_, errKind = ch.sendItem(1)
	assert.Equal(t, sendItemCapacityExhausted, errKind)
}

func TestChannelAddCapacity(t *testing.T) {
	ch := channelWithClaimedReceiver(1, 1)

	// No sender claimed: credit accumulates without a notification.
	_, notify, overflow := ch.addCapacity(1, 1)
	assert.False(t, notify)
	assert.False(t, overflow)

	_, _, result := ch.claimSender(2)
	require.Equal(t, proto.ClaimChannelEndSenderClaimed, result)

	sender, notify, overflow := ch.addCapacity(1, 3)
	require.True(t, notify)
	assert.False(t, overflow)
	assert.Equal(t, connID(2), sender)
	assert.Equal(t, uint32(5), ch.receiver.capacity)

	// Only the receiver owner adds capacity.
	_, notify, _ = ch.addCapacity(2, 1)
	assert.False(t, notify)
}

func TestChannelAddCapacityOverflow(t *testing.T) {
	ch := channelWithClaimedReceiver(1, math.MaxUint32)

	_, _, overflow := ch.addCapacity(1, 1)
	assert.True(t, overflow)
	assert.Equal(t, uint32(math.MaxUint32), ch.receiver.capacity)
}
