package broker

import "github.com/aldrin-bus/aldrin/pkg/proto"

func (b *Broker) createChannel(st *work, id connID, req proto.CreateChannel) error {
	conn, ok := b.conns[id]
	if !ok {
		return nil
	}

	cookie := b.newChannelCookie()

	var ch *channel
	if req.End.End == proto.Sender {
		conn.addSender(cookie)
		ch = channelWithClaimedSender(id)
	} else {
		conn.addReceiver(cookie)
		ch = channelWithClaimedReceiver(id, req.End.Capacity)
	}
	b.channels[cookie] = ch

	b.send(st, id, proto.CreateChannelReply{Serial: req.Serial, Cookie: cookie})

	b.stats.NumChannels++
	b.stats.ChannelsCreated++
	return nil
}

func (b *Broker) closeChannelEnd(st *work, id connID, req proto.CloseChannelEnd) error {
	if _, ok := b.conns[id]; !ok {
		return nil
	}

	ch, ok := b.channels[req.Cookie]
	if !ok {
		b.send(st, id, proto.CloseChannelEndReply{
			Serial: req.Serial,
			Result: proto.CloseChannelEndInvalidChannel,
		})
		return nil
	}

	result, claimed := ch.checkClose(id, req.End)

	b.send(st, id, proto.CloseChannelEndReply{Serial: req.Serial, Result: result})

	if result == proto.CloseChannelEndOk {
		var owner *connID
		if claimed {
			owner = &id
		}
		b.removeChannelEnd(st, req.Cookie, req.End, owner)
	}

	return nil
}

func (b *Broker) claimChannelEnd(st *work, id connID, req proto.ClaimChannelEnd) error {
	conn, ok := b.conns[id]
	if !ok {
		return nil
	}

	ch, ok := b.channels[req.Cookie]
	if !ok {
		b.send(st, id, proto.ClaimChannelEndReply{
			Serial: req.Serial,
			Result: proto.ClaimChannelEndInvalidChannel,
		})
		return nil
	}

	if req.End.End == proto.Sender {
		receiver, capacity, result := ch.claimSender(id)
		if result != proto.ClaimChannelEndSenderClaimed {
			b.send(st, id, proto.ClaimChannelEndReply{Serial: req.Serial, Result: result})
			return nil
		}

		conn.addSender(req.Cookie)
		b.send(st, id, proto.ClaimChannelEndReply{
			Serial:   req.Serial,
			Result:   result,
			Capacity: capacity,
		})
		b.send(st, receiver, proto.ChannelEndClaimed{
			Cookie: req.Cookie,
			End:    proto.ChannelEndWithCapacity{End: proto.Sender},
		})
		return nil
	}

	sender, result := ch.claimReceiver(id, req.End.Capacity)
	if result != proto.ClaimChannelEndReceiverClaimed {
		b.send(st, id, proto.ClaimChannelEndReply{Serial: req.Serial, Result: result})
		return nil
	}

	conn.addReceiver(req.Cookie)
	b.send(st, id, proto.ClaimChannelEndReply{Serial: req.Serial, Result: result})
	b.send(st, sender, proto.ChannelEndClaimed{
		Cookie: req.Cookie,
		End:    proto.ChannelEndWithCapacity{End: proto.Receiver, Capacity: req.End.Capacity},
	})
	return nil
}

func (b *Broker) addChannelCapacity(st *work, id connID, req proto.AddChannelCapacity) {
	conn, ok := b.conns[id]
	if !ok {
		return
	}

	ch, ok := b.channels[req.Cookie]
	if !ok {
		return
	}

	sender, notify, overflow := ch.addCapacity(id, req.Capacity)
	if overflow {
		// Saturating the credit counter closes the receiver end; clients
		// below 1.18 expect the whole channel to go away.
		b.removeChannelEnd(st, req.Cookie, proto.Receiver, &id)
		if conn.version.Before(proto.V1_18) {
			if ch.sender.state == endClaimed {
				owner := ch.sender.owner
				b.removeChannelEnd(st, req.Cookie, proto.Sender, &owner)
			} else {
				b.removeChannelEnd(st, req.Cookie, proto.Sender, nil)
			}
		}
		return
	}

	if notify {
		b.send(st, sender, proto.AddChannelCapacity{
			Cookie:   req.Cookie,
			Capacity: req.Capacity,
		})
	}
}

func (b *Broker) sendItem(st *work, id connID, req proto.SendItem) {
	ch, ok := b.channels[req.Cookie]
	if !ok {
		return
	}

	receiver, errKind := ch.sendItem(id)
	switch errKind {
	case sendItemOk:

	case sendItemReceiverUnclaimed:
		// The sender must learn that the receiver end is gone, so close
		// the receiver first; closing the sender first would delete the
		// whole channel and turn the receiver close into a no-op.
		b.removeChannelEnd(st, req.Cookie, proto.Receiver, nil)
		b.removeChannelEnd(st, req.Cookie, proto.Sender, &id)
		b.stats.ItemsDropped++
		return

	case sendItemCapacityExhausted:
		b.removeChannelEnd(st, req.Cookie, proto.Sender, &id)
		b.stats.ItemsDropped++
		return

	default:
		b.stats.ItemsDropped++
		return
	}

	if b.send(st, receiver, proto.ItemReceived{Cookie: req.Cookie, Value: req.Value}) {
		b.stats.ItemsSent++
	}
}

// removeChannelEnd closes one channel end, notifying the owner of the other
// end when it is claimed, and deletes the channel once no claimed end
// remains. owner is the connection holding the closed end, nil for an
// unclaimed end.
func (b *Broker) removeChannelEnd(st *work, cookie proto.ChannelCookie, end proto.ChannelEnd, owner *connID) {
	ch, ok := b.channels[cookie]
	if !ok {
		return
	}

	if owner != nil {
		if conn, ok := b.conns[*owner]; ok {
			if end == proto.Sender {
				conn.removeSender(cookie)
			} else {
				conn.removeReceiver(cookie)
			}
		}
	}

	remove := true
	if other, notify := ch.close(end); notify {
		if _, ok := b.conns[other]; ok {
			b.send(st, other, proto.ChannelEndClosed{Cookie: cookie, End: end})
			remove = false
		}
	}

	if remove {
		delete(b.channels, cookie)
		b.stats.NumChannels--
		b.stats.ChannelsClosed++
	}
}

// newChannelCookie mints a cookie not yet used by any live channel.
func (b *Broker) newChannelCookie() proto.ChannelCookie {
	for {
		cookie := proto.NewChannelCookie()
		if _, collision := b.channels[cookie]; !collision {
			return cookie
		}
	}
}
