package broker

import "github.com/aldrin-bus/aldrin/pkg/proto"

func (b *Broker) callFunction(st *work, id connID, req proto.CallFunction) error {
	conn, ok := b.conns[id]
	if !ok {
		return nil
	}

	entry, ok := b.svcCookies[req.ServiceCookie]
	if !ok {
		b.send(st, id, proto.CallFunctionReply{
			Serial: req.Serial,
			Result: proto.CallFunctionInvalidService,
		})
		return nil
	}

	callee := b.objects[entry.id.Object.UUID].conn

	serial := b.calls.insert(&pendingCall{
		callerSerial: req.Serial,
		caller:       id,
		calleeObj:    entry.id.Object.UUID,
		calleeSvc:    entry.id.UUID,
	})

	if !conn.addCall(req.Serial, serial, callee) {
		b.calls.remove(serial)
		return errDuplicateCallSerial
	}

	b.services[svcKey{object: entry.id.Object.UUID, service: entry.id.UUID}].addCall(serial)

	b.stats.NumFunctionCalls++
	b.stats.FunctionsCalled++

	// A failed send means the callee is being removed; its cascade aborts
	// the call.
	forward := req
	forward.Serial = serial
	b.send(st, callee, forward)
	return nil
}

func (b *Broker) callFunctionReply(st *work, id connID, req proto.CallFunctionReply) {
	call, ok := b.calls.get(req.Serial)
	if !ok {
		return
	}

	// Only the service owner may reply.
	obj, ok := b.objects[call.calleeObj]
	if !ok || obj.conn != id {
		return
	}

	b.calls.remove(req.Serial)
	b.stats.NumFunctionCalls--
	b.stats.FunctionsReplied++

	b.services[svcKey{object: call.calleeObj, service: call.calleeSvc}].removeCall(req.Serial)

	// Replies to aborted calls are dropped silently.
	if call.aborted {
		return
	}

	conn, ok := b.conns[call.caller]
	if !ok {
		return
	}

	conn.removeCall(call.callerSerial)

	forward := req
	forward.Serial = call.callerSerial
	b.send(st, call.caller, forward)
}

func (b *Broker) abortFunctionCall(st *work, id connID, req proto.AbortFunctionCall) error {
	conn, ok := b.conns[id]
	if !ok {
		return nil
	}

	call, ok := conn.callData(req.Serial)
	if !ok {
		return nil
	}

	st.pushAbortCall(call.calleeSerial, call.callee)
	return nil
}

// abortCall marks a pending call aborted, notifies a 1.16+ callee and
// replies aborted to the caller. Late replies from the callee are dropped by
// callFunctionReply.
func (b *Broker) abortCall(st *work, calleeSerial uint32, callee connID) {
	call, ok := b.calls.get(calleeSerial)
	if !ok || call.aborted {
		return
	}

	call.aborted = true

	if conn, ok := b.conns[callee]; ok {
		// Pre-1.16 callees do not understand aborts; the suppressed
		// notification only costs them a wasted reply.
		if conn.version.AtLeast(proto.V1_16) {
			b.send(st, callee, proto.AbortFunctionCall{Serial: calleeSerial})
		}
	}

	if conn, ok := b.conns[call.caller]; ok {
		conn.removeCall(call.callerSerial)
		b.send(st, call.caller, proto.CallFunctionReply{
			Serial: call.callerSerial,
			Result: proto.CallFunctionAborted,
		})
	}
}
