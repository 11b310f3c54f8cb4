package broker

import "github.com/aldrin-bus/aldrin/pkg/proto"

// pendingIntrospection is one requester waiting for a type's introspection.
type pendingIntrospection struct {
	conn   connID
	serial uint32
}

// introspectionQuery is one in-flight query towards a registrant, keyed in
// the query serial map by a broker-minted serial.
type introspectionQuery struct {
	typeID  proto.TypeID
	target  connID
	pending []pendingIntrospection
}

// introspectionDB tracks which connections can answer introspection queries
// for which type ids, plus the in-flight queries.
type introspectionDB struct {
	registered map[proto.TypeID]map[connID]struct{}
	queries    *serialMap[*introspectionQuery]

	// inFlight indexes the query serial per type id, so concurrent
	// requesters share one query towards the registrant.
	inFlight map[proto.TypeID]uint32
}

func newIntrospectionDB() *introspectionDB {
	return &introspectionDB{
		registered: make(map[proto.TypeID]map[connID]struct{}),
		queries:    newSerialMap[*introspectionQuery](),
		inFlight:   make(map[proto.TypeID]uint32),
	}
}

func (db *introspectionDB) register(typeIDs []proto.TypeID, id connID) {
	for _, typeID := range typeIDs {
		conns, ok := db.registered[typeID]
		if !ok {
			conns = make(map[connID]struct{})
			db.registered[typeID] = conns
		}
		conns[id] = struct{}{}
	}
}

// anyRegistrant picks a connection able to answer for a type id.
func (db *introspectionDB) anyRegistrant(typeID proto.TypeID) (connID, bool) {
	for id := range db.registered[typeID] {
		return id, true
	}
	return 0, false
}

func (b *Broker) registerIntrospection(id connID, req proto.RegisterIntrospection) error {
	if _, ok := b.conns[id]; !ok {
		return nil
	}

	b.introspection.register(req.TypeIDs, id)
	return nil
}

func (b *Broker) queryIntrospection(st *work, id connID, req proto.QueryIntrospection) error {
	if _, ok := b.conns[id]; !ok {
		return nil
	}

	db := b.introspection

	// Join an already-running query for the same type.
	if serial, ok := db.inFlight[req.TypeID]; ok {
		query, _ := db.queries.get(serial)
		query.pending = append(query.pending, pendingIntrospection{conn: id, serial: req.Serial})
		return nil
	}

	target, ok := db.anyRegistrant(req.TypeID)
	if !ok {
		b.send(st, id, proto.QueryIntrospectionReply{
			Serial: req.Serial,
			Result: proto.QueryIntrospectionUnavailable,
		})
		return nil
	}

	query := &introspectionQuery{
		typeID:  req.TypeID,
		target:  target,
		pending: []pendingIntrospection{{conn: id, serial: req.Serial}},
	}
	serial := db.queries.insert(query)
	db.inFlight[req.TypeID] = serial

	b.send(st, target, proto.QueryIntrospection{Serial: serial, TypeID: req.TypeID})
	return nil
}

func (b *Broker) queryIntrospectionReply(st *work, id connID, req proto.QueryIntrospectionReply) error {
	db := b.introspection

	query, ok := db.queries.get(req.Serial)
	if !ok || query.target != id {
		return errUnknownIntrospectionReply
	}

	db.queries.remove(req.Serial)
	delete(db.inFlight, query.typeID)

	for _, pending := range query.pending {
		b.send(st, pending.conn, proto.QueryIntrospectionReply{
			Serial: pending.serial,
			Result: req.Result,
			Value:  req.Value,
		})
	}

	return nil
}

// removeIntrospectionConn forgets a disconnected registrant. In-flight
// queries towards it are redirected to another registrant, or answered
// unavailable when none remains. Requesters that disconnected are dropped
// from pending lists.
func (b *Broker) removeIntrospectionConn(st *work, id connID) {
	db := b.introspection

	for typeID, conns := range db.registered {
		delete(conns, id)
		if len(conns) == 0 {
			delete(db.registered, typeID)
		}
	}

	for serial, query := range db.queries.entries {
		pending := query.pending[:0]
		for _, p := range query.pending {
			if p.conn != id {
				pending = append(pending, p)
			}
		}
		query.pending = pending

		if query.target != id {
			continue
		}

		db.queries.remove(serial)
		delete(db.inFlight, query.typeID)

		if len(query.pending) == 0 {
			continue
		}

		if target, ok := db.anyRegistrant(query.typeID); ok {
			next := &introspectionQuery{
				typeID:  query.typeID,
				target:  target,
				pending: query.pending,
			}
			nextSerial := db.queries.insert(next)
			db.inFlight[query.typeID] = nextSerial
			b.send(st, target, proto.QueryIntrospection{Serial: nextSerial, TypeID: query.typeID})
			continue
		}

		for _, pending := range query.pending {
			b.send(st, pending.conn, proto.QueryIntrospectionReply{
				Serial: pending.serial,
				Result: proto.QueryIntrospectionUnavailable,
			})
		}
	}
}
