package proto

import "encoding/json"

// Value is an opaque payload carried by calls, events and channel items. The
// broker never inspects it; it is relayed verbatim between clients.
type Value = json.RawMessage
