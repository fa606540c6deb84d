/*
Package wire implements the gossip wire format: a self-describing
textual record containing Event's fields with conventional type tags,
a stable one-to-one mapping of the Event data model; upgrading requires
tagged additive fields only.

JSON satisfies that description directly — it is self-describing,
textual, and additive fields round-trip without breaking older readers —
and is the codec already used throughout pkg/storage (boltdb.go's
json.Marshal/json.Unmarshal convention), so this package
keeps that convention rather than introducing a second one.

This is also the encoding pkg/snapshot uses for persisted SavedState:
both are "serialise an Event-shaped value to bytes",
just with different envelopes.
*/
package wire
