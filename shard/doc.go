// Package shard implements the deterministic sharding and sorting pipeline
// used for split-screen editing: rank the working set by the selected key,
// optionally interleave the ranked order round-robin, split it into
// near-equal contiguous shards, and select the shard a client operates on.
//
// Every stage is a total, pure function: empty input yields empty output and
// no stage mutates its input slice.
package shard
