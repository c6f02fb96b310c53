// Package gossip is a convergent gossip engine.
//
// A shell periodically exchanges payloads with a selection of its known
// peers, so every shell's state converges on the same value. The engine
// owns peer tracking, round scheduling, delivery acknowledgement and
// lifecycle; the caller plugs in a Logic which owns policy: which peers
// to gossip with, what payload to send each, how to merge inbound
// payloads, and what to prune once a payload is acknowledged.
//
// One shell hosts any number of independent gossip streams, partitioned
// by identifier. Each identifier gets its own logic instance, created
// lazily on first reference.
//
// Peers are discovered manually via the control handle, from cluster
// membership events, or from receptionist listings.
package gossip
