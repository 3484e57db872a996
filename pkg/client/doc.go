// Package client composes the full messaging pipeline over a pluggable
// delivery service.
//
// Outbound, a chat message travels through five layers: content encoding,
// frame encoding with reliability metadata, signing under a
// domain-separated context, length-hiding padding, and envelope sealing.
// The sealed envelope is wrapped in a tagged payload and published to the
// conversation's topic. Inbound runs the exact inverse, dropping anything
// that fails a layer.
//
// Conversations are invited over per-identity inbox topics; invites travel
// sealed like any other frame but sign under a separate control purpose.
// Contact cards are the one thing published in the clear, on the directory
// topic.
//
// The delivery service is an interface: LocalDelivery is an in-process bus
// for tests and demos, and a networked implementation can be dropped in
// without touching the pipeline.
package client
