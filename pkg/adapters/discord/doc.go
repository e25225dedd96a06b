// Package discord implements ports.Gateway on top of the Discord API.
//
// The Gateway turns inbound MESSAGE_CREATE events into domain.Trigger values and
// routes INTERACTION_CREATE events (button clicks and modal submissions) to the
// Subscription of the message they belong to. Every routed interaction carries a
// one-shot domain.Ack backed by the interaction token.
package discord
