/*
Package domain contains the core models of the embed-building dialogue.

It defines the document being assembled, the controls and forms shown to the user,
the interaction events reported back by the messaging platform and the one-shot
acknowledgement each of those events carries. This package is kept free of I/O and
platform SDKs; adapters translate these types to and from the wire.

# Key Entities

  - Document: the title and append-only field list built during a session.
  - Embed: an immutable snapshot of a Document, handed to the gateway for rendering.
  - MessageView: the full content of a bot message (text, embed, buttons).
  - InteractionEvent: a ButtonActivated or FormSubmitted event, each holding an Ack.
  - Phase: the position of a session in its state machine.
*/
package domain
