/*
Package scribe is a chat bot that lets a user build a rich embed message
interactively, one form at a time.

A user posts the command phrase "!embed". The bot answers with a message carrying
a "Set the title" button. Clicking it opens a form for the title. Once a title is
submitted the message shows the embed with two buttons: "Add Field", which opens
a form for a field name and content, and "Done", which renders the finished
embed without any controls. If the title form is not submitted within the title
timeout the bot replies "Timed out" and the session ends.

# Architecture

Every triggering message gets its own session, driven by a Controller through a
small state machine (awaiting_title_button, awaiting_title_form, editing,
terminated). The Controller only talks to the platform through the ports.Gateway
interface, so the same dialogue runs against Discord (pkg/adapters/discord) or an
in-process fake in tests.

Finished documents can be archived in a ports.DocumentStore (memory or redis) and
are then visible through the admin HTTP API and the MCP server.

# Usage

	gw := myGateway()
	eng := scribe.New(gw,
		scribe.WithArchive(memory.NewDocumentStore()),
		scribe.WithTitleTimeout(30*time.Second),
	)
	defer eng.Shutdown(context.Background())

	// Feed every inbound chat message:
	_ = eng.HandleTrigger(ctx, trigger)
*/
package scribe
