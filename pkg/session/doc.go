/*
Package session implements the interaction-session controller.

A session starts when the command phrase is observed and walks a fixed sequence:
prompt with a title button, title form (bounded wait), then an edit loop where the
user adds fields through a form until pressing "Done". The Controller owns the
Document for the whole session and talks to the messaging platform only through a
ports.Gateway; the Multiplexer merges the button and form event streams of the
session's message into one sequential feed.

The Manager runs one Controller per triggering message, each in its own goroutine,
and can claim triggers through a ports.DistributedLocker so that replicas sharing a
bot token do not start duplicate sessions.
*/
package session
