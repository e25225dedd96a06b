/*
Package ports defines the driven ports (interfaces) of the embed-building bot.

These interfaces decouple the session controller from the messaging platform and
from storage backends, so the same controller runs against Discord, an in-memory
fake in tests, a local archive or Redis.

# Key Interfaces

  - Gateway: sends and edits messages and hands out per-message event subscriptions.
  - Subscription: the two event streams (button clicks, form submissions) of one message.
  - DocumentStore: archive of finished documents.
  - DistributedLocker: claims a triggering message so only one replica runs its session.
*/
package ports
