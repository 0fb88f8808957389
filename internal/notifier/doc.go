// Package notifier is the entry point other platform code calls when a domain
// event should produce a notification.
//
// A call builds the event's canonical record and hands it to the dispatch
// client; the dispatch Result comes back unchanged. There is no queue, no
// retry and no deduplication: two identical calls create two notifications.
//
// # Fire-and-forget
//
// Go detaches the call from the caller's cancellation so a request handler can
// return before delivery finishes. Wait lets a process drain those in-flight
// deliveries on shutdown.
package notifier
