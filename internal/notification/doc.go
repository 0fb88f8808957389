// Package notification holds the closed taxonomy of platform events and the
// canonical record every event kind is mapped onto before dispatch.
//
// Each event kind is a plain struct carrying exactly the fields that kind
// needs. Build turns any of them into a Record with the kind's fixed type tag,
// priority, entity references and message template. The package does no I/O;
// delivery lives in package dispatch.
package notification
