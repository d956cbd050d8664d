// Package notifier delivers operator notifications to the configured chat.
//
// # Transport
//
// The service delegates delivery to a transport.Sender (the Telegram
// adapter). Delivery is synchronous: the poll loop waits for the result and
// classifies a failure as DeliveryFailed.
//
// # History
//
// For debugging and operator visibility, the service keeps a small in-memory
// history of recently delivered notifications and optionally appends every
// attempt to the storage journal.
package notifier
