// Package poller runs the review-status poll loop.
//
// One Poller owns the session state (cursor, last notified status, last
// alert text) and runs cycles strictly one after another:
//
//	fetch -> check -> parse -> extract -> (on change) deliver -> wait
//
// Every cycle failure is classified by review.Kind and handled inside the
// cycle; nothing a cycle does can stop the loop. Only cancellation of the
// Run context ends it.
//
// Time is injected through Clock and the wait between cycles is computed
// from a cron.Schedule, so tests drive cycles without real waits.
package poller
