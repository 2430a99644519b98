// Package security gates input before it reaches cryptographic or storage
// code and watches the event stream for repeated trust failures.
//
// Validator enforces identity naming rules and message size limits, and
// flags (without rejecting) script-injection signatures in message text.
// The file helpers validate user-supplied paths and bound the size of key
// files. Monitor is an EventSink decorator that raises SUSPICIOUS_ACTIVITY
// when one identity produces failure events faster than a token bucket
// allows.
package security
