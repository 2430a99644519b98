// Package domain defines core data models and interfaces shared across the app.
// It contains plain types (envelopes, key records, events, errors) and
// contracts (interfaces) only.
package domain
