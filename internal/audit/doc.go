// Package audit provides sinks for the security-event stream.
//
// Sinks implement domain.EventSink and are safe for concurrent Emit:
//   - LogSink writes each event as a structured zap entry.
//   - FileSink appends one JSON object per line to a file.
//   - RedisSink appends JSON records to a Redis list.
//   - Recorder keeps events in memory and answers filtered queries.
//   - Multi fans one event out to several sinks.
package audit
