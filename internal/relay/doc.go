// Package relay implements the bounded streaming transfer core: reading an
// upstream byte stream incrementally while enforcing a hard size cap.
//
// Two consumers share the mechanism. The Collector buffers the stream in
// memory and decodes it as text for inline display; the Proxy forwards the
// stream chunk by chunk to a downstream HTTP response. Both terminate the
// transfer the moment the running total would exceed the cap: the Collector
// discards everything and reports a size-limit error, the Proxy tears down
// the downstream connection so the client observes a truncated body rather
// than a valid short one.
package relay
