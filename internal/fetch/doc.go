// Package fetch performs outbound retrieval of user-supplied URLs and
// classifies upstream responses by their declared content type.
//
// A fetch is a single GET attempt with redirect following and no retries.
// The response body is returned as a raw stream so the relay package can
// enforce the transfer cap incrementally instead of buffering blindly.
package fetch
