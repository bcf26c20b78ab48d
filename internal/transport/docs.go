// package transport contains implementations to requirements on *message
// syntaxes* defined by http related RFCs, currently HTTP/1.1 (RFC9112)
// only.
//
// unlike net/http, the request side writes exactly the bytes the caller
// prepared. validity of the resulting message (RFC9110 semantics) is the
// caller's problem, which is the point of this module.
package transport
