// Package tlsroots loads TLS material.
//
// CertReloader serves the server certificate and swaps it in place when
// the PEM files change on disk. Pool builds the trust store clients use
// to reach a server whose certificate is signed by a private CA.
package tlsroots
