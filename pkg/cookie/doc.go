// Package cookie provides a cookie manager with HMAC signing and AES-GCM
// encryption, supporting secret rotation.
//
// Signed cookies are tamper-evident; encrypted cookies additionally hide
// their value from the client. The session transport stores its token in an
// encrypted cookie, and the structure scope uses a plain long-lived cookie.
package cookie
