// Package session carries values between the phases of a stub server's
// lifecycle.
//
// A Context holds typed values addressed by Key. Values stored under a
// durable key are also written by Store, so a later stubctl invocation (for
// example "stop" after "start") can read what an earlier one left behind.
// Plain keys live only as long as the process.
package session
