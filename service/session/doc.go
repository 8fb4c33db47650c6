// Package session drives a child process behind a pseudo-terminal: send
// text and control bytes in, block until expected output appears, and tee
// every observed byte to recording or echo observers. Expectations scan a
// retained buffer that survives across reads, so a match that straddles
// read boundaries is still found.
package session
