// Package cast records terminal sessions in the asciicast v2 format: a JSON
// header line followed by one JSON event per line, each event a timed chunk
// of terminal output or input.
package cast
