// Package termscript provides a script-driven terminal automation engine.
//
// The engine executes plain shell scripts annotated with `#$` directives
// (sendline, expect, regex, sleep, ...) against a real pseudo-terminal and
// comes with pluggable service layers such as:
//
//   - dao/script – script loading, include expansion and interpolation
//   - session    – the PTY driver (spawn, send, expect, teardown)
//   - runner     – sequential directive execution and outcome reporting
//   - cast       – asciicast v2 recording of everything the terminal showed
//
// Termscript is designed to be embedded in host applications.  End-users
// typically interact with the engine via the high-level Service façade
// exposed by the root package:
//
//	srv := termscript.New()
//	rt := srv.Runtime()
//	script, _ := rt.LoadScript(ctx, "demo.sh")
//	result := rt.Run(ctx, script)
//	if !result.Completed() {
//		log.Fatal(result.Err())
//	}
//
// For more details see the individual sub-packages.
package termscript
