package termscript

// Version is the engine release, overridable at build time via
// -ldflags "-X github.com/termscript/termscript.Version=v1.2.3".
var Version = "0.1.0"
