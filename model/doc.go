// Package model contains the in-memory representation of automation scripts:
// the closed set of directive variants, the expanded Script sequence, and the
// environment interpolation table in the `interp` sub-package.
//
// A script is loaded from a text file by the script DAO; by the time it
// reaches this package's Script type, includes are spliced in place and
// interpolation references are validated.
package model
