// Package policy provides optional declarative rules that can be applied on
// top of a running script – for example to require human approval for
// selected directives or to block directive kinds outright.
package policy
