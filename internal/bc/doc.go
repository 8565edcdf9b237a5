// Package bc applies initial and prescribed kinematic conditions to the
// nodal fields.
package bc
