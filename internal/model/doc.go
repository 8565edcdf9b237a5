// Package model provides the force models integrated by the explicit
// driver.
//
// The lattice model replaces continuum elasticity with axial springs along
// the edges and body diagonals of every hexahedron. It is cheap, has a
// lumped mass matrix by construction and gives a conservative stable step
// from a Gershgorin bound.
package model
