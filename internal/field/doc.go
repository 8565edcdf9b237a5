// Package field holds the nodal field set integrated by the explicit driver.
//
// Vector fields are flat node-major slices with [Dim] components per node;
// the lumped mass is a scalar per node. Collaborators receive the slices
// themselves, so writes through a view are visible to the driver without
// copying.
package field
