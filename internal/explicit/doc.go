// Package explicit implements the central-difference (leapfrog) time
// integration loop for deformable bodies with optional penalty contact.
//
// A Driver owns the nodal field set and calls its collaborators in a fixed
// order every step:
//
//	advance time, half-step velocity, apply kinematic conditions,
//	full-step displacement, internal force, contact force, acceleration,
//	half-step velocity, output, commit
//
// Collaborators are described by small interfaces (ForceModel,
// KinematicConditionApplier, ContactCoupler, OutputSink, MeshProvider) and
// may parallelize internally; the driver itself is sequential.
package explicit
