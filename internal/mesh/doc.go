// Package mesh generates structured hexahedral block meshes and partitions
// them across participants.
//
// Each [BlockSpec] is a box split into a regular grid of hexahedra with the
// usual bottom-then-top node ordering. Blocks never share nodes, so separate
// blocks are separate bodies that only interact through contact.
package mesh
