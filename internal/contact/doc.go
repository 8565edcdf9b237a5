// Package contact implements node-to-face penalty contact.
//
// Primary entities are the exterior quadrilaterals of the primary blocks,
// each split into two triangles. Secondary entities are the nodes of the
// secondary blocks. Every step the secondary nodes are hashed into a uniform
// grid, each triangle collects the nodes behind it, and a node is pushed out
// along the triangle normal with force -penalty*gap. The reaction goes to
// the triangle corners by barycentric weight, so the net contact force is
// zero.
package contact
