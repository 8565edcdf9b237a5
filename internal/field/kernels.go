package field

import "github.com/san-kum/dynsm/internal/dynamo"

const minChunk = 4096

// ComputeAcceleration fills a = (f_int [+ f_contact]) / m per component. A
// node whose mass is not a finite positive number yields a *dynamo.MassError
// and leaves the acceleration of the remaining nodes unspecified.
func ComputeAcceleration(s *Set, includeContact bool) error {
	if err := s.LumpedMass.CheckPositive(); err != nil {
		return err
	}

	acc, fint, fcon, mass := s.Acceleration, s.InternalForce, s.ContactForce, s.LumpedMass
	dynamo.ParallelFor(s.numNodes, minChunk, func(start, end int) {
		for n := start; n < end; n++ {
			inv := 1.0 / mass[n]
			i := n * Dim
			if includeContact {
				acc[i] = inv * (fint[i] + fcon[i])
				acc[i+1] = inv * (fint[i+1] + fcon[i+1])
				acc[i+2] = inv * (fint[i+2] + fcon[i+2])
			} else {
				acc[i] = inv * fint[i]
				acc[i+1] = inv * fint[i+1]
				acc[i+2] = inv * fint[i+2]
			}
		}
	})
	return nil
}

// KineticEnergy returns 0.5 * sum m |v|^2.
func KineticEnergy(s *Set) float64 {
	ke := 0.0
	for n := 0; n < s.numNodes; n++ {
		i := n * Dim
		v2 := s.Velocity[i]*s.Velocity[i] + s.Velocity[i+1]*s.Velocity[i+1] + s.Velocity[i+2]*s.Velocity[i+2]
		ke += 0.5 * s.LumpedMass[n] * v2
	}
	return ke
}
