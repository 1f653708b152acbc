// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
)

// Vector3 is a three-axis sensor vector in device coordinates
// (x to the right, y forward/up the screen, z out of the face).
type Vector3 [3]float64

// Matrix3 is a row-major 3x3 matrix.
type Matrix3 [9]float64

// Pose holds the device orientation angles in radians.
type Pose struct {
	Azimuth float64 `json:"azimuth"`
	Pitch   float64 `json:"pitch"`
	Roll    float64 `json:"roll"`
}

// Sample pairs the last known accelerometer and magnetometer vectors.
type Sample struct {
	Gravity     Vector3 `json:"gravity"`
	Geomagnetic Vector3 `json:"geomagnetic"`
}

// Source is anything that can provide samples over time: the mock source,
// a replay, or live sensors.
type Source interface {
	Next() (Sample, error)
}

const (
	standardGravity = 9.81

	// Below 10% of g the device is treated as in free fall.
	freeFallGravitySquared = 0.01 * standardGravity * standardGravity

	// Minimum |E x A| before normalisation; smaller means gravity and the
	// field are (nearly) collinear.
	minHorizontalNorm = 0.1
)

// RotationMatrix computes the rotation matrix R transforming device
// coordinates to world coordinates (x east, y magnetic north, z up) and the
// inclination matrix I rotating the magnetic field vector into the same
// frame. ok is false for degenerate input: free fall, or a magnetic field
// parallel to gravity.
func RotationMatrix(gravity, geomagnetic Vector3) (r, i Matrix3, ok bool) {
	ax, ay, az := gravity[0], gravity[1], gravity[2]
	ex, ey, ez := geomagnetic[0], geomagnetic[1], geomagnetic[2]

	normsqA := ax*ax + ay*ay + az*az
	if normsqA < freeFallGravitySquared {
		return r, i, false
	}

	// H = E x A points east.
	hx := ey*az - ez*ay
	hy := ez*ax - ex*az
	hz := ex*ay - ey*ax
	normH := math.Sqrt(hx*hx + hy*hy + hz*hz)
	if normH < minHorizontalNorm {
		return r, i, false
	}
	invH := 1.0 / normH
	hx *= invH
	hy *= invH
	hz *= invH

	invA := 1.0 / math.Sqrt(normsqA)
	ax *= invA
	ay *= invA
	az *= invA

	// M = A x H points magnetic north.
	mx := ay*hz - az*hy
	my := az*hx - ax*hz
	mz := ax*hy - ay*hx

	r = Matrix3{
		hx, hy, hz,
		mx, my, mz,
		ax, ay, az,
	}

	invE := 1.0 / math.Sqrt(ex*ex+ey*ey+ez*ez)
	c := (ex*mx + ey*my + ez*mz) * invE
	s := (ex*ax + ey*ay + ez*az) * invE
	i = Matrix3{
		1, 0, 0,
		0, c, s,
		0, -s, c,
	}
	return r, i, true
}

// OrientationAngles extracts azimuth, pitch and roll (radians) from a
// rotation matrix produced by RotationMatrix. Azimuth is in [-π, π].
func OrientationAngles(r Matrix3) Pose {
	return Pose{
		Azimuth: math.Atan2(r[1], r[4]),
		Pitch:   math.Asin(-r[7]),
		Roll:    math.Atan2(-r[6], r[8]),
	}
}

// NormalizeDegrees maps any angle in degrees into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	d := math.Mod(deg+360, 360)
	if d < 0 {
		d += 360
	}
	if d >= 360 {
		d -= 360
	}
	return d
}

// AzimuthDegrees converts an azimuth in radians to degrees in [0, 360).
func AzimuthDegrees(azimuthRad float64) float64 {
	return NormalizeDegrees(azimuthRad * 180.0 / math.Pi)
}

// HeadingDegrees converts an azimuth in radians to a whole-degree heading
// in [0, 359]. Values that round up to 360 are folded onto 0.
func HeadingDegrees(azimuthRad float64) int {
	deg := int(math.Round(AzimuthDegrees(azimuthRad)))
	if deg >= 360 {
		deg -= 360
	}
	return deg
}

// Heading runs the full estimator: it decomposes the two vectors and
// returns the whole-degree heading. ok is false when the decomposition
// fails.
func Heading(gravity, geomagnetic Vector3) (heading int, pose Pose, ok bool) {
	r, _, ok := RotationMatrix(gravity, geomagnetic)
	if !ok {
		return 0, Pose{}, false
	}
	pose = OrientationAngles(r)
	return HeadingDegrees(pose.Azimuth), pose, true
}

// MagneticStrength returns the magnitude of the field vector (µT in, µT out).
func MagneticStrength(v Vector3) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}
