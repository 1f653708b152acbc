// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package compass

import "math"

// TrueHeading adds the declination to a magnetic heading and rounds half
// up. In compatibility mode (normalize=false) the result is not wrapped,
// so it can fall below 0 or reach 360 and above.
func TrueHeading(heading int, declination float64, normalize bool) int {
	t := int(math.Floor(float64(heading) + declination + 0.5))
	if normalize {
		t = ((t % 360) + 360) % 360
	}
	return t
}
