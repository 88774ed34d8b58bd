// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package wcs

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Parameters of a celestial world coordinate system. Angles in degrees.
// Reference: Calabretta & Greisen 2002, "Representations of celestial coordinates in FITS"
type CelestialParams struct {
	Width   int        // Image width in pixels, 0 if unknown
	Height  int        // Image height in pixels, 0 if unknown
	Proj    string     // Projection code, one of TAN, SIN or CAR
	CRPix   [2]float64 // Reference pixel, one-based as in FITS
	CRVal   [2]float64 // World coordinates of the reference pixel, in header axis order
	CD      *mat.Dense // 2x2 linear transformation from pixel offsets to intermediate world coordinates
	LonAxis int        // 0 if the first axis is longitude, 1 if the axes are swapped
	LonPole float64    // Native longitude of the celestial pole, NaN for the default
	LatPole float64    // Celestial latitude of the native pole, NaN for the default
}

// A celestial world coordinate system with a spherical projection
type Celestial struct {
	Width   int
	Height  int
	Proj    string
	LonAxis int

	crpix  [2]float64
	cd     [4]float64 // row-major
	cdInv  [4]float64 // row-major
	alphaP float64    // celestial coordinates of the native pole
	deltaP float64
	phiP   float64 // native longitude of the celestial pole
}

const d2r = math.Pi / 180
const r2d = 180 / math.Pi

// Creates a celestial mapping from the given parameters
func NewCelestial(p CelestialParams) (*Celestial, error) {
	var theta0 float64
	switch p.Proj {
	case "TAN", "SIN":
		theta0 = 90
	case "CAR":
		theta0 = 0
	default:
		return nil, fmt.Errorf("unsupported projection '%s'", p.Proj)
	}
	if p.LonAxis != 0 && p.LonAxis != 1 {
		return nil, fmt.Errorf("invalid longitude axis %d", p.LonAxis)
	}
	if p.CD == nil {
		return nil, errors.New("missing CD matrix")
	}
	if r, c := p.CD.Dims(); r != 2 || c != 2 {
		return nil, fmt.Errorf("CD matrix is %dx%d, want 2x2", r, c)
	}
	var inv mat.Dense
	if err := inv.Inverse(p.CD); err != nil {
		return nil, fmt.Errorf("CD matrix cannot be inverted: %w", err)
	}

	alpha0, delta0 := p.CRVal[p.LonAxis], p.CRVal[1-p.LonAxis]
	phiP := p.LonPole
	if math.IsNaN(phiP) {
		if delta0 >= theta0 {
			phiP = 0
		} else {
			phiP = 180
		}
	}
	thetaP := p.LatPole
	if math.IsNaN(thetaP) {
		thetaP = 90
	}
	alphaP, deltaP, err := celestialPole(alpha0, delta0, 0, theta0, phiP, thetaP)
	if err != nil {
		return nil, err
	}

	return &Celestial{
		Width:   p.Width,
		Height:  p.Height,
		Proj:    p.Proj,
		LonAxis: p.LonAxis,
		crpix:   p.CRPix,
		cd:      [4]float64{p.CD.At(0, 0), p.CD.At(0, 1), p.CD.At(1, 0), p.CD.At(1, 1)},
		cdInv:   [4]float64{inv.At(0, 0), inv.At(0, 1), inv.At(1, 0), inv.At(1, 1)},
		alphaP:  alphaP,
		deltaP:  deltaP,
		phiP:    phiP,
	}, nil
}

func (m *Celestial) PixelShape() (width, height int) {
	return m.Width, m.Height
}

func (m *Celestial) Resolve(key string) (Mapping, error) {
	return m, nil
}

func (m *Celestial) String() string {
	return fmt.Sprintf("%s %dx%d pole (%.6g, %.6g)", m.Proj, m.Width, m.Height, m.alphaP, m.deltaP)
}

// Cylindrical projections wrap around once per full turn of native longitude.
// Zero unless longitude runs along pixel x only.
func (m *Celestial) XPeriod() float64 {
	if m.Proj != "CAR" {
		return 0
	}
	dx, dy := 360*m.cdInv[m.LonAxis], 360*m.cdInv[2+m.LonAxis]
	if dx == 0 || math.Abs(dy) > 1e-9*math.Abs(dx) {
		return 0
	}
	return math.Abs(dx)
}

func (m *Celestial) PixelToWorld(xs, ys []float64) (lon, lat []float64) {
	lon, lat = make([]float64, len(xs)), make([]float64, len(xs))
	for i := range xs {
		px, py := xs[i]+1-m.crpix[0], ys[i]+1-m.crpix[1]
		ix, iy := m.cd[0]*px+m.cd[1]*py, m.cd[2]*px+m.cd[3]*py
		if m.LonAxis == 1 {
			ix, iy = iy, ix
		}
		phi, theta := m.deproject(ix, iy)
		lon[i], lat[i] = m.nativeToCelestial(phi, theta)
	}
	return lon, lat
}

func (m *Celestial) WorldToPixel(lon, lat []float64) (xs, ys []float64) {
	xs, ys = make([]float64, len(lon)), make([]float64, len(lon))
	for i := range lon {
		phi, theta := m.celestialToNative(lon[i], lat[i])
		ix, iy := m.project(phi, theta)
		if m.LonAxis == 1 {
			ix, iy = iy, ix
		}
		px, py := m.cdInv[0]*ix+m.cdInv[1]*iy, m.cdInv[2]*ix+m.cdInv[3]*iy
		xs[i], ys[i] = px+m.crpix[0]-1, py+m.crpix[1]-1
	}
	return xs, ys
}

// Intermediate world coordinates to native spherical coordinates. NaN outside the valid domain
func (m *Celestial) deproject(x, y float64) (phi, theta float64) {
	switch m.Proj {
	case "TAN":
		r := math.Hypot(x, y)
		return atan2d(x, -y), atan2d(r2d, r)
	case "SIN":
		r := math.Hypot(x, y)
		if r > r2d {
			return math.NaN(), math.NaN()
		}
		return atan2d(x, -y), acosd(r / r2d)
	default: // CAR
		if y < -90 || y > 90 {
			return math.NaN(), math.NaN()
		}
		return x, y
	}
}

// Native spherical coordinates to intermediate world coordinates. NaN outside the valid domain
func (m *Celestial) project(phi, theta float64) (x, y float64) {
	switch m.Proj {
	case "TAN":
		if theta <= 0 {
			return math.NaN(), math.NaN()
		}
		r := r2d / math.Tan(theta*d2r)
		return r * sind(phi), -r * cosd(phi)
	case "SIN":
		if theta < 0 {
			return math.NaN(), math.NaN()
		}
		r := r2d * cosd(theta)
		return r * sind(phi), -r * cosd(phi)
	default: // CAR
		return wrap180(phi), theta
	}
}

func (m *Celestial) nativeToCelestial(phi, theta float64) (alpha, delta float64) {
	if math.IsNaN(phi) || math.IsNaN(theta) {
		return math.NaN(), math.NaN()
	}
	dphi := phi - m.phiP
	x := sind(theta)*cosd(m.deltaP) - cosd(theta)*sind(m.deltaP)*cosd(dphi)
	y := -cosd(theta) * sind(dphi)
	alpha = wrap360(m.alphaP + atan2d(y, x))
	delta = asind(sind(theta)*sind(m.deltaP) + cosd(theta)*cosd(m.deltaP)*cosd(dphi))
	return alpha, delta
}

func (m *Celestial) celestialToNative(alpha, delta float64) (phi, theta float64) {
	if math.IsNaN(alpha) || math.IsNaN(delta) || delta < -90 || delta > 90 {
		return math.NaN(), math.NaN()
	}
	dalpha := alpha - m.alphaP
	x := sind(delta)*cosd(m.deltaP) - cosd(delta)*sind(m.deltaP)*cosd(dalpha)
	y := -cosd(delta) * sind(dalpha)
	phi = m.phiP + atan2d(y, x)
	theta = asind(sind(delta)*sind(m.deltaP) + cosd(delta)*cosd(m.deltaP)*cosd(dalpha))
	return phi, theta
}

// Computes the celestial coordinates of the native pole from the reference point
// (alpha0, delta0) at native (phi0, theta0), and the native longitude phiP of the
// celestial pole. Of two valid solutions, picks the one closer to thetaP. Follows wcslib.
func celestialPole(alpha0, delta0, phi0, theta0, phiP, thetaP float64) (alphaP, deltaP float64, err error) {
	if theta0 == 90 {
		return alpha0, delta0, nil
	}
	const tol = 1e-10

	slat0, clat0 := sind(delta0), cosd(delta0)
	sthe0, cthe0 := sind(theta0), cosd(theta0)

	var sphip, u, v float64
	deltaP = thetaP
	solve := true
	if phiP == phi0 {
		sphip = 0
		u, v = theta0, 90-delta0
	} else {
		sphip = sind(phiP - phi0)
		x, y := cthe0*cosd(phiP-phi0), sthe0
		z := math.Hypot(x, y)
		if z == 0 {
			if slat0 != 0 {
				return 0, 0, errors.New("invalid celestial pole: LONPOLE inconsistent with reference point")
			}
			solve = false // deltaP determined by LATPOLE alone
		} else {
			if math.Abs(slat0/z) > 1 {
				return 0, 0, errors.New("invalid celestial pole: reference point unreachable")
			}
			u, v = atan2d(y, x), acosd(slat0/z)
		}
	}

	if solve {
		latp1, latp2 := wrap180Closed(u+v), wrap180Closed(u-v)
		if math.Abs(thetaP-latp1) < math.Abs(thetaP-latp2) {
			if math.Abs(latp1) < 90+tol {
				deltaP = latp1
			} else {
				deltaP = latp2
			}
		} else {
			if math.Abs(latp2) < 90+tol {
				deltaP = latp2
			} else {
				deltaP = latp1
			}
		}
	}

	z := cosd(deltaP) * clat0
	if math.Abs(z) < tol {
		if math.Abs(clat0) < tol {
			alphaP = alpha0 // celestial pole at the reference point
		} else if deltaP > 0 {
			alphaP = alpha0 + phiP - phi0 - 180 // celestial north pole at the native pole
		} else {
			alphaP = alpha0 - phiP + phi0 // celestial south pole at the native pole
		}
	} else {
		x := (sthe0 - sind(deltaP)*slat0) / z
		y := sphip * cthe0 / clat0
		if x == 0 && y == 0 {
			return 0, 0, errors.New("invalid celestial pole: undefined longitude")
		}
		alphaP = alpha0 - atan2d(y, x)
	}

	// same sign convention as the reference point
	if alpha0 >= 0 {
		if alphaP < 0 {
			alphaP += 360
		} else if alphaP > 360 {
			alphaP -= 360
		}
	} else {
		if alphaP > 0 {
			alphaP -= 360
		} else if alphaP < -360 {
			alphaP += 360
		}
	}
	return alphaP, deltaP, nil
}

func sind(a float64) float64 { return math.Sin(a * d2r) }
func cosd(a float64) float64 { return math.Cos(a * d2r) }

func atan2d(y, x float64) float64 { return math.Atan2(y, x) * r2d }

func asind(v float64) float64 { return math.Asin(clamp1(v)) * r2d }
func acosd(v float64) float64 { return math.Acos(clamp1(v)) * r2d }

// clamps rounding errors into the domain of asin and acos
func clamp1(v float64) float64 {
	if v > 1 {
		return 1
	} else if v < -1 {
		return -1
	}
	return v
}

// wraps an angle into [0,360)
func wrap360(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a -= 360
	}
	return a
}

// wraps an angle into [-180,180)
func wrap180(a float64) float64 {
	return wrap360(a+180) - 180
}

// wraps an angle into [-180,180], keeping both ends
func wrap180Closed(a float64) float64 {
	if a > 180 {
		return a - 360
	} else if a < -180 {
		return a + 360
	}
	return a
}
