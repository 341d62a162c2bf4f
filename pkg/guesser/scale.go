/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: scale.go
Description: Numeric helpers for turning detector measurements into confidences.
*/

package guesser

import "math"

// Interval is a closed numeric range. Begin may be greater than End.
type Interval struct {
	Begin, End float64
}

func (i Interval) min() float64 { return math.Min(i.Begin, i.End) }
func (i Interval) max() float64 { return math.Max(i.Begin, i.End) }

// Contains reports whether v lies within the interval
func (i Interval) Contains(v float64) bool {
	return v >= i.min() && v <= i.max()
}

// Scale transposes v from its position in from to the proportional position in
// to, clamping to the bounds of to. Inverted intervals scale inversely.
func Scale(v float64, from, to Interval) float64 {
	span := from.End - from.Begin
	if span == 0 {
		return to.Begin
	}
	scaled := (v-from.Begin)/span*(to.End-to.Begin) + to.Begin
	switch {
	case scaled < to.min():
		return to.min()
	case scaled > to.max():
		return to.max()
	}
	return scaled
}

// Round rounds v to the given number of decimal places
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
