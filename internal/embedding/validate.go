package embedding

import (
	"fmt"
	"math"
)

// MalformedResponseError reports a response that cannot be plotted
type MalformedResponseError struct {
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return "malformed embedding response: " + e.Reason
}

// Validate checks the response shape before it reaches the renderer:
// matching lengths and three finite coordinates per point.
func (r *Response) Validate() error {
	if r == nil {
		return &MalformedResponseError{Reason: "empty response"}
	}
	if len(r.ReducedEmbeddings) != len(r.Labels) {
		return &MalformedResponseError{
			Reason: fmt.Sprintf("%d points but %d labels", len(r.ReducedEmbeddings), len(r.Labels)),
		}
	}
	for i, coords := range r.ReducedEmbeddings {
		if len(coords) != 3 {
			return &MalformedResponseError{
				Reason: fmt.Sprintf("point %d has %d coordinates, want 3", i, len(coords)),
			}
		}
		for _, v := range coords {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return &MalformedResponseError{
					Reason: fmt.Sprintf("point %d has a non-finite coordinate", i),
				}
			}
		}
	}
	return nil
}

// Points returns the coordinates as fixed-size points. Call Validate first.
func (r *Response) Points() [][3]float64 {
	points := make([][3]float64, len(r.ReducedEmbeddings))
	for i, coords := range r.ReducedEmbeddings {
		copy(points[i][:], coords)
	}
	return points
}
