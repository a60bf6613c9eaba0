package metrics

import "parking_finder/internal/domain"

// FrameTarget mirrors each published frame into gauges.
type FrameTarget struct{}

func (FrameTarget) SetData(frame domain.Frame) {
	FrameMarkers.Set(float64(len(frame.Markers)))
	FrameCards.Set(float64(len(frame.Cards)))
	FrameVersion.Set(float64(frame.Version))
}
