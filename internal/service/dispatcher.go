package service

import (
	"context"
	"errors"
	"fmt"

	"parking_finder/internal/domain"
	"parking_finder/internal/viewmodel"
)

var ErrUnknownIntent = errors.New("unknown intent action")

// Dispatch routes a selection coming from any presentation target by id and action.
func (s *FinderService) Dispatch(ctx context.Context, in domain.Intent) (domain.IntentResult, error) {
	res := domain.IntentResult{Action: in.Action, ID: in.ID}
	switch in.Action {
	case domain.IntentDetails:
		spot, err := s.store.FindByID(ctx, in.ID)
		if err != nil {
			return res, err
		}
		var ref *domain.Coordinates
		if loc := s.store.UserLocation(); loc != nil {
			ref = &loc.Coordinates
		}
		detail := s.builder.Detail(*spot, ref)
		res.Detail = &detail
	case domain.IntentSelect:
		spot, err := s.store.FindByID(ctx, in.ID)
		if err != nil {
			return res, err
		}
		markers := viewmodel.Markers([]domain.SpotView{s.builder.View(*spot, nil)})
		if len(markers) == 1 {
			res.Marker = &markers[0]
		}
	case domain.IntentDelete:
		removed, err := s.DeleteSpot(ctx, in.ID)
		if err != nil {
			return res, err
		}
		res.Deleted = removed
	default:
		return res, fmt.Errorf("%w: %q", ErrUnknownIntent, in.Action)
	}
	return res, nil
}
