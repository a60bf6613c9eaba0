package service

import (
	"context"
	"encoding/json"
	"errors"

	"parking_finder/internal/logger"
	"parking_finder/internal/source"
)

// s3Event is the part of an S3 event notification worth logging.
type s3Event struct {
	Records []struct {
		EventName string `json:"eventName"`
		S3        struct {
			Object struct {
				Key string `json:"key"`
			} `json:"object"`
		} `json:"s3"`
	} `json:"Records"`
}

// HandleReloadEvent reloads the collection for any change event. Malformed data is not retried:
// the error frame is already published and a redelivery would fail the same way.
func (s *FinderService) HandleReloadEvent(ctx context.Context, body string) error {
	var ev s3Event
	if err := json.Unmarshal([]byte(body), &ev); err == nil {
		for _, r := range ev.Records {
			logger.L().Info("reload_event", "event", r.EventName, "key", r.S3.Object.Key)
		}
	}

	_, err := s.Load(ctx)
	switch {
	case err == nil, errors.Is(err, ErrSuperseded), errors.Is(err, source.ErrDataFormat):
		return nil
	default:
		return err
	}
}
