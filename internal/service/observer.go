package service

import "context"

// Event names reported to an Observer
const (
	EventMappingCreated = "mapping_created"
	EventMappingDeleted = "mapping_deleted"
	EventHitRecorded    = "hit_recorded"
)

// Observer receives named events from the MappingService
type Observer interface {
	Record(ctx context.Context, event string)
}

type nopObserver struct{}

func (nopObserver) Record(context.Context, string) {}
