package usage

import "errors"

var (
	// ErrFeed is returned when the observation feed cannot be queried.
	ErrFeed = errors.New("usage: feed query failed")

	// ErrStore is returned when the settings store cannot be read or written.
	ErrStore = errors.New("usage: settings store failed")

	// ErrInvalidSettings is returned for non-positive goals or thresholds.
	ErrInvalidSettings = errors.New("usage: invalid settings")

	// ErrNotDelivered is returned by notifiers that record an intervention
	// without delivering it.
	ErrNotDelivered = errors.New("usage: notification not delivered")
)
