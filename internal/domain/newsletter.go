package domain

import "context"

type SubscriberRepository interface {
	// Subscribe records an email address. Subscribing an address twice is
	// not an error and leaves a single record.
	Subscribe(ctx context.Context, email string) error
}
