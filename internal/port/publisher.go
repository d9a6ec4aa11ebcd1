package port

import "context"

type Publisher interface {
	Publish(ctx context.Context, subject string, payload []byte) error
}
