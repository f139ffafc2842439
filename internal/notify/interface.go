package notify

import (
	"context"

	"github.com/CosmoTheDev/glwatch/models"
)

// Channel is implemented by each notification provider.
type Channel interface {
	Name() string
	IsConfigured() bool
	Send(ctx context.Context, evt models.Event) error
}
