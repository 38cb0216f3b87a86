package pipeline

import (
	"context"
	"image"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/geomap/internal/leaflet"
)

// --- Renderer Mock ---

type mockRenderer struct {
	mock.Mock
}

func (m *mockRenderer) Render(ctx context.Context, lm *leaflet.Map) (image.Image, error) {
	args := m.Called(ctx, lm)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(image.Image), args.Error(1)
}
