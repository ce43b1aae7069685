package loader

import (
	"errors"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

type stubFeature struct {
	name    string
	enabled bool
	err     error
	loaded  bool
}

func (s *stubFeature) Name() string    { return s.name }
func (s *stubFeature) IsEnabled() bool { return s.enabled }
func (s *stubFeature) Load(app fiber.Router) error {
	s.loaded = true
	return s.err
}

func TestManager_LoadAll(t *testing.T) {
	t.Run("Skips Disabled", func(t *testing.T) {
		on := &stubFeature{name: "snapshot", enabled: true}
		off := &stubFeature{name: "integrity", enabled: false}

		m := NewManager()
		m.Register(on)
		m.Register(off)

		names, err := m.LoadAll(fiber.New())
		assert.NoError(t, err)
		assert.Equal(t, []string{"snapshot"}, names)
		assert.True(t, on.loaded)
		assert.False(t, off.loaded)
	})

	t.Run("Stops On Error", func(t *testing.T) {
		bad := &stubFeature{name: "fleet", enabled: true, err: errors.New("boom")}
		after := &stubFeature{name: "snapshot", enabled: true}

		m := NewManager()
		m.Register(bad)
		m.Register(after)

		_, err := m.LoadAll(fiber.New())
		assert.ErrorContains(t, err, "fleet")
		assert.False(t, after.loaded)
	})
}
