package playback

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// recorder implements every capability and logs calls.
type recorder struct {
	calls []string
	pos   int
}

func (r *recorder) SeekTo(s int) {
	r.calls = append(r.calls, "seekTo")
	r.pos = s
}

func (r *recorder) SetPosition(s int) {
	r.calls = append(r.calls, "setPosition")
	r.pos = s
}

func (r *recorder) Play() { r.calls = append(r.calls, "play") }

// seekOnly has SeekTo and no Play.
type seekOnly struct{ r *recorder }

func (s seekOnly) SeekTo(n int) { s.r.SeekTo(n) }

// positionOnly has SetPosition and no Play.
type positionOnly struct{ r *recorder }

func (p positionOnly) SetPosition(n int) { p.r.SetPosition(n) }

func mountedAs(p Player) func() Player { return func() Player { return p } }

func TestSynchronizer_Seek_embedded(t *testing.T) {
	rec := &recorder{}
	s := NewSynchronizer(mountedAs(EmbeddedStreamPlayer{Internal: rec}), nil)

	assert.Equal(t, RouteEmbedded, s.Seek(42))
	assert.Equal(t, []string{"seekTo", "play"}, rec.calls)
	assert.Equal(t, 42, rec.pos)
}

func TestSynchronizer_Seek_embedded_without_play(t *testing.T) {
	rec := &recorder{}
	s := NewSynchronizer(mountedAs(EmbeddedStreamPlayer{Internal: seekOnly{rec}}), nil)

	assert.Equal(t, RouteEmbedded, s.Seek(7))
	assert.Equal(t, []string{"seekTo"}, rec.calls)
}

func TestSynchronizer_Seek_generic_never_plays(t *testing.T) {
	rec := &recorder{}
	s := NewSynchronizer(mountedAs(GenericSeekablePlayer{Seeker: rec}), nil)

	assert.Equal(t, RouteGeneric, s.Seek(9))
	assert.Equal(t, []string{"seekTo"}, rec.calls, "generic SeekTo resumes by itself")
}

func TestSynchronizer_Seek_native_position_only(t *testing.T) {
	t.Run("with_play", func(t *testing.T) {
		rec := &recorder{}
		s := NewSynchronizer(mountedAs(NativeMediaElement{Element: rec}), nil)

		assert.Equal(t, RouteNative, s.Seek(125))
		assert.Equal(t, 125, rec.pos)
		assert.Equal(t, []string{"setPosition", "play"}, rec.calls)
	})

	t.Run("without_play", func(t *testing.T) {
		rec := &recorder{}
		s := NewSynchronizer(mountedAs(&NativeMediaElement{Element: positionOnly{rec}}), nil)

		assert.Equal(t, RouteNative, s.Seek(125))
		assert.Equal(t, 125, rec.pos)
		assert.Equal(t, []string{"setPosition"}, rec.calls)
	})
}

func TestSynchronizer_Seek_noop(t *testing.T) {
	tests := []struct {
		name  string
		mount func() Player
	}{
		{"nil mount func", nil},
		{"mount returns nil", func() Player { return nil }},
		{"no player", mountedAs(NoPlayer{})},
		{"embedded sub-player not ready", mountedAs(EmbeddedStreamPlayer{})},
		{"generic without seeker", mountedAs(GenericSeekablePlayer{})},
		{"native without element", mountedAs(NativeMediaElement{})},
		{"typed nil pointer", mountedAs((*GenericSeekablePlayer)(nil))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, RouteNone, NewSynchronizer(tt.mount, nil).Seek(3))
		})
	}
}

func TestSynchronizer_rereads_mount_each_call(t *testing.T) {
	embedded := &recorder{}
	native := &recorder{}
	var current Player = EmbeddedStreamPlayer{Internal: embedded}
	s := NewSynchronizer(func() Player { return current }, nil)

	assert.Equal(t, RouteEmbedded, s.Seek(1))

	current = NativeMediaElement{Element: native}
	assert.Equal(t, RouteNative, s.Seek(2))

	current = NoPlayer{}
	assert.Equal(t, RouteNone, s.Seek(3))

	assert.Equal(t, []string{"seekTo", "play"}, embedded.calls)
	assert.Equal(t, []string{"setPosition", "play"}, native.calls)
	assert.Equal(t, 2, native.pos)
}
