// Package playback routes "seek to second T" requests to whichever player
// control surface is mounted for a session.
package playback

// Seeker jumps playback to an absolute offset in seconds.
type Seeker interface {
	SeekTo(seconds int)
}

// Resumer starts or resumes playback.
type Resumer interface {
	Play()
}

// PositionSetter sets the playback position field directly.
type PositionSetter interface {
	SetPosition(seconds int)
}

// Player is one of the mounted control surfaces below. The set is closed.
type Player interface {
	player()
}

// EmbeddedStreamPlayer wraps a platform sub-player (a YouTube iframe player
// for example). Internal is nil until the sub-player is ready; it may also
// implement Resumer.
type EmbeddedStreamPlayer struct {
	Internal Seeker
}

// GenericSeekablePlayer is an embeddable player whose own SeekTo resumes playback.
type GenericSeekablePlayer struct {
	Seeker Seeker
}

// NativeMediaElement is a plain media element with a settable position.
// Element may also implement Resumer.
type NativeMediaElement struct {
	Element PositionSetter
}

// NoPlayer means nothing is mounted.
type NoPlayer struct{}

func (EmbeddedStreamPlayer) player()  {}
func (GenericSeekablePlayer) player() {}
func (NativeMediaElement) player()    {}
func (NoPlayer) player()              {}
