package playback

import (
	"log/slog"
)

// Route names the capability a seek was dispatched to.
type Route string

const (
	RouteEmbedded Route = "embedded"
	RouteGeneric  Route = "generic"
	RouteNative   Route = "native"
	RouteNone     Route = "none"
)

// Synchronizer dispatches seeks to the live player returned by its mount
// function. The player is read again on every Seek.
type Synchronizer struct {
	mounted func() Player
	log     *slog.Logger
}

// NewSynchronizer returns a Synchronizer reading the current player from mounted.
// log may be nil.
func NewSynchronizer(mounted func() Player, log *slog.Logger) *Synchronizer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Synchronizer{mounted: mounted, log: log}
}

// Seek jumps playback to seconds and reports the route taken. Priority:
//  1. embedded sub-player: SeekTo, then Play if it has one
//  2. generic player: SeekTo only
//  3. native element: SetPosition, then Play if it has one
//
// With nothing usable mounted Seek does nothing and returns RouteNone.
func (s *Synchronizer) Seek(seconds int) Route {
	var p Player = NoPlayer{}
	if s.mounted != nil {
		if m := s.mounted(); m != nil {
			p = m
		}
	}

	route := dispatch(p, seconds)
	s.log.Debug("seek dispatched", slog.Int("seconds", seconds), slog.String("route", string(route)))
	return route
}

func dispatch(p Player, seconds int) Route {
	switch p := p.(type) {
	case EmbeddedStreamPlayer:
		if p.Internal != nil {
			p.Internal.SeekTo(seconds)
			if r, ok := p.Internal.(Resumer); ok {
				r.Play()
			}
			return RouteEmbedded
		}
	case *EmbeddedStreamPlayer:
		if p != nil {
			return dispatch(*p, seconds)
		}
	case GenericSeekablePlayer:
		if p.Seeker != nil {
			p.Seeker.SeekTo(seconds)
			return RouteGeneric
		}
	case *GenericSeekablePlayer:
		if p != nil {
			return dispatch(*p, seconds)
		}
	case NativeMediaElement:
		if p.Element != nil {
			p.Element.SetPosition(seconds)
			if r, ok := p.Element.(Resumer); ok {
				r.Play()
			}
			return RouteNative
		}
	case *NativeMediaElement:
		if p != nil {
			return dispatch(*p, seconds)
		}
	}
	return RouteNone
}
