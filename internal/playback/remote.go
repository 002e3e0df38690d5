package playback

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// Command ops published to browser clients.
const (
	OpSeekTo      = "seekTo"
	OpPlay        = "play"
	OpSetPosition = "setPosition"
)

// Command targets: which object on the client the op applies to.
const (
	TargetInternal = "internal"
	TargetPlayer   = "player"
	TargetElement  = "element"
)

// Command is one player instruction for the browser that mounted the surface.
type Command struct {
	Op      string `json:"op"`
	Target  string `json:"target"`
	Seconds int    `json:"seconds"`
}

// Hub fans commands out to subscribers. Publish never blocks: a subscriber
// whose buffer is full misses the command.
type Hub struct {
	mu     sync.Mutex
	next   int
	subs   map[int]chan Command
	closed bool
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan Command)}
}

// Subscribe registers a subscriber with the given buffer size. The returned
// cancel func unregisters it and closes the channel. Subscribing to a closed
// hub yields an already-closed channel.
func (h *Hub) Subscribe(buffer int) (<-chan Command, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Command, buffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	id := h.next
	h.next++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(c)
			}
		})
	}
}

// Publish delivers c to every subscriber that has room.
func (h *Hub) Publish(c Command) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- c:
		default:
		}
	}
}

// Subscribers returns the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close closes every subscriber channel; later Publish calls are no-ops.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

// remote is a capability backed by a Hub.
type remote struct {
	hub    *Hub
	target string
}

func (r remote) SeekTo(seconds int) {
	r.hub.Publish(Command{Op: OpSeekTo, Target: r.target, Seconds: seconds})
}

func (r remote) SetPosition(seconds int) {
	r.hub.Publish(Command{Op: OpSetPosition, Target: r.target, Seconds: seconds})
}

// playableRemote adds Play to remote.
type playableRemote struct {
	remote
}

func (p playableRemote) Play() {
	p.hub.Publish(Command{Op: OpPlay, Target: p.target})
}

// Surface is the kind of player a client reports as mounted.
type Surface string

const (
	SurfaceEmbedded Surface = "embedded"
	SurfaceGeneric  Surface = "generic"
	SurfaceNative   Surface = "native"
	SurfaceNone     Surface = "none"
)

// ErrUnknownSurface is returned by Descriptor.Validate.
var ErrUnknownSurface = errors.New("unknown player surface")

// Descriptor is what a client registers for the player it mounted.
// Play reports whether the surface has a play control; generic players
// ignore it.
type Descriptor struct {
	Surface Surface `json:"surface"`
	Play    bool    `json:"play"`
}

// Validate checks the surface name.
func (d Descriptor) Validate() error {
	switch d.Surface {
	case SurfaceEmbedded, SurfaceGeneric, SurfaceNative, SurfaceNone:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownSurface, d.Surface)
}

// Mount builds the Player for d whose capabilities publish to hub.
func Mount(d Descriptor, hub *Hub) Player {
	if hub == nil {
		return NoPlayer{}
	}
	switch d.Surface {
	case SurfaceEmbedded:
		r := remote{hub: hub, target: TargetInternal}
		if d.Play {
			return EmbeddedStreamPlayer{Internal: playableRemote{r}}
		}
		return EmbeddedStreamPlayer{Internal: r}
	case SurfaceGeneric:
		return GenericSeekablePlayer{Seeker: remote{hub: hub, target: TargetPlayer}}
	case SurfaceNative:
		r := remote{hub: hub, target: TargetElement}
		if d.Play {
			return NativeMediaElement{Element: playableRemote{r}}
		}
		return NativeMediaElement{Element: r}
	default:
		return NoPlayer{}
	}
}

// DefaultDescriptor guesses the surface a client mounts for a source: a
// native element for local files, the embedded backend for YouTube, and a
// generic embeddable player for other URLs.
func DefaultDescriptor(local bool, reference string) Descriptor {
	if local {
		return Descriptor{Surface: SurfaceNative, Play: true}
	}
	if reference == "" {
		return Descriptor{Surface: SurfaceNone}
	}
	if isYouTube(reference) {
		return Descriptor{Surface: SurfaceEmbedded, Play: true}
	}
	return Descriptor{Surface: SurfaceGeneric}
}

func isYouTube(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch host {
	case "youtube.com", "m.youtube.com", "music.youtube.com", "youtu.be", "youtube-nocookie.com":
		return true
	}
	return false
}
