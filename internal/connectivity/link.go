package connectivity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// DefaultAPIP is the address clients reach the setup access point on
const DefaultAPIP = "192.168.4.1"

// HostLink watches a network interface managed by the host OS. Joining and
// hosting the access point are delegated to the OS network stack, so Begin
// and StartAP only log the request.
type HostLink struct {
	iface string
	apIP  string
	log   zerolog.Logger
}

// NewHostLink watches the interface named iface. An empty name accepts any
// non-loopback interface that is up.
func NewHostLink(iface string, log zerolog.Logger) *HostLink {
	return &HostLink{iface: iface, apIP: DefaultAPIP, log: log}
}

func (l *HostLink) Begin(ssid, password string) error {
	l.log.Debug().Str("ssid", ssid).Str("iface", l.iface).Msg("join delegated to host network stack")
	return nil
}

func (l *HostLink) StartAP(ssid string) error {
	l.log.Debug().Str("ssid", ssid).Str("iface", l.iface).Msg("access point delegated to host network stack")
	return nil
}

// Connected reports whether the interface is up with a routable address
func (l *HostLink) Connected() bool {
	return l.LocalIP() != ""
}

// LocalIP returns the first IPv4 address of the watched interface, or ""
func (l *HostLink) LocalIP() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return ""
	}
	for _, ifc := range ifaces {
		if ifc.Flags&net.FlagUp == 0 || ifc.Flags&net.FlagLoopback != 0 {
			continue
		}
		if l.iface != "" && ifc.Name != l.iface {
			continue
		}
		addrs, err := ifc.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipnet, ok := a.(*net.IPNet)
			if !ok || ipnet.IP.IsLoopback() {
				continue
			}
			if ip4 := ipnet.IP.To4(); ip4 != nil {
				return ip4.String()
			}
		}
	}
	return ""
}

func (l *HostLink) APIP() string {
	return l.apIP
}

// ManualLink is a link whose state is set by hand. The simulator toggles it
// from the keyboard and tests drive it directly.
type ManualLink struct {
	up       atomic.Bool
	joinUp   bool
	apActive atomic.Bool
	ip       string
}

// NewManualLink returns a link that comes up on Begin when joinSucceeds
func NewManualLink(joinSucceeds bool) *ManualLink {
	return &ManualLink{joinUp: joinSucceeds, ip: "10.0.0.42"}
}

func (l *ManualLink) Begin(ssid, password string) error {
	if ssid == "" {
		return errors.New("empty ssid")
	}
	l.apActive.Store(false)
	l.up.Store(l.joinUp)
	return nil
}

func (l *ManualLink) StartAP(ssid string) error {
	l.up.Store(false)
	l.apActive.Store(true)
	return nil
}

func (l *ManualLink) Connected() bool { return l.up.Load() }

// SetUp forces the link state
func (l *ManualLink) SetUp(up bool) { l.up.Store(up) }

// Toggle flips the link state and returns the new one
func (l *ManualLink) Toggle() bool {
	for {
		cur := l.up.Load()
		if l.up.CompareAndSwap(cur, !cur) {
			return !cur
		}
	}
}

// APActive reports whether StartAP was called since the last Begin
func (l *ManualLink) APActive() bool { return l.apActive.Load() }

func (l *ManualLink) LocalIP() string {
	if !l.up.Load() {
		return ""
	}
	return l.ip
}

func (l *ManualLink) APIP() string { return DefaultAPIP }

// HTTPProber checks reachability with a GET request. Any HTTP response
// counts as reachable.
type HTTPProber struct {
	url    string
	client *http.Client
}

// NewHTTPProber creates a prober for url with the given request timeout
func NewHTTPProber(url string, timeout time.Duration) *HTTPProber {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPProber{url: url, client: &http.Client{Timeout: timeout}}
}

func (p *HTTPProber) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return fmt.Errorf("failed to create probe request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("probe %s: %w", p.url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	return nil
}
