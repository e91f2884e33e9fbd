// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package sim

import (
	"net/netip"
	"sync"

	"github.com/stratastor/ethman/pkg/ethernet"
)

// Registry is an in-memory ethernet.NetifRegistry with a single
// pre-registered default interface.
type Registry struct {
	mu     sync.Mutex
	netifs map[string]*netif
}

type netif struct {
	mu       sync.Mutex
	hostname string
	dns      map[ethernet.DNSSlot]netip.Addr
}

// NewRegistry creates a registry holding the default interface key.
func NewRegistry() *Registry {
	return &Registry{
		netifs: map[string]*netif{
			ethernet.NetifKeyDefault: {dns: make(map[ethernet.DNSSlot]netip.Addr)},
		},
	}
}

func (r *Registry) LookupByKey(key string) (ethernet.Netif, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.netifs[key]
	return n, ok
}

// DNS returns the resolver programmed into the given slot of the
// default interface, for assertions.
func (r *Registry) DNS(slot ethernet.DNSSlot) netip.Addr {
	r.mu.Lock()
	n := r.netifs[ethernet.NetifKeyDefault]
	r.mu.Unlock()

	n.mu.Lock()
	defer n.mu.Unlock()
	return n.dns[slot]
}

func (n *netif) SetHostname(name string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.hostname = name
	return nil
}

func (n *netif) Hostname() (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.hostname, nil
}

func (n *netif) SetDNS(slot ethernet.DNSSlot, addr netip.Addr) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dns[slot] = addr
	return nil
}
