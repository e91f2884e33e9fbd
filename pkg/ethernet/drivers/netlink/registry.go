// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package netlink

import (
	"context"
	"net/netip"
	"os"
	"sync"

	"github.com/stratastor/ethman/internal/command"
	"github.com/stratastor/ethman/pkg/errors"
	"github.com/stratastor/ethman/pkg/ethernet"
	"github.com/stratastor/logger"
)

// Registry exposes the driver's interface through the controller's
// registry contract, backed by hostnamectl and resolvectl.
type Registry struct {
	log   logger.Logger
	iface string

	mu  sync.Mutex
	dns map[ethernet.DNSSlot]netip.Addr
}

// NewRegistry creates a registry for the named interface.
func NewRegistry(iface string, l logger.Logger) *Registry {
	return &Registry{
		log:   l,
		iface: iface,
		dns:   make(map[ethernet.DNSSlot]netip.Addr),
	}
}

func (r *Registry) LookupByKey(key string) (ethernet.Netif, bool) {
	if key != ethernet.NetifKeyDefault {
		return nil, false
	}
	return (*registryNetif)(r), true
}

type registryNetif Registry

func (n *registryNetif) SetHostname(name string) error {
	if _, err := command.ExecCommand(context.Background(), n.log,
		"hostnamectl", "set-hostname", name); err != nil {
		return errors.Wrap(err, errors.EthNetifError).WithMetadata("hostname", name)
	}
	return nil
}

func (n *registryNetif) Hostname() (string, error) {
	name, err := os.Hostname()
	if err != nil {
		return "", errors.Wrap(err, errors.EthNetifError)
	}
	return name, nil
}

// SetDNS records the slot assignment and pushes the full resolver list
// for the interface; resolvectl replaces rather than appends, so both
// slots are written together.
func (n *registryNetif) SetDNS(slot ethernet.DNSSlot, addr netip.Addr) error {
	if !addr.IsValid() {
		return errors.New(errors.EthInvalidParameter, "invalid dns address")
	}

	n.mu.Lock()
	n.dns[slot] = addr
	args := []string{"dns", n.iface}
	if main, ok := n.dns[ethernet.DNSMain]; ok {
		args = append(args, main.String())
	}
	if backup, ok := n.dns[ethernet.DNSBackup]; ok {
		args = append(args, backup.String())
	}
	n.mu.Unlock()

	if _, err := command.ExecCommand(context.Background(), n.log, "resolvectl", args...); err != nil {
		return errors.Wrap(err, errors.EthNetifError).WithMetadata("interface", n.iface)
	}
	return nil
}
