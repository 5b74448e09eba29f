// Package discover implements the network-discovery collaborator
// (spec §1, §6): a LAN scanner that finds peers running the NETTF
// receiver. Full ARP/ICMP discovery needs raw sockets and elevated
// privileges; this package instead sweeps the local /24 with plain
// TCP connect probes against the NETTF port, which needs no special
// privileges and is the portable subset of the contract.
package discover

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/nettf/nettf/internal/netio"
)

// Peer is a host that answered a connect probe on the NETTF port.
type Peer struct {
	IP      string
	Latency time.Duration
}

// Scan probes every host in the /24 containing a local IPv4 address,
// returning the ones that accept a TCP connection on netio.DefaultPort
// within timeout. It probes concurrently and tolerates individual
// dial failures (a closed port is the overwhelmingly common, and
// entirely expected, outcome).
func Scan(ctx context.Context, timeout time.Duration) ([]Peer, error) {
	localNet, err := localIPv4Net()
	if err != nil {
		return nil, err
	}

	hosts := hostsInNet(localNet)
	results := make(chan Peer, len(hosts))
	var wg sync.WaitGroup
	for _, ip := range hosts {
		wg.Add(1)
		go func(ip string) {
			defer wg.Done()
			probe(ctx, ip, timeout, results)
		}(ip)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var peers []Peer
	for p := range results {
		peers = append(peers, p)
	}
	return peers, nil
}

func probe(ctx context.Context, ip string, timeout time.Duration, out chan<- Peer) {
	dctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	start := time.Now()
	conn, err := netio.Dial(dctx, fmt.Sprintf("%s:%d", ip, netio.DefaultPort))
	if err != nil {
		return
	}
	defer conn.Close()
	out <- Peer{IP: ip, Latency: time.Since(start)}
}

// localIPv4Net finds the first non-loopback IPv4 address attached to
// this host and returns the /24 containing it.
func localIPv4Net() (*net.IPNet, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, err
	}
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return &net.IPNet{IP: ip4, Mask: net.CIDRMask(24, 32)}, nil
		}
	}
	return nil, fmt.Errorf("discover: no non-loopback IPv4 interface found")
}

// hostsInNet enumerates every usable host address in n (skipping
// network and broadcast addresses for a /24 or smaller).
func hostsInNet(n *net.IPNet) []string {
	ones, bits := n.Mask.Size()
	if bits-ones > 16 {
		// Refuse to enumerate absurdly large ranges (e.g. a /8).
		ones = bits - 16
	}
	base := n.IP.Mask(n.Mask)
	count := 1 << uint(bits-ones)

	var hosts []string
	for i := 1; i < count-1; i++ {
		ip := make(net.IP, len(base))
		copy(ip, base)
		addInt(ip, i)
		hosts = append(hosts, ip.String())
	}
	return hosts
}

func addInt(ip net.IP, v int) {
	for i := len(ip) - 1; i >= 0 && v > 0; i-- {
		sum := int(ip[i]) + v
		ip[i] = byte(sum & 0xff)
		v = sum >> 8
	}
}
