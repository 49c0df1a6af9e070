package overlay

import (
	"context"
	"fmt"

	"github.com/libp2p/go-libp2p"
	dht "github.com/libp2p/go-libp2p-kad-dht"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"
	"github.com/multiformats/go-multiaddr"

	"github.com/klingon-exchange/spenddag/internal/sessionconfig"
	"github.com/klingon-exchange/spenddag/pkg/logging"
)

// Join starts a libp2p host and Kademlia DHT under cfg, bootstraps the
// DHT, and connects to every reachable bootstrap peer. It returns a
// DHTStore ready to pass to a buildsession-driven dagbuild call, along
// with the underlying host and DHT for callers that need to manage their
// lifecycle (closing, reporting peer count, and so on).
func Join(ctx context.Context, cfg sessionconfig.OverlayConfig, logger *logging.Logger) (host.Host, *dht.IpfsDHT, *DHTStore, error) {
	if logger == nil {
		logger = logging.Default()
	}
	log := logger.Component("overlay")

	listenAddrs := make([]multiaddr.Multiaddr, 0, len(cfg.ListenAddrs))
	for _, addr := range cfg.ListenAddrs {
		ma, err := multiaddr.NewMultiaddr(addr)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("invalid listen address %s: %w", addr, err)
		}
		listenAddrs = append(listenAddrs, ma)
	}

	opts := []libp2p.Option{
		libp2p.ListenAddrs(listenAddrs...),
		libp2p.DefaultTransports,
		libp2p.DefaultMuxers,
		libp2p.DefaultSecurity,
	}
	if cfg.IdentityKeyFile != "" {
		priv, err := loadOrCreateIdentity(cfg.IdentityKeyFile)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("load identity: %w", err)
		}
		opts = append(opts, libp2p.Identity(priv))
	}

	h, err := libp2p.New(opts...)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create libp2p host: %w", err)
	}

	prefix := cfg.DHTProtocolPrefix
	if prefix == "" {
		prefix = Namespace
	}
	d, err := dht.New(ctx, h,
		dht.Mode(dht.ModeClient),
		dht.ProtocolPrefix(protocol.ID(prefix)),
		dht.NamespacedValidator(Namespace, Validator{}),
	)
	if err != nil {
		h.Close()
		return nil, nil, nil, fmt.Errorf("create DHT: %w", err)
	}

	if err := d.Bootstrap(ctx); err != nil {
		d.Close()
		h.Close()
		return nil, nil, nil, fmt.Errorf("bootstrap DHT: %w", err)
	}

	for _, addr := range cfg.BootstrapPeers {
		ma, err := multiaddr.NewMultiaddr(addr)
		if err != nil {
			log.Warn("invalid bootstrap address", "addr", addr, "error", err)
			continue
		}
		pi, err := peer.AddrInfoFromP2pAddr(ma)
		if err != nil {
			log.Warn("invalid bootstrap peer", "addr", addr, "error", err)
			continue
		}
		if err := h.Connect(ctx, *pi); err != nil {
			log.Warn("failed to connect to bootstrap peer", "peer", pi.ID, "error", err)
			continue
		}
		log.Info("connected to bootstrap peer", "peer", pi.ID)
	}

	return h, d, NewDHTStore(d, logger), nil
}
