package chessbuilder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/park285/immersive-chess/internal/config"
	"github.com/park285/immersive-chess/internal/luminance"
	"github.com/park285/immersive-chess/internal/msgcat"
	"github.com/park285/immersive-chess/internal/render"
	svcchess "github.com/park285/immersive-chess/internal/service/chess"
	"github.com/park285/immersive-chess/internal/store"
	"github.com/park285/immersive-chess/internal/store/archive"
	"github.com/park285/immersive-chess/internal/store/badgerstore"
	"github.com/park285/immersive-chess/internal/store/redisstore"
	"github.com/park285/immersive-chess/internal/worldlink"
)

type Deps struct {
	Service *svcchess.Service
	Client  *worldlink.Client
	Stream  *worldlink.Stream
	Store   store.Store
	// Archive is nil when ARCHIVE_DSN is unset.
	Archive *archive.Archive
}

// Close releases the stream, the store and the archive.
func (d *Deps) Close(ctx context.Context) error {
	var errs []error
	if d.Stream != nil {
		errs = append(errs, d.Stream.Close(ctx))
	}
	if d.Store != nil {
		errs = append(errs, d.Store.Close())
	}
	if d.Archive != nil {
		errs = append(errs, d.Archive.Close())
	}
	return errors.Join(errs...)
}

func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	msgs, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	mapper, err := luminance.New(cfg.BlockColorsDir)
	if err != nil {
		return nil, fmt.Errorf("load block colors: %w", err)
	}

	var headers worldlink.HeaderProvider
	if cfg.WorldToken != "" {
		headers = worldlink.BearerToken(cfg.WorldToken)
	}
	client := worldlink.NewClient(cfg.WorldBaseURL,
		worldlink.WithHeaderProvider(headers),
		worldlink.WithTimeout(cfg.WorldTimeout),
		worldlink.WithRetry(cfg.WorldRetries),
	)
	stream := worldlink.NewStream(cfg.WorldWSURL, 5, time.Second)
	stream.SetHeaderProvider(headers)
	stream.OnStateChange(func(st worldlink.StreamState) {
		logger.Info("world_stream_state", zap.String("state", string(st)))
	})
	egress := worldlink.NewEgress(cfg.EgressMode, cfg.EgressDryRun, client, stream, logger)

	deps := &Deps{Client: client, Stream: stream}
	fail := func(err error) (*Deps, error) {
		_ = deps.Close(context.Background())
		return nil, err
	}

	switch cfg.StoreBackend {
	case config.StoreRedis:
		deps.Store, err = redisstore.Open(ctx, cfg.RedisURL)
	default:
		deps.Store, err = badgerstore.Open(cfg.BadgerDir)
	}
	if err != nil {
		return fail(fmt.Errorf("open %s store: %w", cfg.StoreBackend, err))
	}

	var arc svcchess.Archiver
	if cfg.ArchiveDSN != "" {
		deps.Archive, err = archive.Open(ctx, cfg.ArchiveDSN)
		if err != nil {
			return fail(fmt.Errorf("open archive: %w", err))
		}
		arc = deps.Archive
	} else {
		logger.Info("archive_disabled")
	}

	deps.Service, err = svcchess.NewService(svcchess.Deps{
		Store:    deps.Store,
		Archive:  arc,
		Bridge:   client,
		Egress:   egress,
		Messages: msgs,
		Mapper:   mapper,
		Renderer: render.NewSVGBoardRenderer(),
	}, svcchess.Config{
		PGNDir:       cfg.PGNDir,
		EventWorkers: cfg.EventWorkers,
		EventQueue:   cfg.EventQueue,
		EventTimeout: cfg.EventTimeout,
	}, logger)
	if err != nil {
		return fail(err)
	}
	logger.Info("chess_service_ready",
		zap.String("store", cfg.StoreBackend),
		zap.Bool("archive", deps.Archive != nil),
		zap.String("egress", cfg.EgressMode),
		zap.Int("block_colors", mapper.Len()),
	)
	return deps, nil
}
