package cmd

import (
	"fmt"
	"log/slog"

	httpin "freight/internal/adapters/in/http"
	"freight/internal/adapters/out/carriers"
	"freight/internal/adapters/out/carriers/gss"
	"freight/internal/adapters/out/carriers/nzpost"
	"freight/internal/adapters/out/postgres"
	"freight/internal/core/application/usecases/commands"
	"freight/internal/core/application/usecases/queries"
	"freight/internal/core/ports"
	"freight/internal/jobs"
	"freight/internal/pkg/metrics"
	"freight/internal/pkg/resilience"

	"gorm.io/gorm"
)

// CompositionRoot builds every handler once at startup. The carrier registry,
// credentials and metrics are created here and passed down explicitly.
type CompositionRoot struct {
	config      Config
	gormDB      *gorm.DB
	uowFactory  postgres.GormUnitOfWorkFactory
	registry    *carriers.Registry
	credentials *carriers.StaticCredentials
	breakers    *resilience.CircuitBreakerRegistry
	metrics     *metrics.Metrics
	clock       ports.Clock
	logger      *slog.Logger
}

func NewCompositionRoot(config Config, gormDB *gorm.DB, logger *slog.Logger) (*CompositionRoot, error) {
	credentials, err := carriers.LoadCredentials(config.CarrierCredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load carrier credentials: %w", err)
	}

	m := metrics.New(metrics.DefaultConfig())
	breakers := resilience.NewCircuitBreakerRegistry(logger, carriers.BreakerConfig, m.SetCircuitBreakerState)

	root := &CompositionRoot{
		config:      config,
		gormDB:      gormDB,
		uowFactory:  *postgres.NewGormUnitOfWorkFactory(gormDB),
		credentials: credentials,
		breakers:    breakers,
		metrics:     m,
		clock:       ports.SystemClock{},
		logger:      logger,
	}
	root.registry = carriers.NewRegistry(
		nzpost.New(root.transport("NZPOST", "NZ Post", config.NZPostBaseURL)),
		gss.New(root.transport("GSS", "GoSweetSpot", config.GSSBaseURL)),
	)
	return root, nil
}

func (c *CompositionRoot) transport(code, name, baseURL string) *carriers.Transport {
	return carriers.NewTransport(carriers.TransportConfig{
		Carrier:     code,
		DisplayName: name,
		BaseURL:     baseURL,
		Timeout:     c.config.CarrierTimeout,
		Retry:       c.config.Retry(),
	}, c.breakers, c.metrics, c.logger)
}

func (c *CompositionRoot) Metrics() *metrics.Metrics {
	return c.metrics
}

// Commands

func (c *CompositionRoot) CreateBuyLabelCommandHandler() commands.BuyLabelCommandHandler {
	return commands.NewBuyLabelCommandHandler(c.labelUoWFactory(), c.registry, c.credentials, c.clock, c.metrics, c.logger)
}

func (c *CompositionRoot) CreateCancelLabelCommandHandler() commands.CancelLabelCommandHandler {
	return commands.NewCancelLabelCommandHandler(c.labelUoWFactory(), c.registry, c.credentials, c.clock, c.metrics, c.logger)
}

func (c *CompositionRoot) CreateSaveAddressCommandHandler() commands.SaveAddressCommandHandler {
	return commands.NewSaveAddressCommandHandler(c.shipmentUoWFactory())
}

func (c *CompositionRoot) CreateManualDispatchCommandHandler() commands.ManualDispatchCommandHandler {
	return commands.NewManualDispatchCommandHandler(c.shipmentUoWFactory(), c.clock, c.logger)
}

func (c *CompositionRoot) CreateSyncCarrierProductsCommandHandler() commands.SyncCarrierProductsCommandHandler {
	var f commands.CatalogUoWFactory = FuncCatalogUoWFactory(func() commands.CatalogUoW {
		return c.uowFactory.Create()
	})
	return commands.NewSyncCarrierProductsCommandHandler(f, c.registry, c.credentials, c.config.DefaultContainerCapacityG, c.logger)
}

func (c *CompositionRoot) CreatePurgeIdempotencyRecordsCommandHandler() commands.PurgeIdempotencyRecordsCommandHandler {
	var f commands.IdempotencyUoWFactory = FuncIdempotencyUoWFactory(func() commands.IdempotencyUoW {
		return c.uowFactory.Create()
	})
	return commands.NewPurgeIdempotencyRecordsCommandHandler(f, c.clock)
}

// Queries read outside a transaction.

func (c *CompositionRoot) CreateGetRatesQueryHandler() queries.GetRatesQueryHandler {
	reads := c.uowFactory.Create()
	return queries.NewGetRatesQueryHandler(
		reads.TransferRepository(),
		reads.ShipmentRepository(),
		reads.CatalogRepository(),
		c.registry,
		c.credentials,
		c.metrics,
		c.logger,
	)
}

func (c *CompositionRoot) CreateAllocateBoxesQueryHandler() queries.AllocateBoxesQueryHandler {
	reads := c.uowFactory.Create()
	return queries.NewAllocateBoxesQueryHandler(
		reads.TransferRepository(),
		reads.ProductRepository(),
		reads.CatalogRepository(),
		c.config.Allocator,
		c.config.DefaultUnitWeightG,
		c.logger,
	)
}

func (c *CompositionRoot) CreatePickContainerQueryHandler() queries.PickContainerQueryHandler {
	return queries.NewPickContainerQueryHandler(c.uowFactory.Create().CatalogRepository())
}

func (c *CompositionRoot) CreateGetShipmentQueryHandler() queries.GetShipmentQueryHandler {
	return queries.NewGetShipmentQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateCatalogHealthQueryHandler() queries.CatalogHealthQueryHandler {
	reads := c.uowFactory.Create()
	return queries.NewCatalogHealthQueryHandler(reads.CatalogRepository(), reads.ProductRepository(), c.logger)
}

func (c *CompositionRoot) CreateValidateAddressQueryHandler() queries.ValidateAddressQueryHandler {
	return queries.NewValidateAddressQueryHandler()
}

// Adapters

func (c *CompositionRoot) NewHTTPServer() *httpin.Server {
	return httpin.NewServer(httpin.Handlers{
		Rates:           c.CreateGetRatesQueryHandler(),
		Allocation:      c.CreateAllocateBoxesQueryHandler(),
		BuyLabel:        c.CreateBuyLabelCommandHandler(),
		CancelLabel:     c.CreateCancelLabelCommandHandler(),
		Shipment:        c.CreateGetShipmentQueryHandler(),
		SaveAddress:     c.CreateSaveAddressCommandHandler(),
		ManualDispatch:  c.CreateManualDispatchCommandHandler(),
		ValidateAddress: c.CreateValidateAddressQueryHandler(),
		PickContainer:   c.CreatePickContainerQueryHandler(),
		CatalogHealth:   c.CreateCatalogHealthQueryHandler(),
	}, c.metrics, c.logger)
}

func (c *CompositionRoot) NewJobManager() *jobs.JobManager {
	return jobs.NewJobManager(
		c.CreateSyncCarrierProductsCommandHandler(),
		c.CreatePurgeIdempotencyRecordsCommandHandler(),
		c.config.Jobs,
		c.logger,
	)
}

func (c *CompositionRoot) labelUoWFactory() commands.LabelUoWFactory {
	return FuncLabelUoWFactory(func() commands.LabelUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) shipmentUoWFactory() commands.ShipmentUoWFactory {
	return FuncShipmentUoWFactory(func() commands.ShipmentUoW {
		return c.uowFactory.Create()
	})
}

type FuncLabelUoWFactory func() commands.LabelUoW

func (f FuncLabelUoWFactory) Create() commands.LabelUoW {
	return f()
}

type FuncShipmentUoWFactory func() commands.ShipmentUoW

func (f FuncShipmentUoWFactory) Create() commands.ShipmentUoW {
	return f()
}

type FuncCatalogUoWFactory func() commands.CatalogUoW

func (f FuncCatalogUoWFactory) Create() commands.CatalogUoW {
	return f()
}

type FuncIdempotencyUoWFactory func() commands.IdempotencyUoW

func (f FuncIdempotencyUoWFactory) Create() commands.IdempotencyUoW {
	return f()
}
