package commands_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"freight/internal/adapters/out/postgres"
	"freight/internal/adapters/out/postgres/shipmentrepo"
	"freight/internal/adapters/out/postgres/transferrepo"
	"freight/internal/core/application/usecases/commands"
	"freight/internal/core/domain/model/catalog"
	"freight/internal/core/ports"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type labelUoWFactory struct{ factory ports.UnitOfWorkFactory }

func (f labelUoWFactory) Create() commands.LabelUoW { return f.factory.Create() }

// BuyLabelIntegrationTestSuite runs label purchases against PostgreSQL so the
// shipment row lock and the idempotency store are real.
type BuyLabelIntegrationTestSuite struct {
	suite.Suite
	container *tcpostgres.PostgresContainer
	db        *gorm.DB
	factory   labelUoWFactory
}

func (suite *BuyLabelIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(postgresdriver.Open(dsn), &gorm.Config{TranslateError: true})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(postgres.Migrate(db))
	suite.factory = labelUoWFactory{factory: postgres.NewGormUnitOfWorkFactory(db)}
}

func (suite *BuyLabelIntegrationTestSuite) SetupTest() {
	err := suite.db.Exec(`TRUNCATE TABLE shipment_labels, shipment_parcels, shipments, idempotency_records,
		transfer_lines, transfers`).Error
	suite.Require().NoError(err)

	suite.Require().NoError(suite.db.Create(&transferrepo.TransferDTO{
		ID:           42,
		OriginOutlet: "outlet-7",
		Origin:       transferrepo.AddressDTO{Name: "Warehouse", Line1: "1 Depot Road", City: "Auckland", Postcode: "1010", Country: "NZ"},
		Destination:  transferrepo.AddressDTO{Name: "Store 12", Line1: "12 Queen Street", City: "Hamilton", Postcode: "3204", Country: "NZ"},
		Lines:        []transferrepo.TransferLineDTO{{ProductID: "p-1", Quantity: 2}},
	}).Error)
}

func (suite *BuyLabelIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

// TestConcurrentFirstPurchaseSameKey fires two first purchases with one key
// at a transfer that has no shipment row yet.
func (suite *BuyLabelIntegrationTestSuite) TestConcurrentFirstPurchaseSameKey() {
	carrier := &stubCarrier{
		code:     catalog.CarrierNZPost,
		required: []string{"api_key", "subscription_key"},
		label:    labelDetails(catalog.CarrierNZPost, "NZ700"),
		document: ports.LabelDocument{URL: "https://labels.example/NZ700.pdf"},
		delay:    300 * time.Millisecond,
	}
	metrics := new(MockMetrics)
	metrics.On("LabelPurchased", mock.Anything).Maybe()
	handler := commands.NewBuyLabelCommandHandler(
		suite.factory,
		stubRegistry{catalog.CarrierNZPost: carrier},
		nzPostCredentials(),
		fixedClock{now: fixedNow},
		metrics,
		discardLogger(),
	)
	cmd := buyCommand(suite.T(), commands.PurchaseOptions{}, "same-key")

	var (
		wg       sync.WaitGroup
		outcomes [2]commands.Outcome
		failures [2]error
	)
	start := make(chan struct{})
	for i := range outcomes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			outcomes[i], failures[i] = handler.Handle(context.Background(), cmd)
		}()
	}
	close(start)
	wg.Wait()

	suite.Require().NoError(failures[0])
	suite.Require().NoError(failures[1])
	suite.JSONEq(string(outcomes[0].Body), string(outcomes[1].Body))
	suite.Equal(outcomes[0].StatusCode, outcomes[1].StatusCode)
	suite.NotEqual(outcomes[0].Replayed, outcomes[1].Replayed, "one purchase runs and the other replays")
	suite.Equal(int32(1), carrier.creates.Load())

	var labels int64
	suite.Require().NoError(suite.db.Unscoped().Model(&shipmentrepo.LabelDTO{}).Count(&labels).Error)
	suite.Equal(int64(1), labels)
}

func TestBuyLabelIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(BuyLabelIntegrationTestSuite))
}
