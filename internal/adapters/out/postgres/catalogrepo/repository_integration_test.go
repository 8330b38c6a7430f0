package catalogrepo_test

import (
	"context"
	"testing"
	"time"

	"freight/internal/adapters/out/postgres/catalogrepo"
	"freight/internal/core/domain/model/catalog"
	"freight/internal/core/domain/model/kernel"
	"freight/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type CatalogRepositoryIntegrationTestSuite struct {
	suite.Suite
	container  *postgres.PostgresContainer
	db         *gorm.DB
	repository *catalogrepo.GormCatalogRepository
}

func (suite *CatalogRepositoryIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(postgresdriver.Open(connStr), &gorm.Config{TranslateError: true})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(db.AutoMigrate(&catalogrepo.CarrierDTO{}, &catalogrepo.ContainerDTO{}))
}

func (suite *CatalogRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE carriers, carrier_containers").Error)
	suite.Require().NoError(suite.db.Create(&[]catalogrepo.CarrierDTO{
		{Code: "NZPOST", Name: "NZ Post", VolumetricFactor: 200, Enabled: true},
		{Code: "GSS", Name: "GoSweetSpot", VolumetricFactor: 250, Enabled: false},
	}).Error)
	suite.repository = catalogrepo.NewGormCatalogRepository(suite.db)
}

func (suite *CatalogRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *CatalogRepositoryIntegrationTestSuite) TestGetCarrier_NormalizesAlias() {
	c, err := suite.repository.GetCarrier(context.Background(), "starshipit")
	suite.Require().NoError(err)
	suite.Equal("NZPOST", c.Code())
	suite.Equal(200, c.VolumetricFactor())
}

func (suite *CatalogRepositoryIntegrationTestSuite) TestGetCarrier_Unknown() {
	_, err := suite.repository.GetCarrier(context.Background(), "DHL")
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *CatalogRepositoryIntegrationTestSuite) TestListCarriers_OrderedByCode() {
	carriers, err := suite.repository.ListCarriers(context.Background())
	suite.Require().NoError(err)
	suite.Require().Len(carriers, 2)
	suite.Equal("GSS", carriers[0].Code())
	suite.False(carriers[0].Enabled())
}

func (suite *CatalogRepositoryIntegrationTestSuite) TestUpsertContainer_KeepsCostOnConflict() {
	ctx := context.Background()

	priced := suite.container5k("A5 satchel", decimal.RequireFromString("8.00"))
	suite.Require().NoError(suite.repository.UpsertContainer(ctx, priced))

	synced := suite.container5k("A5 satchel (new)", decimal.Zero)
	suite.Require().NoError(synced.ApplyProduct("A5 satchel (new)", kernel.UnknownDimensions(), nil))
	suite.Require().NoError(suite.repository.UpsertContainer(ctx, synced))

	got, err := suite.repository.GetContainer(ctx, "nzpost", "CPOLTPA5")
	suite.Require().NoError(err)
	suite.Equal("A5 satchel (new)", got.Name())
	suite.True(decimal.RequireFromString("8.00").Equal(got.Cost()))
	suite.Equal(catalog.KindBag, got.Kind())

	list, err := suite.repository.ListContainers(ctx, "NZPOST")
	suite.Require().NoError(err)
	suite.Len(list, 1)
}

func (suite *CatalogRepositoryIntegrationTestSuite) TestGetContainer_Unknown() {
	_, err := suite.repository.GetContainer(context.Background(), "NZPOST", "NOPE")
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *CatalogRepositoryIntegrationTestSuite) container5k(name string, cost decimal.Decimal) *catalog.ContainerSpec {
	dims, err := kernel.NewDimensions(330, 250, 50)
	suite.Require().NoError(err)
	c, err := catalog.NewContainerSpec(kernel.NewUUID(), "NZPOST", "CPOLTPA5", name, catalog.KindBag, dims, 5000, cost)
	suite.Require().NoError(err)
	return c
}

func TestCatalogRepositoryIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(CatalogRepositoryIntegrationTestSuite))
}
