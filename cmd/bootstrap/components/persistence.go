package components

import (
	"gearbook/internal/infra/db"
	"gearbook/internal/infra/linkcode"
	"gearbook/internal/infra/readstore"
	"gearbook/internal/infra/uow"
	"gearbook/internal/usecase/queries"
	"gearbook/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	fx.Provide(
		NewDBTX,
		fx.Annotate(
			uow.NewPostgresUoW,
			fx.As(new(shared.UnitOfWork)),
		),
		fx.Annotate(
			readstore.NewUserReadStore,
			fx.As(new(queries.UserViewRepo)),
		),
		fx.Annotate(
			readstore.NewEquipmentReadStore,
			fx.As(new(queries.EquipmentViewRepo)),
		),
		fx.Annotate(
			readstore.NewBookingReadStore,
			fx.As(new(queries.BookingViewRepo)),
		),
		linkcode.NewRedisStore,
	),
)

// NewDBTX hands the pool to read stores that run outside a transaction.
func NewDBTX(pool *pgxpool.Pool) db.DBTX {
	return pool
}
