package discount

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-cart/internal/db"
)

const (
	SourcePostgres = "postgres"
	SourceMongo    = "mongo"
)

// Open returns the discount store selected by source. The returned close func
// releases any connection Open created; it never closes pool.
func Open(ctx context.Context, source string, pool *pgxpool.Pool, mongoURI, mongoDatabase string, logger *log.Logger) (Repository, func(context.Context), error) {
	switch source {
	case SourceMongo:
		database, err := db.ConnectMongo(ctx, mongoURI, mongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func(ctx context.Context) {
			if err := database.Client().Disconnect(ctx); err != nil && logger != nil {
				logger.Printf("disconnect mongo: %v", err)
			}
		}
		return NewMongo(database), closeFn, nil
	case SourcePostgres, "":
		if pool == nil {
			return nil, nil, fmt.Errorf("discount source %q requires DB_DSN", SourcePostgres)
		}
		return NewPostgres(pool, logger), func(context.Context) {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown discount source %q", source)
	}
}
