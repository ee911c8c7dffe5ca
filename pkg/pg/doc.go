// Package pg bootstraps PostgreSQL access on top of github.com/jackc/pgx/v5.
//
// Connect builds a *pgxpool.Pool from Config and retries until the server accepts
// a ping. Migrate runs github.com/pressly/goose/v3 migrations from an fs.FS,
// usually embedded by the package that owns the tables, with goose output routed
// to slog. IsNotFoundError and IsDuplicateKeyError classify driver errors.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	if err := pg.Migrate(ctx, pool, cfg, pgstore.Migrations, "migrations", log); err != nil {
//	    return err
//	}
package pg
