// Package mongo connects to MongoDB with go.mongodb.org/mongo-driver/v2, retrying
// the initial ping so a service can start before its database is ready.
//
//	db, err := mongo.ConnectDatabase(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer db.Client().Disconnect(context.Background())
package mongo
