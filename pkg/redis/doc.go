// Package redis connects to Redis with github.com/redis/go-redis/v9.
//
// Connect parses a redis:// URL, then pings with retries until the server answers
// or the configured timeout expires. Healthcheck wraps a ping for readiness probes.
//
//	var cfg redis.Config
//	if err := config.Load(&cfg); err != nil {
//	    return err
//	}
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
package redis
