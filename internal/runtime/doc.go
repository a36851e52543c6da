// Package runtime wires configuration, a counter backend and the ID
// generator into one process. It exposes Open/Close and a health check.
//
// Example:
//
//	cfg := config.Default()
//	cfg.Backend = config.BackendPebble
//	cfg.Pebble.DataDir = "./data"
//	rt, _ := runtime.Open(ctx, runtime.Options{Config: cfg})
//	defer rt.Close()
//	_ = rt.CheckHealth(ctx)
//	v, _ := rt.Generator().Sharded(ctx, "orders", 7)
package runtime
