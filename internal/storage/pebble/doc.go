// Package pebblestore wraps Pebble for the embedded counter backend: an
// fsync policy chosen at open time, serialized read-modify-write, prefix
// sweeps and a small metrics hook.
//
//	db, err := pebblestore.Open(pebblestore.Options{DataDir: "./data", Fsync: pebblestore.FsyncModeAlways})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//	err = db.Update(ctx, []byte("ctr/orders"), func(cur []byte) ([]byte, error) {
//	    return append(cur, 'x'), nil
//	})
package pebblestore
