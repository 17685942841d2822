// Package daemon runs the sync pipeline on a schedule and watches the
// snapshot file for replacement.
//
// # Architecture
//
//   - Daemon: runs a full sync followed by a snapshot export, then waits
//     Interval before the next run. Two runs never overlap.
//   - FileWatcher: fsnotify-based watch of the snapshot file, used to reload
//     readers when another process replaces it.
//
// # Usage
//
//	cfg := daemon.DefaultConfig()
//	cfg.SnapshotPath = "confoo2026.json"
//	cfg.OnRun = func(res *sync.Result, err error) {
//	    // reload snapshot readers
//	}
//
//	d, err := daemon.New(syncer, database, cfg)
//	if err != nil {
//	    return err
//	}
//	if err := d.Start(ctx); err != nil {
//	    return err
//	}
//	defer d.Stop()
//
// OnRun is called after the export, so a reader reloaded from the snapshot
// there sees the finished run. The daemon stops when its context is
// cancelled or Stop is called.
package daemon
