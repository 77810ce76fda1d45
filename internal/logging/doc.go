// Package logging provides structured logging for taskwatch on top of
// log/slog.
//
// Every component receives a child of one root [Logger] tagged with its
// name, and the monitor further tags each tick so a run can be filtered per
// tick after the fact:
//
//	logger, err := logging.New(logging.Options{
//	    Path:     "/var/log/taskwatch.log",
//	    Level:    "info",
//	    Rotation: logging.DefaultRotationConfig(),
//	})
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.WithComponent("monitor").WithTick(tickID).Info("tick finished", "notified", 2)
//
// Output is JSON lines unless Format is "text". An empty Path logs to
// stderr. The level can be changed while running with [Logger.SetLevel],
// which the watch command does when the config file changes.
//
// Log files are rotated by [RotatingWriter] once they exceed MaxSizeMB;
// backups are named taskwatch.log.1 (newest) through .N.
package logging
