package infra

import (
	"context"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

const executablePollInterval = 5 * time.Second

// MonitorExecutable signals once when the running binary is replaced on
// disk, which is how deployments roll the bot. The channel closes without a
// signal if the binary cannot be watched.
func MonitorExecutable(ctx context.Context) <-chan struct{} {
	ch := make(chan struct{})
	go func() {
		defer close(ch)

		exePath, err := os.Executable()
		if err != nil {
			log.WithError(err).Warn("cant resolve executable path, monitor disabled")
			return
		}
		entry := log.WithField("executable", exePath)
		stat, err := os.Stat(exePath)
		if err != nil {
			entry.WithError(err).Warn("cant stat executable, monitor disabled")
			return
		}
		startedWith := stat.ModTime()
		entry.Debug("watching executable for replacement")

		ticker := time.NewTicker(executablePollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stat, err := os.Stat(exePath)
				if err != nil {
					entry.WithError(err).Warn("cant stat executable")
					continue
				}
				if !startedWith.Equal(stat.ModTime()) {
					ch <- struct{}{}
					return
				}
			}
		}
	}()
	return ch
}
