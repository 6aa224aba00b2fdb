package audio

import (
	"context"
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// hotplugWatcher observes the OS audio-device registry directory and
// invokes onEvent for any create/remove event. It implements
// suture.Service so a supervisor can restart it with backoff if the
// underlying fsnotify watch dies (e.g. the watched directory is briefly
// unmounted), rather than silently leaving hotplug detection dead for the
// rest of the process lifetime.
type hotplugWatcher struct {
	path    string
	onEvent func()
	log     *logrus.Entry
}

func newHotplugWatcher(path string, onEvent func()) *hotplugWatcher {
	return &hotplugWatcher{
		path:    path,
		onEvent: onEvent,
		log:     logrus.WithField("component", "audio.hotplug"),
	}
}

// Serve implements suture.Service. It degrades gracefully (logs and
// returns nil, so the supervisor does not loop forever restarting a watch
// target that will never exist) if the watch path is absent at startup;
// any other fsnotify setup failure is returned so the supervisor retries
// with backoff.
func (h *hotplugWatcher) Serve(ctx context.Context) error {
	if _, err := os.Stat(h.path); err != nil {
		h.log.WithError(err).Warn("hotplug watch path unavailable, hotplug recovery disabled")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("audio: create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(h.path); err != nil {
		return fmt.Errorf("audio: watch hotplug path %q: %w", h.path, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("audio: hotplug watcher closed unexpectedly")
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				h.onEvent()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("audio: hotplug watcher error channel closed")
			}
			h.log.WithError(err).Debug("hotplug watcher error")
		}
	}
}
