package newsdesk

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDelay = 500 * time.Millisecond

// watchConfig reloads the publishing settings whenever the config file
// at path changes. The returned func stops the watcher.
func (a *App) watchConfig(path string) (func(), error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	// Editors often replace the file, so watch its directory.
	abs, err := filepath.Abs(path)
	if err != nil {
		fw.Close()
		return nil, err
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	a.Echo.Logger.Infof("watching %s", abs)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		var timer *time.Timer
		for {
			select {
			case <-done:
				if timer != nil {
					timer.Stop()
				}
				return
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(reloadDelay, func() { a.reloadConfig(abs) })
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				a.Echo.Logger.Warnf("config watcher: %v", err)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			fw.Close()
			wg.Wait()
		})
	}, nil
}

// reloadConfig applies the settings that can change without a restart:
// WordPress credentials, default category and image credit.
func (a *App) reloadConfig(path string) {
	cfg, err := LoadConfig(path)
	if err != nil {
		a.Echo.Logger.Warnf("reload %s: %v", path, err)
		return
	}
	a.applySettings(cfg)
	a.Echo.Logger.Infof("reloaded %s", path)
}

func (a *App) applySettings(cfg Config) {
	a.settingsMu.Lock()
	a.category = cfg.DefaultCategory
	a.credit = cfg.ImageCredit
	a.settingsMu.Unlock()

	if a.Work != nil && a.Work.Snapshot().Site != cfg.WordPress {
		a.Work.Dispatch(SetSite{Site: cfg.WordPress})
	}
}
