package main

import (
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/caleidos-dev/specaudit/pkg/schema"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-validate the spec directory on every change",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	proj, err := loadProject()
	if err != nil {
		return err
	}
	specsDir := proj.SpecsDir()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("new fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	if err := watchTree(watcher, specsDir); err != nil {
		return fmt.Errorf("watch %s: %w", specsDir, err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	fmt.Printf("Watching %s (ctrl-c to stop)\n", specsDir)
	revalidate(specsDir)

	// Debounce bursts of events: editors write spec files in several
	// operations.
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-sig:
			fmt.Println("\nStopped.")
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				// A new subdirectory needs its own watch before any
				// spec file inside it can be seen.
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					if err := watchTree(watcher, ev.Name); err != nil {
						fmt.Fprintf(os.Stderr, "watch error: %v\n", err)
					}
					continue
				}
			}
			if !schema.IsSpecFile(ev.Name) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(150 * time.Millisecond)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(150 * time.Millisecond)
				timerC = timer.C
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watch error: %v\n", err)

		case <-timerC:
			timerC = nil
			revalidate(specsDir)
		}
	}
}

// watchTree registers dir and every directory below it. Spec discovery
// is recursive, and fsnotify watches are not, so each directory gets
// its own watch.
func watchTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}

func revalidate(specsDir string) {
	set, diags, err := schema.LoadDir(specsDir)
	stamp := time.Now().Format("15:04:05")
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s  ! %v\n", stamp, err)
		return
	}
	errors := printDiagnostics(diags)
	if errors > 0 {
		fmt.Printf("%s  ✗ %d error(s)\n", stamp, errors)
		return
	}
	fmt.Printf("%s  ✓ %d specs valid\n", stamp, len(set.Specs))
}
